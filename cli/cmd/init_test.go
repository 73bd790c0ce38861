package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name     string
		existing bool
		force    bool
		err      error
	}{
		{name: "new"},
		{name: "overwrite", existing: true, force: true},
		{name: "exists", existing: true, err: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")

			if tt.existing {
				if err := os.WriteFile(path, []byte("stale: true\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			args := []string{"--path", "/opt/scripts", "-P", "lib", "init"}
			if tt.force {
				args = append(args, "--force")
			}

			_, err := execute(t, kong.Vars{ConfigIdentifier: path}, args...)
			if tt.err != nil {
				if !errors.Is(err, tt.err) || !errors.Is(err, ErrWriteConfig) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var config map[string]any
			if err := yaml.Unmarshal(data, &config); err != nil {
				t.Fatalf("invalid yaml %q: %v", data, err)
			}

			if _, ok := config["stale"]; ok {
				t.Error("expected existing content to be replaced")
			}

			if _, ok := config["help"]; ok {
				t.Error("expected help flag to be omitted")
			}

			entries, ok := config["path"].([]any)
			if !ok || len(entries) != 2 {
				t.Fatalf("expected two path entries, got %#v", config["path"])
			}
		})
	}
}

func TestInit_UnwritableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")

	_, err := execute(t, kong.Vars{ConfigIdentifier: path}, "init")
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("expected ErrWriteConfig, got %v", err)
	}
}
