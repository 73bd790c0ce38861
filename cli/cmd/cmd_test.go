package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveScript(t *testing.T) {
	var (
		first  = t.TempDir()
		second = t.TempDir()
	)

	direct := writeFile(t, first, "direct.math", "")
	writeFile(t, first, "sun.math", "")
	writeFile(t, second, "sun.math", "")
	writeFile(t, second, "moon", "")
	writeFile(t, second, "dir.math/keep", "")

	ctx := WithSearchPath(t.Context(), []string{first, second})

	tests := []struct {
		name     string
		expected string
	}{
		{direct, direct},
		{"sun", filepath.Join(first, "sun.math")},
		{"sun.math", filepath.Join(first, "sun.math")},
		{"moon", filepath.Join(second, "moon")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveScript(ctx, tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	for _, name := range []string{"missing", "dir", filepath.Join(t.TempDir(), "sun")} {
		if _, err := resolveScript(ctx, name); !errors.Is(err, ErrScriptNotFound) {
			t.Errorf("%s: expected ErrScriptNotFound, got %v", name, err)
		}
	}
}

func TestOpenSource(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.math", "x = 1\n")

	r, err := openSource(t.Context(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "x = 1\n" {
		t.Errorf("expected file content, got %q", data)
	}

	for _, name := range []string{stdinSource, ""} {
		r, err := openSource(t.Context(), name)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", name, err)
		}

		// closing must leave stdin open
		r.Close()
	}

	if _, err := os.Stdin.Stat(); err != nil {
		t.Errorf("expected stdin to remain open, got %v", err)
	}
}

func TestOpenLibraries_Dedup(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.math", "")
	b := writeFile(t, dir, "b.math", "")

	link := filepath.Join(dir, "link.math")
	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	rel, err := filepath.Rel(mustGetwd(t), a)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithSearchPath(t.Context(), []string{dir})

	libs, err := openLibraries(ctx, []string{a, "b", link, rel, "a", b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defer func() {
		for _, l := range libs {
			l.Close()
		}
	}()

	if len(libs) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(libs))
	}

	if filepath.Base(libs[0].path) != "a.math" || filepath.Base(libs[1].path) != "b.math" {
		t.Errorf("expected [a.math b.math], got [%s %s]", libs[0].path, libs[1].path)
	}
}

func TestOpenLibraries_Missing(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.math", "")

	_, err := openLibraries(t.Context(), []string{a, filepath.Join(dir, "missing.math")})
	if !errors.Is(err, ErrLibrary) {
		t.Fatalf("expected ErrLibrary, got %v", err)
	}

	if !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("expected ErrScriptNotFound cause, got %v", err)
	}
}

func mustGetwd(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	return wd
}
