package pkg

import (
	"os"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "imagemath" {
		t.Errorf("expected Name to be %q, got %q", "imagemath", Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("failed to read VERSION file: %v", err)
	}

	want := strings.TrimSpace(string(buf))
	if Version != want {
		t.Errorf("expected Version %q, got %q", want, Version)
	}

	if strings.ContainsAny(Version, " \n\t") {
		t.Errorf("expected trimmed Version, got %q", Version)
	}
}
