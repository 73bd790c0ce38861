package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_AddPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	if err := h.Load(); err != nil {
		t.Fatalf("expected missing file to load, got %v", err)
	}

	adds := []historyEntry{
		{"x = 1", modeEval},
		{"vars", modeCtrl},
		{"x = 1", modeEval}, // moves to the end
		{"x = 1", modeEval}, // repeated last entry
		{"  ", modeEval},
		{"img(x)", modeEval},
	}

	for _, e := range adds {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	expected := []historyEntry{
		{"vars", modeCtrl},
		{"x = 1", modeEval},
		{"img(x)", modeEval},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := "C:vars\nE:x = 1\nE:img(x)\n"; string(data) != want {
		t.Errorf("expected file %q, got %q", want, data)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, hist := range []*History{h, reloaded} {
		if hist.Len() != len(expected) {
			t.Fatalf("expected %d entries, got %d", len(expected), hist.Len())
		}

		for i, want := range expected {
			got, err := hist.Entry(i)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != want {
				t.Errorf("entry %d: expected %+v, got %+v", i, want, got)
			}
		}
	}
}

func TestHistory_Memory(t *testing.T) {
	h := NewHistory("")

	if err := h.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Add("x", modeEval); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", h.Len())
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("entry %d: expected ErrOutOfBounds, got %v", i, err)
		}
	}
}

func TestHistory_LegacyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	if err := os.WriteFile(path, []byte("plain\n\nC:quit\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := h.Entry(0)
	second, _ := h.Entry(1)

	if first != (historyEntry{"plain", modeEval}) || second != (historyEntry{"quit", modeCtrl}) {
		t.Errorf("unexpected entries %+v, %+v", first, second)
	}
}
