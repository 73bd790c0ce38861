package profile

import (
	"slices"
	"testing"
)

func TestProfiler_Disabled(t *testing.T) {
	tests := []Profiler{
		{},
		{Mode: "no-such-mode", Path: t.TempDir()},
	}

	for _, p := range tests {
		// must not panic or leave a session running
		p.Start().Stop()
	}
}

func TestModes_Sorted(t *testing.T) {
	if m := Modes(); !slices.IsSorted(m) {
		t.Errorf("expected sorted modes, got %v", m)
	}
}
