package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		cursor  int
		want    string
		index   int
		argName string
		inCall  bool
	}{
		{"no call", "shift", 5, "", 0, "", false},
		{"first argument", "blur(", 5, "blur", 0, "", true},
		{"first argument typed", "blur(img", 8, "blur", 0, "", true},
		{"second argument", "blur(img, ", 10, "blur", 1, "", true},
		{"after close", "blur(img)", 9, "", 0, "", false},
		{"nested inner", "crop(blur(img, ", 15, "blur", 1, "", true},
		{"nested outer", "crop(blur(img, 3), ", 19, "crop", 1, "", true},
		{"grouping", "blur(img, (1 + ", 15, "blur", 1, "", true},
		{"bare grouping", "(1 + ", 5, "", 0, "", false},
		{"named", "crop(img, top=", 14, "crop", 1, "top", true},
		{"named value", "crop(img, top=4", 15, "crop", 1, "top", true},
		{"cursor before call", "x + blur(img)", 2, "", 0, "", false},
		{"assignment", "d = autocrop(", 13, "autocrop", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.inCall {
				t.Fatalf("expected inCall %v, got %v", tt.inCall, got.inCall)
			}

			if got.name != tt.want {
				t.Errorf("expected name %q, got %q", tt.want, got.name)
			}

			if got.argIndex != tt.index {
				t.Errorf("expected index %d, got %d", tt.index, got.argIndex)
			}

			if got.argName != tt.argName {
				t.Errorf("expected argName %q, got %q", tt.argName, got.argName)
			}
		})
	}
}

func TestSession_Signature(t *testing.T) {
	s := newTestSession(t, "[fun:limb img angle]\nresult = img\n")

	tests := []struct {
		name   string
		want   string
		params []string
		ok     bool
	}{
		{"limb", "limb", []string{"img", "angle"}, true},
		{"BLUR", "blur", []string{"img", "[kernel]"}, true},
		{"blur", "blur", []string{"img", "[kernel]"}, true},
		{"avg", "avg", []string{"list..."}, true},
		{"Limb", "", nil, false},
		{"nope", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, params, ok := s.signature(tt.name)
			if ok != tt.ok {
				t.Fatalf("expected ok %v, got %v", tt.ok, ok)
			}

			if name != tt.want {
				t.Errorf("expected name %q, got %q", tt.want, name)
			}

			if !slices.Equal(params, tt.params) {
				t.Errorf("expected params %v, got %v", tt.params, params)
			}
		})
	}
}

func TestCurrentParam(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		call   functionCall
		want   int
	}{
		{"first", []string{"img", "[kernel]"}, functionCall{argIndex: 0}, 0},
		{"second", []string{"img", "[kernel]"}, functionCall{argIndex: 1}, 1},
		{"past end", []string{"img", "[kernel]"}, functionCall{argIndex: 2}, -1},
		{"named optional", []string{"img", "[kernel]"}, functionCall{argName: "kernel"}, 1},
		{"named unknown", []string{"img"}, functionCall{argName: "gamma"}, -1},
		{"spread", []string{"list..."}, functionCall{argIndex: 4}, 0},
		{"no params", nil, functionCall{}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := currentParam(tt.params, tt.call); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		call   functionCall
	}{
		{"blur", []string{"img", "[kernel]"}, functionCall{argIndex: 1}},
		{"avg", []string{"list..."}, functionCall{argIndex: 3}},
		{"zero", nil, functionCall{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.name, tt.params, tt.call)

			if !strings.Contains(got, tt.name) {
				t.Errorf("expected %q in %q", tt.name, got)
			}

			for _, p := range tt.params {
				if !strings.Contains(got, p) {
					t.Errorf("expected %q in %q", p, got)
				}
			}
		})
	}
}
