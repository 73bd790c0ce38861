package lang

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParseScript_Sections(t *testing.T) {
	s := mustParseScript(t, `
a = 1 // leading section
[params]
shift = 2.5   # pixels
label = "# not a comment"

[fun:limb img, angle]
result = rotate_deg(autocrop(img), angle)

[outputs]
disk = limb(img(shift), 12)
`)

	if len(s.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(s.Sections))
	}

	if s.Sections[0].Name != "" || len(s.Sections[0].Body) != 1 {
		t.Errorf("expected unnamed leading section, got %+v", s.Sections[0])
	}

	params, ok := s.Section("params")
	if !ok || len(params.Body) != 2 {
		t.Fatalf("expected params with 2 lines, got %+v", params)
	}

	if got := params.Body[1].String(); got != `label = "# not a comment"` {
		t.Errorf("expected quoted hash kept, got %q", got)
	}

	fn := s.Sections[2]
	if !fn.Function || fn.Name != "limb" || !slices.Equal(fn.Params, []string{"img", "angle"}) {
		t.Errorf("unexpected function section %+v", fn)
	}

	if got := fn.Header(); got != "[fun:limb img angle]" {
		t.Errorf("expected header %q, got %q", "[fun:limb img angle]", got)
	}

	if _, ok := s.Section("limb"); ok {
		t.Error("expected function sections to be excluded from Section")
	}

	if s.Functions().Len() != 1 {
		t.Errorf("expected 1 function, got %d", s.Functions().Len())
	}
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"unterminated header", "[params\nx = 1", "unterminated section header"},
		{"bad section name", "[two words]", "invalid section name"},
		{"missing function name", "[fun:]", "missing function name"},
		{"bad parameter", "[fun:f 1x]", "invalid identifier"},
		{"duplicate parameter", "[fun:f a a]", "duplicate parameter"},
		{"redefined function", "[fun:f]\nresult = 1\n[fun:f]\nresult = 2", "function f redefined at line 3"},
		{"bad line", "[outputs]\nx = (1", "unmatched opening"},
		{"bad character", "x = 1 ^ 2", "invalid character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript(tt.input)
			if !errors.Is(err, ErrSyntax) && !errors.Is(err, ErrInvalidCharacter) {
				t.Fatalf("expected syntax error, got %v", err)
			}

			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, err)
			}
		})
	}
}

func TestParseScript_LineNumbers(t *testing.T) {
	_, err := ParseScript("[a]\nx = 1\n\ny = 2 +\n")

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}

	if !strings.Contains(err.Error(), "at 4:") {
		t.Errorf("expected line 4 in %q", err)
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x = 1 # c", "x = 1 "},
		{"x = 1 // c", "x = 1 "},
		{"x = 4 / 2", "x = 4 / 2"},
		{`s = "a#b" # c`, `s = "a#b" `},
		{`s = 'a//b'`, `s = 'a//b'`},
		{`s = "a\"#" # c`, `s = "a\"#" `},
		{"# only", ""},
	}

	for _, tt := range tests {
		if got := stripComment(tt.input); got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestTokenizeScript(t *testing.T) {
	tokens, err := TokenizeScript("# header\n[outputs]\n\nx = 1 # one\n  y\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []struct {
		text string
		line int
	}{{"x", 4}, {"=", 4}, {"1", 4}, {"y", 5}}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}

	for i, e := range expected {
		if tokens[i].Text != e.text || tokens[i].Pos.Line != e.line {
			t.Errorf("token %d: expected %q on line %d, got %q on line %d",
				i, e.text, e.line, tokens[i].Text, tokens[i].Pos.Line)
		}
	}

	if _, err := TokenizeScript("[outputs]\nx = 1 @ 2\n"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("expected ErrInvalidCharacter, got %v", err)
	}
}
