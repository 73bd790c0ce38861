package lang

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

const formatScript = `
// leading
base = img(0)

[fun:limb img angle]
result = rotate_deg(autocrop(img), angle, bg=0)

[outputs]
disk = limb(img(2.5), -(12 - 2) * 3)
label = draw_text(disk, 10, 10, "shift \"2.5\"")
`

func TestFormat_RoundTrip(t *testing.T) {
	s := mustParseScript(t, formatScript)

	var first bytes.Buffer
	if err := Format(&first, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again := mustParseScript(t, first.String())

	var second bytes.Buffer
	if err := Format(&second, again); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.String() != second.String() {
		t.Errorf("expected stable formatting:\n%s\n---\n%s", first.String(), second.String())
	}

	if !strings.Contains(first.String(), "[fun:limb img angle]\n") {
		t.Errorf("expected function header in %q", first.String())
	}
}

func TestLiteral_QuoteRoundTrip(t *testing.T) {
	tests := []string{
		"plain",
		`say "hi" \ bye`,
		"tab\tline\nreturn\r",
		"bell\x07 nul\x00 esc\x1b",
		"sol \u00e9 \U0001f31e",
		"'single'",
		"# not a comment // either",
	}

	for _, text := range tests {
		lit := &Literal{Text: text, Quoted: true}

		tokens, err := Tokenize(lit.String())
		if err != nil {
			t.Fatalf("%q: tokenize %s: %v", text, lit, err)
		}

		if len(tokens) != 1 || tokens[0].Text != text || !tokens[0].Quoted {
			t.Errorf("expected %q, got %v", text, tokens)
		}

		s := mustParseScript(t, "x = "+lit.String()+"\n")

		got, _ := s.Sections[0].Body[0].(*Assignment).Value.(*Literal)
		if got == nil || got.Text != text {
			t.Errorf("script: expected %q, got %v", text, s.Sections[0].Body[0])
		}
	}
}

func TestFormatTokens(t *testing.T) {
	tokens, err := Tokenize("f(1)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := FormatTokens(&buf, tokens); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "1:1  function     f\n" +
		"1:2  left paren   (\n" +
		"1:3  literal      1\n" +
		"1:4  right paren  )\n"

	if buf.String() != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, buf.String())
	}
}

func TestFormatTree(t *testing.T) {
	x, err := ParseLine("a = f(1, -x, k=2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := FormatTree(&buf, x, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `Assignment a
  FunctionCall f/3
    Literal 1
    UnaryOp -
      Identifier x
    Argument k
      Literal 2
`

	if buf.String() != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON(&buf, mustParse(t, "1 + x"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"left":{"node":"number","value":1},"node":"binary","op":"+","right":{"name":"x","node":"identifier"}}` + "\n"
	if buf.String() != expected {
		t.Errorf("expected %s, got %s", expected, buf.String())
	}
}

func TestFormatYAML(t *testing.T) {
	s := mustParseScript(t, formatScript)

	var buf bytes.Buffer
	if err := FormatYAML(t.Context(), &buf, s, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Node     string `yaml:"node"`
		Sections []struct {
			Node   string   `yaml:"node"`
			Name   string   `yaml:"name"`
			Params []string `yaml:"params"`
		} `yaml:"sections"`
	}

	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}

	if doc.Node != "script" || len(doc.Sections) != 3 {
		t.Fatalf("unexpected document %+v", doc)
	}

	fn := doc.Sections[1]
	if fn.Node != "function" || fn.Name != "limb" || len(fn.Params) != 2 {
		t.Errorf("unexpected function node %+v", fn)
	}
}
