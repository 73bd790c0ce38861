package lang

import (
	"strings"
	"testing"
)

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"2+3*4",
		"(2+3)*4",
		"f()",
		"f(a, g(b), -c)",
		"blur(img=x, kernel=3)",
		"((1))",
		"(1, 2)",
		"f((1, 2))",
		"-(-(1))",
		"x = y",
		"f(,)",
		")(",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		tokens, err := Tokenize(src)
		if err != nil {
			return
		}

		x, err := Parse(tokens)
		if err != nil {
			return
		}

		walk(x, func(n Expression) {
			if _, ok := n.(*arityNode); ok {
				t.Fatalf("arity node leaked from %q", src)
			}
		})

		// quoted text may print with escapes the scanner reads differently
		if strings.ContainsAny(src, `"'`) {
			return
		}

		printed := x.String()

		again, err := Tokenize(printed)
		if err != nil {
			t.Fatalf("tokenize %q (from %q): %v", printed, src, err)
		}

		y, err := Parse(again)
		if err != nil {
			t.Fatalf("parse %q (from %q): %v", printed, src, err)
		}

		if y.String() != printed {
			t.Fatalf("expected %q, got %q", printed, y.String())
		}
	})
}
