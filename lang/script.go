package lang

import (
	"log/slog"
	"strings"
)

// Section names with a meaning to [Evaluator.Run].
const (
	// OutputsSection names the section whose assignments are the script's
	// results.
	OutputsSection = "outputs"

	functionPrefix = "fun:"
)

// parseScript splits src into sections of parsed lines.
func parseScript(src string) (*Script, error) {
	var (
		script = &Script{}
		cur    = &Section{}
		funcs  = map[string]int{}
	)

	flush := func() {
		if cur.Name != "" || cur.Function || len(cur.Body) > 0 {
			script.Sections = append(script.Sections, cur)
		}
	}

	for i, raw := range strings.Split(src, "\n") {
		lineno := i + 1

		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			sec, err := parseHeader(line, lineno)
			if err != nil {
				return nil, err
			}

			if sec.Function {
				if prev, ok := funcs[sec.Name]; ok {
					return nil, ErrSyntax.
						Detailf("function %s redefined at line %d", sec.Name, lineno).
						With(slog.Int("line", lineno), slog.Int("previous", prev))
				}

				funcs[sec.Name] = lineno
			}

			flush()

			cur = sec

			continue
		}

		x, err := parseLine(line, lineno)
		if err != nil {
			return nil, err
		}

		cur.Body = append(cur.Body, x)
	}

	flush()

	return script, nil
}

// TokenizeScript tokenizes every expression line of src, skipping blank
// lines, comments, and section headers. Token positions carry the line
// number within src.
func TokenizeScript(src string) ([]Token, error) {
	var tokens []Token

	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}

		t, err := tokenize(line, i+1)
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, t...)
	}

	return tokens, nil
}

// parseHeader parses "[name]" or "[fun:name p1 p2 ...]". Function
// parameters may be separated by spaces or commas.
func parseHeader(line string, lineno int) (*Section, error) {
	bad := func(format string, args ...any) error {
		return ErrSyntax.
			Detailf(format+" at line %d", append(args, lineno)...).
			With(slog.Int("line", lineno))
	}

	if !strings.HasSuffix(line, "]") {
		return nil, bad("unterminated section header %q", line)
	}

	inner := strings.TrimSpace(line[1 : len(line)-1])

	rest, isFunc := strings.CutPrefix(inner, functionPrefix)
	if !isFunc {
		if !isIdentifier(inner) {
			return nil, bad("invalid section name %q", inner)
		}

		return &Section{Name: inner}, nil
	}

	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	if len(fields) == 0 {
		return nil, bad("missing function name")
	}

	seen := map[string]bool{}

	for _, f := range fields {
		if !isIdentifier(f) {
			return nil, bad("invalid identifier %q", f)
		}

		if seen[f] {
			return nil, bad("duplicate parameter %q", f)
		}

		seen[f] = true
	}

	return &Section{Name: fields[0], Function: true, Params: fields[1:]}, nil
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}

	return true
}

// stripComment removes a trailing "#" or "//" comment that is not inside a
// quoted string.
func stripComment(line string) string {
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case c == '"' || c == '\'':
			quote = c

		case c == '#':
			return line[:i]

		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}

	return line
}

// Functions returns the user functions defined by the script's function
// sections. Each function sees all the others.
func (x *Script) Functions() *FunctionSet {
	set := &FunctionSet{fns: map[string]*UserFunction{}}

	for _, s := range x.Sections {
		if s.Function {
			set.fns[s.Name] = &UserFunction{
				name:     s.Name,
				params:   s.Params,
				body:     s.Body,
				siblings: set,
			}
		}
	}

	return set
}
