package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/imagemath/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	currentParamStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// functionCall describes the innermost call whose argument list contains
// the cursor.
type functionCall struct {
	name     string
	argIndex int    // 0-based positional index of the current argument
	argName  string // name of the current argument when written name=value
	inCall   bool
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// detectFunctionCall finds the call enclosing cursor by scanning back to
// the nearest unbalanced "(" that follows a name. Parentheses inside
// quoted strings are not distinguished.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open := -1

	for i, depth := cursor-1, 0; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 && isIdentByte(input[start-1]) {
		start--
	}

	if start == open {
		// grouping parenthesis: look further out
		return detectFunctionCall(input, open)
	}

	call := functionCall{name: input[start:open], inCall: true}

	argStart, depth := open+1, 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				call.argIndex++
				argStart = i + 1
			}
		}
	}

	arg := strings.TrimSpace(input[argStart:cursor])
	if name, _, ok := strings.Cut(arg, "="); ok && isIdentifier(strings.TrimSpace(name)) {
		call.argName = strings.TrimSpace(name)
	}

	return call
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}

	for i := range len(s) {
		if !isIdentByte(s[i]) {
			return false
		}
	}

	return true
}

// signature returns the display name and parameter labels of the builtin
// or, failing that, the user function called name. Optional builtin
// parameters are bracketed and a spread parameter ends in "...".
func (s *session) signature(name string) (string, []string, bool) {
	b, err := lang.Lookup(name)
	if err != nil {
		fn, ok := s.ev.Functions().Lookup(name)
		if !ok {
			return "", nil, false
		}

		return fn.Name(), fn.Params(), true
	}

	if b.Spread() {
		return strings.ToLower(b.Name), []string{lang.SpreadParam + "..."}, true
	}

	params := make([]string, len(b.Params))
	for i, p := range b.Params {
		params[i] = p.Name
		if !p.Required {
			params[i] = "[" + p.Name + "]"
		}
	}

	return strings.ToLower(b.Name), params, true
}

// renderSignatureHint renders name(params) with the parameter for call's
// current argument highlighted.
func renderSignatureHint(name string, params []string, call functionCall) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	current := currentParam(params, call)

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		style := signatureStyle
		if i == current {
			style = currentParamStyle
		}

		b.WriteString(style.Render(p))
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

// currentParam returns the index into params of the argument being typed,
// or -1.
func currentParam(params []string, call functionCall) int {
	if call.argName != "" {
		for i, p := range params {
			if strings.Trim(p, "[]") == call.argName {
				return i
			}
		}

		return -1
	}

	if n := len(params); n > 0 && strings.HasSuffix(params[n-1], "...") && call.argIndex >= n-1 {
		return n - 1
	}

	if call.argIndex < len(params) {
		return call.argIndex
	}

	return -1
}
