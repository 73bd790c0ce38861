package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/imagemath/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "funcs", "shifts", "edit", "clear", "quit"}

// isWordBoundary reports whether r separates identifiers in a script line.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t',
		'(', ')', ',',
		'+', '-', '*', '/', '=',
		'"', '\'', '#':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte offsets within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// evalCandidates returns every name callable or readable at the prompt:
// builtins in lower case, then user functions, then variables.
func evalCandidates(s *session) []string {
	var names []string

	for b := range lang.Builtins() {
		names = append(names, strings.ToLower(b.Name))
	}

	for _, fn := range s.functions() {
		names = append(names, fn.Name())
	}

	return append(names, s.variables()...)
}

// computeMatches ranks the candidates for the word at the cursor, best
// first. An empty word matches nothing so the hint line stays visible.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	word, ws, we := wordBounds(m.input.Value(), m.input.Position())

	if word == "" {
		return nil, ws, we
	}

	candidates := ctrlCommands
	if m.mode == modeEval {
		candidates = evalCandidates(m.session)
	}

	return fuzzy.Find(word, candidates), ws, we
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width. The selected candidate is highlighted while tab-cycling.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	var (
		b        strings.Builder
		used     int
		ellipsis = hintStyle.Render("...")
	)

	for i, match := range m.matches {
		rendered := m.renderCandidate(match, m.tabActive && i == m.suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w+lipgloss.Width(ellipsis) > m.width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders match with its matched characters highlighted.
// Callable names get a "()" suffix that completion does not insert.
func (m model) renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if m.mode == modeEval && m.isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

func (m model) isFunction(name string) bool {
	if _, ok := m.session.ev.Functions().Lookup(name); ok {
		return true
	}

	_, err := lang.Lookup(name)

	return err == nil
}
