package lang

import (
	"log/slog"
	"strconv"
	"strings"
)

// Kind classifies a [Token].
type Kind int

const (
	TokenLiteral Kind = iota
	TokenVariable
	TokenFunction
	TokenOperator
	TokenComma
	TokenLeftParen
	TokenRightParen
)

func (k Kind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenVariable:
		return "variable"
	case TokenFunction:
		return "function"
	case TokenOperator:
		return "operator"
	case TokenComma:
		return "comma"
	case TokenLeftParen:
		return "left paren"
	case TokenRightParen:
		return "right paren"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Pos locates a token in its source. Line and Column are 1-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is one lexical element of a script line.
//
// For quoted string literals Text holds the unescaped contents.
type Token struct {
	Kind   Kind
	Text   string
	Pos    Pos
	Quoted bool
}

func (t Token) String() string {
	if t.Quoted {
		return strconv.Quote(t.Text)
	}

	return t.Text
}

func isOperator(r byte) bool {
	return strings.IndexByte("+-*/=", r) >= 0
}

func isIdentStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r byte) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r byte) bool { return r >= '0' && r <= '9' }

// Tokenize converts src into a flat token sequence.
func Tokenize(src string) ([]Token, error) {
	return tokenize(src, 1)
}

// tokenize scans src, numbering positions from the given line.
// Scripts are ASCII; any byte outside the recognized classes is rejected.
func tokenize(src string, line int) ([]Token, error) {
	var (
		tokens []Token
		col    = 1
	)

	for i := 0; i < len(src); {
		c := src[i]
		pos := Pos{Offset: i, Line: line, Column: col}

		emit := func(kind Kind, end int) {
			tokens = append(tokens, Token{Kind: kind, Text: src[i:end], Pos: pos})
			col += end - i
			i = end
		}

		switch {
		case c == '\n':
			line++
			col = 1
			i++

		case c == ' ' || c == '\t' || c == '\r':
			col++
			i++

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i
			for j < len(src) && isDigit(src[j]) {
				j++
			}

			if j < len(src) && src[j] == '.' {
				j++
				for j < len(src) && isDigit(src[j]) {
					j++
				}
			}

			emit(TokenLiteral, j)

		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}

			if j < len(src) && src[j] == '(' {
				emit(TokenFunction, j)
			} else {
				emit(TokenVariable, j)
			}

		case c == '"' || c == '\'':
			text, end, err := scanString(src, i)
			if err != nil {
				return nil, err.With(
					slog.Int("line", pos.Line), slog.Int("column", pos.Column),
				).Detailf("unterminated string at %s", pos)
			}

			tokens = append(tokens,
				Token{Kind: TokenLiteral, Text: text, Pos: pos, Quoted: true})
			col += end - i
			i = end

		case isOperator(c):
			emit(TokenOperator, i+1)

		case c == ',':
			emit(TokenComma, i+1)

		case c == '(':
			emit(TokenLeftParen, i+1)

		case c == ')':
			emit(TokenRightParen, i+1)

		default:
			return nil, ErrInvalidCharacter.
				Detailf("%q at %s", rune(c), pos).
				With(slog.Int("line", pos.Line), slog.Int("column", pos.Column))
		}
	}

	return tokens, nil
}

// scanString reads a quoted literal starting at src[start], returning its
// unescaped contents and the offset just past the closing quote.
func scanString(src string, start int) (string, int, *Error) {
	quote := src[start]

	var sb strings.Builder

	for i := start + 1; i < len(src); i++ {
		switch c := src[i]; c {
		case quote:
			return sb.String(), i + 1, nil

		case '\n':
			return "", 0, ErrSyntax

		case '\\':
			i++
			if i >= len(src) {
				return "", 0, ErrSyntax
			}

			switch e := src[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(e)
			}

		default:
			sb.WriteByte(c)
		}
	}

	return "", 0, ErrSyntax
}
