package lang

import (
	"strconv"
	"strings"
)

// Expression is a node of the syntax tree. The set of node types is closed:
// [Literal], [Identifier], [BinaryOp], [UnaryOp], [Assignment],
// [FunctionCall], and the structural [Script], [Section], and [Argument].
//
// Nodes are immutable once parsed and may be shared between goroutines.
// String renders a node in script syntax that parses back to an equivalent
// tree.
type Expression interface {
	String() string

	expression()
}

// Literal is a numeric or quoted string constant.
type Literal struct {
	Text   string
	Quoted bool
}

// Identifier is a variable reference.
type Identifier struct {
	Name string
}

// BinaryOp applies an infix arithmetic operator.
type BinaryOp struct {
	Op          string
	Left, Right Expression
}

// UnaryOp applies a prefix operator. Only "-" negates; anything else
// evaluates to its operand.
type UnaryOp struct {
	Op      string
	Operand Expression
}

// Assignment binds Value to Name. An empty Name evaluates Value for its
// result and side effects only.
type Assignment struct {
	Name  string
	Value Expression
}

// FunctionCall invokes a builtin or user function.
type FunctionCall struct {
	Name string
	Args []Expression
}

// Argument is a named argument inside a call's argument list.
type Argument struct {
	Name  string
	Value Expression
}

// Section is a bracketed block of script lines. Function sections define a
// user function named Name taking Params.
type Section struct {
	Name     string
	Function bool
	Params   []string
	Body     []Expression
}

// Script is a parsed script file.
type Script struct {
	Sections []*Section
}

func (*Literal) expression()      {}
func (*Identifier) expression()   {}
func (*BinaryOp) expression()     {}
func (*UnaryOp) expression()      {}
func (*Assignment) expression()   {}
func (*FunctionCall) expression() {}
func (*Argument) expression()     {}
func (*Section) expression()      {}
func (*Script) expression()       {}

// Value returns the literal's runtime value: the text itself when quoted,
// otherwise the decimal number it spells.
func (x *Literal) Value() (any, error) {
	if x.Quoted {
		return x.Text, nil
	}

	f, err := strconv.ParseFloat(x.Text, 64)
	if err != nil {
		return nil, ErrSyntax.Detailf("invalid number %q", x.Text).Wrap(err)
	}

	return f, nil
}

func (x *Literal) String() string {
	if x.Quoted {
		return quote(x.Text)
	}

	return x.Text
}

// quote double-quotes s using only the escapes the tokenizer reads back.
func quote(s string) string {
	var sb strings.Builder

	sb.WriteByte('"')

	for i := range len(s) {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}

func (x *Identifier) String() string { return x.Name }

func precedence(op string) int {
	switch op {
	case "=":
		return 0
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	default:
		return -1
	}
}

const unaryPrecedence = 3

func (x *BinaryOp) String() string {
	p := precedence(x.Op)

	left := x.Left.String()
	if b, ok := x.Left.(*BinaryOp); ok && precedence(b.Op) < p {
		left = "(" + left + ")"
	}

	// operators are left-associative, so an equal-precedence right
	// operand keeps its parentheses
	right := x.Right.String()
	if b, ok := x.Right.(*BinaryOp); ok && precedence(b.Op) <= p {
		right = "(" + right + ")"
	}

	return left + " " + x.Op + " " + right
}

func (x *UnaryOp) String() string {
	operand := x.Operand.String()
	if _, ok := x.Operand.(*BinaryOp); ok {
		operand = "(" + operand + ")"
	}

	if x.Op != "-" {
		return operand
	}

	return x.Op + operand
}

func (x *Assignment) String() string {
	if x.Name == "" {
		return x.Value.String()
	}

	return x.Name + " = " + x.Value.String()
}

func (x *FunctionCall) String() string {
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = a.String()
	}

	return x.Name + "(" + strings.Join(args, ", ") + ")"
}

func (x *Argument) String() string { return x.Name + "=" + x.Value.String() }

// Header returns the section's bracketed header line, or "" for the
// unnamed leading section.
func (x *Section) Header() string {
	switch {
	case x.Function:
		return "[" + functionPrefix + strings.Join(
			append([]string{x.Name}, x.Params...), " ") + "]"
	case x.Name != "":
		return "[" + x.Name + "]"
	default:
		return ""
	}
}

func (x *Section) String() string {
	var sb strings.Builder

	if h := x.Header(); h != "" {
		sb.WriteString(h)
		sb.WriteByte('\n')
	}

	for _, e := range x.Body {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}

	return sb.String()
}

func (x *Script) String() string {
	parts := make([]string, len(x.Sections))
	for i, s := range x.Sections {
		parts[i] = s.String()
	}

	return strings.Join(parts, "\n")
}

// Section returns the first section with the given name.
func (x *Script) Section(name string) (*Section, bool) {
	for _, s := range x.Sections {
		if s.Name == name && !s.Function {
			return s, true
		}
	}

	return nil, false
}
