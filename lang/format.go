package lang

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Format writes x in script syntax.
func Format(w io.Writer, x Expression) error {
	s := x.String()
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}

	_, err := io.WriteString(w, s)

	return err
}

// FormatTokens writes one token per line: position, kind, and text.
func FormatTokens(w io.Writer, tokens []Token) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, t := range tokens {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Pos, t.Kind, t); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// FormatTree writes x as an indented tree of nodes.
func FormatTree(w io.Writer, x Expression, indent int) error {
	if indent <= 0 {
		indent = 2
	}

	var sb strings.Builder

	writeTree(&sb, x, strings.Repeat(" ", indent), 0)

	_, err := io.WriteString(w, sb.String())

	return err
}

func writeTree(sb *strings.Builder, x Expression, unit string, depth int) {
	line := func(format string, args ...any) {
		sb.WriteString(strings.Repeat(unit, depth))
		fmt.Fprintf(sb, format, args...)
		sb.WriteByte('\n')
	}

	next := depth + 1

	switch x := x.(type) {
	case *Literal:
		line("Literal %s", x)
	case *Identifier:
		line("Identifier %s", x.Name)
	case *BinaryOp:
		line("BinaryOp %s", x.Op)
		writeTree(sb, x.Left, unit, next)
		writeTree(sb, x.Right, unit, next)
	case *UnaryOp:
		line("UnaryOp %s", x.Op)
		writeTree(sb, x.Operand, unit, next)
	case *Assignment:
		if x.Name == "" {
			line("Assignment")
		} else {
			line("Assignment %s", x.Name)
		}

		writeTree(sb, x.Value, unit, next)
	case *FunctionCall:
		line("FunctionCall %s/%d", x.Name, len(x.Args))

		for _, a := range x.Args {
			writeTree(sb, a, unit, next)
		}
	case *Argument:
		line("Argument %s", x.Name)
		writeTree(sb, x.Value, unit, next)
	case *Section:
		switch {
		case x.Function:
			line("Function %s(%s)", x.Name, strings.Join(x.Params, ", "))
		case x.Name == "":
			line("Section")
		default:
			line("Section %s", x.Name)
		}

		for _, b := range x.Body {
			writeTree(sb, b, unit, next)
		}
	case *Script:
		line("Script")

		for _, s := range x.Sections {
			writeTree(sb, s, unit, next)
		}
	default:
		line("%T", x)
	}
}
