package lang

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// ToNative converts x to maps and slices suitable for JSON or YAML. Every
// node becomes a map with a "node" key naming its type.
func ToNative(x Expression) any {
	switch x := x.(type) {
	case *Literal:
		if x.Quoted {
			return map[string]any{"node": "string", "value": x.Text}
		}

		v, err := x.Value()
		if err != nil {
			return map[string]any{"node": "number", "text": x.Text}
		}

		return map[string]any{"node": "number", "value": v}

	case *Identifier:
		return map[string]any{"node": "identifier", "name": x.Name}

	case *BinaryOp:
		return map[string]any{
			"node": "binary", "op": x.Op,
			"left": ToNative(x.Left), "right": ToNative(x.Right),
		}

	case *UnaryOp:
		return map[string]any{"node": "unary", "op": x.Op, "operand": ToNative(x.Operand)}

	case *Assignment:
		m := map[string]any{"node": "assignment", "value": ToNative(x.Value)}
		if x.Name != "" {
			m["name"] = x.Name
		}

		return m

	case *FunctionCall:
		return map[string]any{"node": "call", "name": x.Name, "args": nativeList(x.Args)}

	case *Argument:
		return map[string]any{"node": "argument", "name": x.Name, "value": ToNative(x.Value)}

	case *Section:
		m := map[string]any{"node": "section", "body": nativeList(x.Body)}
		if x.Name != "" {
			m["name"] = x.Name
		}

		if x.Function {
			m["node"] = "function"
			m["params"] = append([]string{}, x.Params...)
		}

		return m

	case *Script:
		sections := make([]any, len(x.Sections))
		for i, s := range x.Sections {
			sections[i] = ToNative(s)
		}

		return map[string]any{"node": "script", "sections": sections}

	default:
		return nil
	}
}

func nativeList(xs []Expression) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = ToNative(x)
	}

	return out
}

// FormatJSON writes [ToNative] of x as JSON. A positive indent selects
// multi-line output.
func FormatJSON(w io.Writer, x Expression, indent int) error {
	return WriteJSON(w, ToNative(x), indent)
}

// FormatYAML writes [ToNative] of x as YAML. A non-positive indent selects
// flow style.
func FormatYAML(ctx context.Context, w io.Writer, x Expression, indent int) error {
	return WriteYAML(ctx, w, ToNative(x), indent)
}

// WriteJSON writes v as JSON followed by a newline.
func WriteJSON(w io.Writer, v any, indent int) error {
	enc := json.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}

	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(ctx context.Context, w io.Writer, v any, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v, opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
