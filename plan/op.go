package plan

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/imagemath/lang"
)

// Image is a base image reconstructed at a pixel shift.
type Image struct {
	Shift float64
}

// PixelShift implements [lang.PixelShifter].
func (i *Image) PixelShift() (float64, bool) { return i.Shift, true }

// Apply implements [lang.Operand].
func (i *Image) Apply(op string, other any, reversed bool) (any, error) {
	return apply(i, op, other, reversed)
}

func (i *Image) String() string { return "img(" + Format(i.Shift) + ")" }

// Op is a planned image operation: a builtin identity with its arguments,
// or an arithmetic operator with "left" and "right".
type Op struct {
	Name string
	Args lang.Args
}

// Apply implements [lang.Operand].
func (o *Op) Apply(op string, other any, reversed bool) (any, error) {
	return apply(o, op, other, reversed)
}

// Params returns the names in o.Args in declaration order.
func (o *Op) Params() []string {
	if b, err := lang.Lookup(o.Name); err == nil {
		var names []string

		for _, p := range b.Params {
			if _, ok := o.Args[p.Name]; ok {
				names = append(names, p.Name)
			}
		}

		return names
	}

	if isArith(o.Name) {
		return []string{"left", "right"}
	}

	names := make([]string, 0, len(o.Args))
	for name := range o.Args {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func (o *Op) String() string {
	if isArith(o.Name) {
		return "(" + Format(o.Args["left"]) + " " + o.Name + " " + Format(o.Args["right"]) + ")"
	}

	name := strings.ToLower(o.Name)

	if l, ok := o.Args[lang.SpreadParam].([]any); ok && len(o.Args) == 1 {
		return name + "(" + formatList(l) + ")"
	}

	params := o.Params()

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p + "=" + Format(o.Args[p])
	}

	return name + "(" + strings.Join(parts, ", ") + ")"
}

func isArith(name string) bool {
	return len(name) == 1 && strings.Contains("+-*/", name)
}

func apply(self any, op string, other any, reversed bool) (any, error) {
	if !isArith(op) {
		return nil, lang.ErrUnsupportedOperator.Detailf("%q", op)
	}

	switch other.(type) {
	case *Image, *Op:
	default:
		if _, ok := number(other); !ok {
			return nil, lang.ErrUnsupportedOperand.Detailf("image %s %T", op, other)
		}
	}

	left, right := self, other
	if reversed {
		left, right = other, self
	}

	return &Op{Name: op, Args: lang.Args{"left": left, "right": right}}, nil
}

// newOp plans b with args, filling omitted optional parameters from the
// ExecContext table.
func newOp(b *lang.Builtin, args lang.Args, exec lang.ExecContext) *Op {
	filled := maps.Clone(args)
	if filled == nil {
		filled = lang.Args{}
	}

	if !b.Spread() {
		for _, p := range b.Params {
			if _, ok := filled[p.Name]; ok || p.Required {
				continue
			}

			if v, ok := tableValue(exec.Table, b.Name, p.Name); ok {
				filled[p.Name] = v
			}
		}
	}

	return &Op{Name: b.Name, Args: filled}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Format renders a value in script syntax.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	case []any:
		return "list(" + formatList(v) + ")"
	case fmt.Stringer:
		return v.String()
	default:
		if f, ok := number(v); ok {
			return Format(f)
		}

		return fmt.Sprint(v)
	}
}

func formatList(l []any) string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = Format(v)
	}

	return strings.Join(parts, ", ")
}

// Native converts v to maps, slices, and scalars suitable for JSON or
// YAML.
func Native(v any) any {
	switch v := v.(type) {
	case *Image:
		return map[string]any{"image": v.Shift}

	case *Op:
		args := make(map[string]any, len(v.Args))
		for k, a := range v.Args {
			args[k] = Native(a)
		}

		return map[string]any{"op": v.Name, "args": args}

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Native(e)
		}

		return out

	case lang.Args:
		out := make(map[string]any, len(v))
		for k, a := range v {
			out[k] = Native(a)
		}

		return out

	case float64:
		// JSON cannot represent these
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Format(v)
		}

		return v

	default:
		return v
	}
}
