package lang

import (
	"errors"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// SpreadParam is the reserved parameter name of spread builtins, which
// collect all positional arguments into one ordered list.
const SpreadParam = "list"

// Parameter is one declared parameter of a [Builtin].
type Parameter struct {
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required"              yaml:"required"`
}

// Builtin is one catalog identity and its parameter contract.
//
// Required parameters precede optional ones. A spread builtin declares the
// single parameter [SpreadParam] and nothing else.
type Builtin struct {
	Name        string      `json:"name"                  yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Params      []Parameter `json:"params"                yaml:"params"`
	SideEffect  bool        `json:"side_effect"           yaml:"side_effect"`
	Check       string      `json:"check,omitempty"       yaml:"check,omitempty"`
}

// Spread reports whether b collects its arguments with [SpreadParam].
func (b *Builtin) Spread() bool {
	return len(b.Params) == 1 && b.Params[0].Name == SpreadParam
}

// Required returns the number of required parameters.
func (b *Builtin) Required() int {
	n := 0

	for _, p := range b.Params {
		if p.Required {
			n++
		}
	}

	return n
}

// Param returns the declared parameter with the given name.
func (b *Builtin) Param(name string) (Parameter, bool) {
	i := slices.IndexFunc(b.Params, func(p Parameter) bool { return p.Name == name })
	if i < 0 {
		return Parameter{}, false
	}

	return b.Params[i], true
}

// Signature renders the call shape of b with optional parameters
// bracketed, e.g. "blur(img, [kernel])". Overloaded builtins list each
// accepted shape separated by " | ".
func (b *Builtin) Signature() string {
	name := strings.ToLower(b.Name)

	if b.Spread() {
		return name + "(" + SpreadParam + "...)"
	}

	if shapes, ok := overloads[b.Name]; ok {
		sigs := make([]string, len(shapes))
		for i, shape := range shapes {
			sigs[i] = name + "(" + strings.Join(shape, ", ") + ")"
		}

		return strings.Join(sigs, " | ")
	}

	params := make([]string, len(b.Params))
	for i, p := range b.Params {
		params[i] = p.Name
		if !p.Required {
			params[i] = "[" + p.Name + "]"
		}
	}

	return name + "(" + strings.Join(params, ", ") + ")"
}

// overloads lists the positional shapes of the builtins that accept more
// than one argument count. COLORIZE is the only one.
var overloads = map[string][][]string{
	"COLORIZE": {
		{"img", "rIn", "rOut", "gIn", "gOut", "bIn", "bOut"},
		{"img", "profile"},
	},
}

var catalogIndex = func() map[string]*Builtin {
	m := make(map[string]*Builtin, len(catalog))
	for i := range catalog {
		m[catalog[i].Name] = &catalog[i]
	}

	return m
}()

// Lookup returns the builtin named name, compared case-insensitively.
func Lookup(name string) (*Builtin, error) {
	if b, ok := catalogIndex[strings.ToUpper(name)]; ok {
		return b, nil
	}

	return nil, ErrUnknownFunction.Detailf("%s", name).
		With(slog.String("name", name))
}

// Builtins returns an iterator over the catalog in declaration order.
func Builtins() iter.Seq[*Builtin] {
	return func(yield func(*Builtin) bool) {
		for i := range catalog {
			if !yield(&catalog[i]) {
				return
			}
		}
	}
}

// ValidateArgs checks named arguments against b's contract. Every missing
// required parameter is reported in one error and every unrecognized name
// in another; both are returned joined. Spread builtins accept only
// [SpreadParam]. Overloaded builtins must name exactly the parameters of
// one of their shapes.
func ValidateArgs(b *Builtin, args Args) error {
	var missing, unknown []string

	if b.Spread() {
		for name := range args {
			if name != SpreadParam {
				unknown = append(unknown, name)
			}
		}

		return unknownArguments(b, unknown)
	}

	for _, p := range b.Params {
		if _, ok := args[p.Name]; p.Required && !ok {
			missing = append(missing, p.Name)
		}
	}

	for name := range args {
		if _, ok := b.Param(name); !ok {
			unknown = append(unknown, name)
		}
	}

	var errs []error

	if len(missing) > 0 {
		errs = append(errs, ErrMissingArgument.
			Detailf("%s requires %s", b.Signature(), strings.Join(missing, ", ")).
			With(slog.String("builtin", b.Name), slog.Any("missing", missing)))
	}

	if err := unknownArguments(b, unknown); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return overloadShape(b, args)
}

func unknownArguments(b *Builtin, unknown []string) error {
	if len(unknown) == 0 {
		return nil
	}

	slices.Sort(unknown)

	return ErrUnknownArgument.
		Detailf("%s does not accept %s", b.Signature(), strings.Join(unknown, ", ")).
		With(slog.String("builtin", b.Name), slog.Any("unknown", unknown))
}

// overloadShape requires the names in args to be exactly one of b's
// overload shapes, when b has any.
func overloadShape(b *Builtin, args Args) error {
	shapes, ok := overloads[b.Name]
	if !ok {
		return nil
	}

	names := slices.Sorted(maps.Keys(args))

	for _, shape := range shapes {
		if slices.Equal(names, slices.Sorted(slices.Values(shape))) {
			return nil
		}
	}

	return ErrOverload.
		Detailf("%s called with %s", b.Signature(), strings.Join(names, ", ")).
		With(slog.String("builtin", b.Name), slog.Any("names", names))
}

// MapPositional binds positional values to b's parameters in declaration
// order. The count must lie between the number of required parameters and
// the number of declared parameters. Spread builtins bind all values, in
// order, as one list under [SpreadParam]. COLORIZE instead accepts exactly
// 7 or 2 values.
func MapPositional(b *Builtin, values []any) (Args, error) {
	if b.Spread() {
		return Args{SpreadParam: slices.Clone(values)}, nil
	}

	if shapes, ok := overloads[b.Name]; ok {
		for _, shape := range shapes {
			if len(shape) == len(values) {
				return bind(shape, values), nil
			}
		}

		return nil, argumentCount(b, len(values))
	}

	if len(values) < b.Required() || len(values) > len(b.Params) {
		return nil, argumentCount(b, len(values))
	}

	names := make([]string, len(values))
	for i := range values {
		names[i] = b.Params[i].Name
	}

	return bind(names, values), nil
}

func bind(names []string, values []any) Args {
	args := make(Args, len(names))
	for i, name := range names {
		args[name] = values[i]
	}

	return args
}

func argumentCount(b *Builtin, got int) error {
	return ErrArgumentCount.
		Detailf("%s called with %d", b.Signature(), got).
		With(slog.String("builtin", b.Name), slog.Int("count", got))
}
