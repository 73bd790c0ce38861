package lang

import (
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// programs caches compiled checks by builtin name.
var programs sync.Map

func program(b *Builtin) (*vm.Program, error) {
	if p, ok := programs.Load(b.Name); ok {
		return p.(*vm.Program), nil //nolint:forcetypeassert
	}

	p, err := expr.Compile(b.Check,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	actual, _ := programs.LoadOrStore(b.Name, p)

	return actual.(*vm.Program), nil //nolint:forcetypeassert
}

// CheckArgs runs b's precondition against args. Only scalar arguments are
// visible to the check; a false result or a failure to evaluate it is
// reported as [ErrPrecondition].
func CheckArgs(b *Builtin, args Args) error {
	if b.Check == "" {
		return nil
	}

	p, err := program(b)
	if err != nil {
		return ErrPrecondition.Detailf("%s: invalid check %q", b.Name, b.Check).Wrap(err)
	}

	env := make(map[string]any, len(args))

	for name, v := range args {
		if s, ok := scalar(v); ok {
			env[name] = s
		}
	}

	out, err := expr.Run(p, env)
	if err != nil {
		return ErrPrecondition.Detailf("%s: %s", b.Signature(), b.Check).Wrap(err).
			With(slog.String("builtin", b.Name))
	}

	if ok, _ := out.(bool); !ok {
		return ErrPrecondition.Detailf("%s: %s", b.Signature(), b.Check).
			With(slog.String("builtin", b.Name), slog.Any("args", env))
	}

	return nil
}

// scalar returns v as a value a check can compare: a float64, string, or
// bool.
func scalar(v any) (any, bool) {
	switch v := v.(type) {
	case string, bool:
		return v, true
	default:
		f, ok := toFloat(v)

		return f, ok
	}
}
