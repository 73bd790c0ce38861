package lang

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/imagemath/log"
)

// ResultVariable is the variable a user function body binds to return a
// value.
const ResultVariable = "result"

// UserFunction is a named, fixed-arity function defined by a script's
// function section.
//
// The parsed body is shared, read-only, between every copy of a function;
// [UserFunction.Prepare] rebinds a copy to another [ExecContext] without
// parsing again.
type UserFunction struct {
	name     string
	params   []string
	body     []Expression
	siblings *FunctionSet

	exec       ExecContext
	dispatcher Dispatcher
	logger     log.Logger
}

// NewUserFunction returns a function with its own single-entry
// [FunctionSet].
func NewUserFunction(name string, params []string, body []Expression) *UserFunction {
	set := &FunctionSet{fns: map[string]*UserFunction{}}
	fn := &UserFunction{name: name, params: params, body: body, siblings: set}
	set.fns[name] = fn

	return fn
}

// Name returns the function's name.
func (u *UserFunction) Name() string { return u.name }

// Params returns the declared parameter names.
func (u *UserFunction) Params() []string { return slices.Clone(u.params) }

// Arity returns the number of declared parameters.
func (u *UserFunction) Arity() int { return len(u.params) }

// Body returns the function's expressions.
func (u *UserFunction) Body() []Expression { return slices.Clone(u.body) }

// Signature renders the call shape, e.g. "limb(img, angle)".
func (u *UserFunction) Signature() string {
	return u.name + "(" + strings.Join(u.params, ", ") + ")"
}

// Prepare returns a copy of u bound to exec. The copy shares u's body and
// sibling functions.
func (u *UserFunction) Prepare(exec ExecContext) *UserFunction {
	c := *u
	c.exec = exec

	return &c
}

// WithDispatcher returns a copy of u whose body sends builtin calls to d.
func (u *UserFunction) WithDispatcher(d Dispatcher) *UserFunction {
	return u.bind(d, u.logger)
}

func (u *UserFunction) bind(d Dispatcher, logger log.Logger) *UserFunction {
	c := *u
	c.dispatcher = d
	c.logger = logger

	return &c
}

// Invoke calls the function with args.
//
// If the first argument is a list the function is applied to each element
// in parallel, holding the remaining arguments fixed, and the results are
// returned as a list in input order. Nested lists broadcast recursively.
//
// Otherwise the body runs against a fresh environment holding only the
// parameters. Every failing body expression is reported, and the body must
// bind [ResultVariable]. Pixel shifts recorded while running reach the
// ExecContext's Shifts only when the invocation succeeds.
func (u *UserFunction) Invoke(ctx context.Context, args []any) (any, error) {
	if len(args) != len(u.params) {
		return nil, ErrArity.
			Detailf("%s called with %d arguments", u.Signature(), len(args)).
			With(slog.String("function", u.name), slog.Int("count", len(args)))
	}

	if len(args) > 0 {
		if list, ok := args[0].([]any); ok {
			return u.broadcast(ctx, list, args[1:])
		}
	}

	return u.invoke(ctx, args)
}

func (u *UserFunction) broadcast(ctx context.Context, list, rest []any) (any, error) {
	u.logger.TraceContext(ctx, "broadcast",
		slog.String("function", u.name),
		slog.Int("branches", len(list)),
	)

	var (
		out  = make([]any, len(list))
		logs = make([]*ShiftLog, len(list))
	)

	g, gctx := errgroup.WithContext(ctx)

	for i, item := range list {
		logs[i] = &ShiftLog{}

		exec := u.exec
		exec.Shifts = logs[i].Record
		branch := u.Prepare(exec)

		g.Go(func() error {
			args := make([]any, 0, 1+len(rest))
			args = append(args, item)
			args = append(args, rest...)

			v, err := branch.Invoke(gctx, args)
			if err != nil {
				return err
			}

			out[i] = v

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, l := range logs {
		l.ForwardTo(u.exec.Shifts)
	}

	return out, nil
}

func (u *UserFunction) invoke(ctx context.Context, args []any) (any, error) {
	u.logger.TraceContext(ctx, "user function invoke",
		slog.String("function", u.name),
		slog.Int("args", len(args)),
	)

	local := &ShiftLog{}

	exec := u.exec
	exec.Shifts = local.Record

	vars := make(map[string]any, len(u.params))
	for i, p := range u.params {
		vars[p] = args[i]
	}

	ev := NewEvaluator(u.dispatcher,
		WithExecContext(exec),
		WithFunctions(u.siblings),
		WithLogger(u.logger),
		WithVariables(vars),
	)

	var errs []error

	for _, x := range u.body {
		if _, err := ev.Evaluate(ctx, x); err != nil {
			errs = append(errs, NewError(x.String()).Wrap(err))
		}
	}

	if len(errs) > 0 {
		return nil, ErrFunctionBody.Detailf("%s", u.Signature()).
			Wrap(errors.Join(errs...)).
			With(slog.String("function", u.name), slog.Int("failures", len(errs)))
	}

	result, ok := ev.Variable(ResultVariable)
	if !ok {
		return nil, ErrMissingResult.
			Detailf("function %s never assigns %s", u.name, ResultVariable).
			With(slog.String("function", u.name))
	}

	local.ForwardTo(u.exec.Shifts)

	return result, nil
}

// FunctionSet is an immutable set of user functions that can call one
// another.
type FunctionSet struct {
	fns map[string]*UserFunction
}

// Lookup returns the function named name. Names are case-sensitive.
func (s *FunctionSet) Lookup(name string) (*UserFunction, bool) {
	if s == nil {
		return nil, false
	}

	fn, ok := s.fns[name]

	return fn, ok
}

// Len returns the number of functions in s.
func (s *FunctionSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.fns)
}

// All returns an iterator over the functions in s sorted by name.
func (s *FunctionSet) All() iter.Seq[*UserFunction] {
	return func(yield func(*UserFunction) bool) {
		if s == nil {
			return
		}

		for _, name := range slices.Sorted(maps.Keys(s.fns)) {
			if !yield(s.fns[name]) {
				return
			}
		}
	}
}

// Merge returns a new set holding the functions of s and other, with
// other's taking precedence on name clashes. Every function in the result
// sees the whole merged set.
func (s *FunctionSet) Merge(other *FunctionSet) *FunctionSet {
	if other.Len() == 0 {
		return s
	}

	if s.Len() == 0 {
		return other
	}

	merged := &FunctionSet{fns: make(map[string]*UserFunction, s.Len()+other.Len())}

	for _, src := range []*FunctionSet{s, other} {
		for name, fn := range src.fns {
			c := *fn
			c.siblings = merged
			merged.fns[name] = &c
		}
	}

	return merged
}
