package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/imagemath/log"
)

// Evaluator walks expressions against a private environment of variables
// and user functions. An Evaluator is not safe for concurrent use; user
// function invocations and broadcast branches each build their own.
type Evaluator struct {
	dispatcher Dispatcher
	exec       ExecContext
	logger     log.Logger
	variables  map[string]any
	functions  *FunctionSet
}

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithLogger sets the logger for evaluation trace output.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithExecContext sets the execution context handed to the dispatcher and
// to user functions.
func WithExecContext(exec ExecContext) Option {
	return func(e *Evaluator) { e.exec = exec }
}

// WithFunctions makes the user functions in set callable.
func WithFunctions(set *FunctionSet) Option {
	return func(e *Evaluator) { e.functions = e.functions.Merge(set) }
}

// WithVariables seeds the environment with a copy of vars.
func WithVariables(vars map[string]any) Option {
	return func(e *Evaluator) { maps.Copy(e.variables, vars) }
}

// NewEvaluator returns an Evaluator that sends builtin calls to d.
// A nil d rejects every builtin call.
func NewEvaluator(d Dispatcher, opts ...Option) *Evaluator {
	if d == nil {
		d = DispatcherFunc(func(_ context.Context, b *Builtin, _ Args) (any, error) {
			return nil, ErrNoDispatcher
		})
	}

	e := &Evaluator{
		dispatcher: d,
		variables:  map[string]any{},
		functions:  &FunctionSet{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Variable returns the value bound to name.
func (e *Evaluator) Variable(name string) (any, bool) {
	v, ok := e.variables[name]

	return v, ok
}

// Variables returns a copy of all variable bindings.
func (e *Evaluator) Variables() map[string]any { return maps.Clone(e.variables) }

// Functions returns the user functions visible to the evaluator.
func (e *Evaluator) Functions() *FunctionSet { return e.functions }

// Evaluate computes the value of x.
//
// Literals evaluate to a float64 or string. Identifiers resolve to their
// binding. Assignments bind a non-empty name and yield the value.
// Function calls go to the builtin catalog first, then to user functions.
// The structural Script, Section, and Argument nodes evaluate their single
// child and are an error when they hold any other number.
func (e *Evaluator) Evaluate(ctx context.Context, x Expression) (any, error) {
	switch x := x.(type) {
	case *Literal:
		return x.Value()

	case *BinaryOp:
		l, err := e.Evaluate(ctx, x.Left)
		if err != nil {
			return nil, err
		}

		r, err := e.Evaluate(ctx, x.Right)
		if err != nil {
			return nil, err
		}

		return arith(x.Op, l, r)

	case *UnaryOp:
		v, err := e.Evaluate(ctx, x.Operand)
		if err != nil || x.Op != "-" {
			return v, err
		}

		return arith("-", 0.0, v)

	case *Assignment:
		v, err := e.Evaluate(ctx, x.Value)
		if err != nil {
			return nil, err
		}

		if x.Name != "" {
			e.variables[x.Name] = v
		}

		return v, nil

	case *Identifier:
		v, ok := e.variables[x.Name]
		if !ok {
			return nil, ErrUndefinedVariable.Detailf("%s", x.Name).
				With(slog.String("name", x.Name))
		}

		return v, nil

	case *FunctionCall:
		return e.call(ctx, x)

	case *Script:
		var children []Expression
		for _, s := range x.Sections {
			if !s.Function {
				children = append(children, s)
			}
		}

		return e.passthrough(ctx, "script", children)

	case *Section:
		return e.passthrough(ctx, "section "+x.Name, x.Body)

	case *Argument:
		return e.passthrough(ctx, "argument "+x.Name, []Expression{x.Value})

	default:
		return nil, ErrUnexpectedExpression.Detailf("%T", x)
	}
}

func (e *Evaluator) passthrough(ctx context.Context, what string, children []Expression) (any, error) {
	if len(children) != 1 || children[0] == nil {
		return nil, ErrUnexpectedExpression.
			Detailf("%s holds %d expressions", what, len(children))
	}

	return e.Evaluate(ctx, children[0])
}

func (e *Evaluator) call(ctx context.Context, x *FunctionCall) (any, error) {
	b, err := Lookup(x.Name)
	if err == nil {
		return e.callBuiltin(ctx, b, x.Args)
	}

	if fn, ok := e.functions.Lookup(x.Name); ok {
		return e.callUser(ctx, fn, x.Args)
	}

	return nil, err
}

func (e *Evaluator) callBuiltin(ctx context.Context, b *Builtin, exprs []Expression) (any, error) {
	args, err := e.arguments(ctx, b, exprs)
	if err != nil {
		return nil, err
	}

	if err := CheckArgs(b, args); err != nil {
		return nil, err
	}

	e.logger.TraceContext(ctx, "builtin call",
		slog.String("builtin", b.Name),
		slog.Any("params", slices.Sorted(maps.Keys(args))),
		slog.Bool("side_effect", b.SideEffect),
	)

	v, err := e.dispatcher.Call(ContextWithExec(ctx, e.exec), b, args)
	if err != nil {
		return nil, ErrBuiltin.Detailf("%s", b.Name).Wrap(err).
			With(slog.String("builtin", b.Name))
	}

	e.exec.recordShift(v)
	e.exec.broadcast(Event{Builtin: b.Name, SideEffect: b.SideEffect, Value: v})

	return v, nil
}

// arguments evaluates call arguments left to right and maps them onto b's
// parameters. Calls pass either all arguments by name or none.
func (e *Evaluator) arguments(ctx context.Context, b *Builtin, exprs []Expression) (Args, error) {
	var (
		named      Args
		positional []any
	)

	for _, x := range exprs {
		arg, isNamed := x.(*Argument)
		if (isNamed && len(positional) > 0) || (!isNamed && named != nil) {
			return nil, ErrMixedArguments.Detailf("%s", b.Signature())
		}

		if isNamed {
			v, err := e.Evaluate(ctx, arg.Value)
			if err != nil {
				return nil, err
			}

			if named == nil {
				named = Args{}
			}

			if _, dup := named[arg.Name]; dup {
				return nil, ErrDuplicateArgument.Detailf("%s: %s", b.Signature(), arg.Name)
			}

			named[arg.Name] = v

			continue
		}

		v, err := e.Evaluate(ctx, x)
		if err != nil {
			return nil, err
		}

		positional = append(positional, v)
	}

	if named != nil {
		if err := ValidateArgs(b, named); err != nil {
			return nil, err
		}

		return named, nil
	}

	return MapPositional(b, positional)
}

func (e *Evaluator) callUser(ctx context.Context, fn *UserFunction, exprs []Expression) (any, error) {
	values := make([]any, 0, len(exprs))

	for _, x := range exprs {
		if arg, ok := x.(*Argument); ok {
			return nil, ErrUnknownArgument.
				Detailf("%s takes positional arguments only, got %s", fn.Signature(), arg.Name)
		}

		v, err := e.Evaluate(ctx, x)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return fn.bind(e.dispatcher, e.logger).Prepare(e.exec).Invoke(ctx, values)
}

// EvaluateString parses one script line and evaluates it against the
// evaluator's environment.
func (e *Evaluator) EvaluateString(ctx context.Context, line string) (any, error) {
	x, err := ParseLine(line)
	if err != nil {
		return nil, err
	}

	return e.Evaluate(ctx, x)
}

// Result is the outcome of [Evaluator.Run].
type Result struct {
	// Variables holds every binding made by the script.
	Variables map[string]any
	// Outputs names the variables assigned in the outputs section, in
	// first-assignment order.
	Outputs []string
}

// Values returns the output variables, or every variable when the script
// has no outputs section.
func (r *Result) Values() map[string]any {
	if len(r.Outputs) == 0 {
		return r.Variables
	}

	out := make(map[string]any, len(r.Outputs))
	for _, name := range r.Outputs {
		out[name] = r.Variables[name]
	}

	return out
}

// Run evaluates every non-function section of s in order. Functions
// defined by s become callable, alongside any the evaluator already has.
func (e *Evaluator) Run(ctx context.Context, s *Script) (*Result, error) {
	e.functions = e.functions.Merge(s.Functions())

	res := &Result{}

	for _, sec := range s.Sections {
		if sec.Function {
			continue
		}

		for _, x := range sec.Body {
			if _, err := e.Evaluate(ctx, x); err != nil {
				return nil, WrapError(err).With(
					slog.String("section", sec.Name),
					slog.String("expression", x.String()),
				)
			}

			a, ok := x.(*Assignment)
			if ok && sec.Name == OutputsSection && a.Name != "" &&
				!slices.Contains(res.Outputs, a.Name) {
				res.Outputs = append(res.Outputs, a.Name)
			}
		}
	}

	res.Variables = e.Variables()

	e.logger.DebugContext(ctx, "script complete",
		slog.Int("variables", len(res.Variables)),
		slog.Int("outputs", len(res.Outputs)),
	)

	return res, nil
}
