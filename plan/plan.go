// Package plan implements a dry-run [lang.Dispatcher].
//
// A Planner computes the builtins that work on plain values (lists, ranges,
// numeric reductions) and answers every image operation with a symbolic
// [Op] describing what would be done. Evaluating a script against a
// Planner therefore checks it end to end and reports which base images it
// needs without touching any pixels.
package plan

import (
	"context"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/imagemath/lang"
	"github.com/ardnew/imagemath/log"
)

// Errors returned by the Planner. The evaluator reports them wrapped in
// [lang.ErrBuiltin].
var (
	ErrInvalidValue = lang.NewError("invalid value")
	ErrEmptyInput   = lang.NewError("empty input")
	ErrRangeLimit   = lang.NewError("range too large")
)

// MaxRange bounds the number of values RANGE may produce.
const MaxRange = 1 << 16

// Planner is a [lang.Dispatcher] that plans image operations instead of
// performing them. It is safe for concurrent use.
type Planner struct {
	logger log.Logger

	mu      sync.Mutex
	workdir string
	calls   map[string]int
}

// Option configures a [Planner].
type Option func(*Planner)

// WithLogger sets the logger for planner output.
func WithLogger(logger log.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithWorkdir sets the initial working directory.
func WithWorkdir(dir string) Option {
	return func(p *Planner) { p.workdir = dir }
}

// New returns a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{calls: map[string]int{}}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Workdir returns the directory most recently set by WORKDIR.
func (p *Planner) Workdir() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.workdir
}

// Calls returns the number of calls made to each builtin.
func (p *Planner) Calls() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return maps.Clone(p.calls)
}

// Call implements [lang.Dispatcher].
func (p *Planner) Call(ctx context.Context, b *lang.Builtin, args lang.Args) (any, error) {
	p.mu.Lock()
	p.calls[b.Name]++
	p.mu.Unlock()

	exec, _ := lang.ExecContextFrom(ctx)

	switch b.Name {
	case "LIST":
		return slices.Clone(list(args)), nil

	case "CONCAT":
		return flatten(list(args)), nil

	case "RANGE":
		return numberRange(args)

	case "AVG", "MIN", "MAX", "MEDIAN":
		return reduce(b, args, exec)

	case "IMG":
		return p.image(ctx, args, exec)

	case "WORKDIR":
		dir, ok := args["dir"].(string)
		if !ok {
			return nil, ErrInvalidValue.Detailf("WORKDIR: dir must be a string, got %T", args["dir"])
		}

		p.mu.Lock()
		p.workdir = dir
		p.mu.Unlock()

		p.logger.DebugContext(ctx, "workdir", slog.String("dir", dir))

		return dir, nil

	default:
		return newOp(b, args, exec), nil
	}
}

func (p *Planner) image(ctx context.Context, args lang.Args, exec lang.ExecContext) (any, error) {
	shift, ok := number(args["ch"])
	if !ok {
		return nil, ErrInvalidValue.Detailf("IMG: pixel shift must be a number, got %T", args["ch"])
	}

	if exec.Images != nil {
		return exec.Images(ctx, shift)
	}

	return &Image{Shift: shift}, nil
}

func list(args lang.Args) []any {
	l, _ := args[lang.SpreadParam].([]any)

	return l
}

// flatten concatenates values, splicing the elements of list values.
func flatten(values []any) []any {
	out := make([]any, 0, len(values))

	for _, v := range values {
		if l, ok := v.([]any); ok {
			out = append(out, l...)
		} else {
			out = append(out, v)
		}
	}

	return out
}

func numberRange(args lang.Args) (any, error) {
	from, fok := number(args["from"])
	to, tok := number(args["to"])

	if !fok || !tok {
		return nil, ErrInvalidValue.Detailf("RANGE: bounds must be numbers")
	}

	step := 1.0
	if v, ok := args["step"]; ok {
		if step, ok = number(v); !ok {
			return nil, ErrInvalidValue.Detailf("RANGE: step must be a number, got %T", v)
		}
	}

	if step == 0 || math.IsNaN(step) {
		return nil, ErrInvalidValue.Detailf("RANGE: step must be non-zero")
	}

	n := math.Floor((to-from)/step) + 1
	if n <= 0 || math.IsNaN(n) {
		return []any{}, nil
	}

	if n > MaxRange {
		return nil, ErrRangeLimit.Detailf("RANGE: %g values exceeds %d", n, MaxRange)
	}

	out := make([]any, int(n))
	for i := range out {
		out[i] = from + float64(i)*step
	}

	return out, nil
}

// reduce computes a numeric reduction when every value is a number, and
// plans it as an image operation otherwise.
func reduce(b *lang.Builtin, args lang.Args, exec lang.ExecContext) (any, error) {
	values := flatten(list(args))
	if len(values) == 0 {
		return nil, ErrEmptyInput.Detailf("%s of no values", b.Name)
	}

	nums := make([]float64, len(values))

	for i, v := range values {
		f, ok := number(v)
		if !ok {
			return newOp(b, lang.Args{lang.SpreadParam: values}, exec), nil
		}

		nums[i] = f
	}

	switch b.Name {
	case "MIN":
		return slices.Min(nums), nil

	case "MAX":
		return slices.Max(nums), nil

	case "MEDIAN":
		slices.Sort(nums)

		mid := len(nums) / 2
		if len(nums)%2 == 1 {
			return nums[mid], nil
		}

		return (nums[mid-1] + nums[mid]) / 2, nil

	default:
		sum := 0.0
		for _, f := range nums {
			sum += f
		}

		return sum / float64(len(nums)), nil
	}
}

// tableValue looks up a default for param of builtin, preferring the
// qualified key "builtin.param" over the bare parameter name.
func tableValue(table map[string]any, builtin, param string) (any, bool) {
	if table == nil {
		return nil, false
	}

	if v, ok := table[strings.ToLower(builtin)+"."+param]; ok {
		return v, true
	}

	v, ok := table[param]

	return v, ok
}
