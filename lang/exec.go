package lang

import (
	"context"
	"slices"
	"sync"
)

// Args maps parameter names to evaluated argument values.
type Args map[string]any

// Dispatcher performs builtin operations on behalf of an [Evaluator].
//
// The builtin's declared parameters are the only contract Call may rely
// on: args holds exactly those names that were supplied, or the single
// [SpreadParam] for spread builtins.
type Dispatcher interface {
	Call(ctx context.Context, b *Builtin, args Args) (any, error)
}

// DispatcherFunc adapts a function to the [Dispatcher] interface.
type DispatcherFunc func(ctx context.Context, b *Builtin, args Args) (any, error)

// Call calls f(ctx, b, args).
func (f DispatcherFunc) Call(ctx context.Context, b *Builtin, args Args) (any, error) {
	return f(ctx, b, args)
}

// PixelShifter is implemented by dispatcher values derived from an image
// taken at a pixel shift. The shift is recorded through
// [ExecContext.Shifts] when such a value is returned by a builtin call.
type PixelShifter interface {
	PixelShift() (float64, bool)
}

// Operand is implemented by dispatcher values that define arithmetic.
// reversed is true when the receiver is the right-hand operand.
type Operand interface {
	Apply(op string, other any, reversed bool) (any, error)
}

// ImageSupplier returns the base image captured at the given pixel shift.
type ImageSupplier func(ctx context.Context, shift float64) (any, error)

// Event describes a completed builtin call.
type Event struct {
	Builtin    string
	SideEffect bool
	Value      any
}

// ExecContext is the capsule of collaborators a script is evaluated
// against. It is read-only during evaluation; Shifts must be safe for
// concurrent use because broadcast branches call it in parallel.
type ExecContext struct {
	Images    ImageSupplier
	Table     map[string]any
	Shifts    func(float64)
	Broadcast func(Event)
}

type execContextKey struct{}

// ContextWithExec returns a copy of ctx carrying exec.
// Evaluators attach their ExecContext to the context passed to
// [Dispatcher.Call].
func ContextWithExec(ctx context.Context, exec ExecContext) context.Context {
	return context.WithValue(ctx, execContextKey{}, exec)
}

// ExecContextFrom returns the ExecContext carried by ctx, if any.
func ExecContextFrom(ctx context.Context) (ExecContext, bool) {
	exec, ok := ctx.Value(execContextKey{}).(ExecContext)

	return exec, ok
}

func (x ExecContext) recordShift(v any) {
	if x.Shifts == nil {
		return
	}

	if ps, ok := v.(PixelShifter); ok {
		if shift, ok := ps.PixelShift(); ok {
			x.Shifts(shift)
		}
	}
}

func (x ExecContext) broadcast(e Event) {
	if x.Broadcast != nil {
		x.Broadcast(e)
	}
}

// ShiftLog is an append-only, concurrency-safe collector of pixel shifts.
// Its Record method is suitable as [ExecContext.Shifts].
type ShiftLog struct {
	mu     sync.Mutex
	shifts []float64
}

// Record appends shift.
func (l *ShiftLog) Record(shift float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.shifts = append(l.shifts, shift)
}

// Values returns the recorded shifts in recording order.
func (l *ShiftLog) Values() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.shifts)
}

// Distinct returns the recorded shifts sorted with duplicates removed.
func (l *ShiftLog) Distinct() []float64 {
	v := l.Values()
	slices.Sort(v)

	return slices.Compact(v)
}

// ForwardTo calls fn once for each recorded shift, in recording order.
func (l *ShiftLog) ForwardTo(fn func(float64)) {
	if fn == nil {
		return
	}

	for _, s := range l.Values() {
		fn(s)
	}
}
