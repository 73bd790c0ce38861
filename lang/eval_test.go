package lang

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"sync"
	"testing"
)

// scaled is a dispatcher value with arithmetic that tracks operand order.
type scaled struct {
	v   float64
	ops []string
}

func (s scaled) Apply(op string, other any, reversed bool) (any, error) {
	f, ok := toFloat(other)
	if !ok {
		return nil, ErrUnsupportedOperand.Detailf("scaled %s %T", op, other)
	}

	tag := op
	if reversed {
		tag = "r" + op
	}

	v, err := arith(op, s.v, f)
	if reversed {
		v, err = arith(op, f, s.v)
	}

	if err != nil {
		return nil, err
	}

	return scaled{v: v.(float64), ops: append(slices.Clone(s.ops), tag)}, nil //nolint:forcetypeassert
}

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10-4-3", 3},
		{"12/3/2", 2},
		{"-3*2", -6},
		{"--4", 4},
		{"2*-(1+1)", -4},
		{"0.5+.25", 0.75},
		{"avg(1, 2, 3, 6)", 3},
		{"avg((1+2)*2, 0)", 3},
	}

	ev := NewEvaluator(&fakeDispatcher{})

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := evalString(t, ev, tt.input); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	ev := NewEvaluator(&fakeDispatcher{})

	if got, _ := evalString(t, ev, "1/0").(float64); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %v", got)
	}

	if got, _ := evalString(t, ev, "0/0").(float64); !math.IsNaN(got) {
		t.Errorf("expected NaN, got %v", got)
	}
}

func TestEvaluate_Strings(t *testing.T) {
	ev := NewEvaluator(&fakeDispatcher{})

	if got := evalString(t, ev, `"12"`); got != "12" {
		t.Errorf("expected quoted literal to stay a string, got %#v", got)
	}

	_, err := ev.EvaluateString(t.Context(), `"a" + 1`)
	if !errors.Is(err, ErrUnsupportedOperand) {
		t.Fatalf("expected ErrUnsupportedOperand, got %v", err)
	}

	if !strings.Contains(err.Error(), "string + number") {
		t.Errorf("expected operand types in %q", err)
	}
}

func TestEvaluate_Variables(t *testing.T) {
	ev := NewEvaluator(&fakeDispatcher{}, WithVariables(map[string]any{"k": 2.0}))

	if got := evalString(t, ev, "x = k * 3"); got != 6.0 {
		t.Errorf("expected 6, got %v", got)
	}

	if got := evalString(t, ev, "x + 1"); got != 7.0 {
		t.Errorf("expected 7, got %v", got)
	}

	if v, ok := ev.Variable("x"); !ok || v != 6.0 {
		t.Errorf("expected x bound to 6, got %v, %v", v, ok)
	}

	_, err := ev.EvaluateString(t.Context(), "y + 1")
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}

	if _, ok := ev.Variable("y"); ok {
		t.Error("expected y to stay unbound")
	}
}

func TestEvaluate_Lists(t *testing.T) {
	ev := NewEvaluator(&fakeDispatcher{})

	got, _ := evalString(t, ev, "list(1, 2, 3) * 2").([]any)
	if !slices.Equal(got, []any{2.0, 4.0, 6.0}) {
		t.Errorf("expected [2 4 6], got %v", got)
	}

	got, _ = evalString(t, ev, "10 - list(1, 2)").([]any)
	if !slices.Equal(got, []any{9.0, 8.0}) {
		t.Errorf("expected [9 8], got %v", got)
	}

	got, _ = evalString(t, ev, "list(1, 2) + list(10, 20)").([]any)
	if !slices.Equal(got, []any{11.0, 22.0}) {
		t.Errorf("expected [11 22], got %v", got)
	}

	if _, err := ev.EvaluateString(t.Context(), "list(1, 2) + list(1)"); !errors.Is(err, ErrUnsupportedOperand) {
		t.Errorf("expected ErrUnsupportedOperand, got %v", err)
	}
}

func TestEvaluate_Operand(t *testing.T) {
	ev := NewEvaluator(&fakeDispatcher{}, WithVariables(map[string]any{"s": scaled{v: 4}}))

	got, ok := evalString(t, ev, "s * 2 - 1").(scaled)
	if !ok || got.v != 7 || !slices.Equal(got.ops, []string{"*", "-"}) {
		t.Errorf("expected 7 via [* -], got %+v", got)
	}

	got, ok = evalString(t, ev, "1 - s").(scaled)
	if !ok || got.v != -3 || !slices.Equal(got.ops, []string{"r-"}) {
		t.Errorf("expected -3 via [r-], got %+v", got)
	}

	got, ok = evalString(t, ev, "-s").(scaled)
	if !ok || got.v != -4 {
		t.Errorf("expected -4, got %+v", got)
	}
}

func TestEvaluate_Calls(t *testing.T) {
	tests := []struct {
		input    string
		sentinel error
	}{
		{"nope(1)", ErrUnknownFunction},
		{"blur()", ErrArgumentCount},
		{"blur(1, 2, 3)", ErrArgumentCount},
		{"blur(img(1), kernel=3)", ErrMixedArguments},
		{"blur(kernel=3, img(1))", ErrMixedArguments},
		{"blur(img=1, img=2)", ErrDuplicateArgument},
		{"blur(img=1, size=2)", ErrUnknownArgument},
		{"blur(kernel=3)", ErrMissingArgument},
		{"blur(img(1), 0)", ErrPrecondition},
		{"blur(img(1), missing)", ErrUndefinedVariable},
		{`colorize(img=1, rIn=1, profile="h")`, ErrOverload},
		{"colorize(img=1, rIn=1)", ErrOverload},
		{"avg(foo=1)", ErrUnknownArgument},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewEvaluator(&fakeDispatcher{}).EvaluateString(t.Context(), tt.input)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
		})
	}
}

func TestEvaluate_NamedArguments(t *testing.T) {
	d := &fakeDispatcher{}
	ev := NewEvaluator(d)

	got := evalString(t, ev, "BLUR(kernel=3, img=img(2))")
	if got != (image{shift: 2}) {
		t.Errorf("expected image at 2, got %v", got)
	}

	if calls := d.called(); !slices.Equal(calls, []string{"IMG", "BLUR"}) {
		t.Errorf("expected [IMG BLUR], got %v", calls)
	}

	args, _ := evalString(t, ev, "rotate_deg(angle=1, img=0)").(Args)
	if _, ok := args["bg"]; ok || len(args) != 2 {
		t.Errorf("expected omitted optional parameter to stay absent, got %v", args)
	}
}

func TestEvaluate_DispatcherFailure(t *testing.T) {
	cause := errors.New("disk full")
	ev := NewEvaluator(&fakeDispatcher{fail: map[string]error{"BLUR": cause}})

	_, err := ev.EvaluateString(t.Context(), "blur(img(0))")
	if !errors.Is(err, ErrBuiltin) || !errors.Is(err, cause) {
		t.Errorf("expected ErrBuiltin wrapping cause, got %v", err)
	}

	_, err = NewEvaluator(nil).EvaluateString(t.Context(), "img(0)")
	if !errors.Is(err, ErrBuiltin) || !errors.Is(err, ErrNoDispatcher) {
		t.Fatalf("expected ErrBuiltin without dispatcher, got %v", err)
	}

	if expected := "builtin failed: IMG: no dispatcher"; err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err)
	}
}

func TestEvaluate_ExecContext(t *testing.T) {
	var (
		shifts ShiftLog
		mu     sync.Mutex
		events []Event
	)

	exec := ExecContext{
		Images: func(_ context.Context, shift float64) (any, error) {
			return image{shift: shift * 10}, nil
		},
		Shifts: shifts.Record,
		Broadcast: func(e Event) {
			mu.Lock()
			defer mu.Unlock()

			events = append(events, e)
		},
	}

	ev := NewEvaluator(&fakeDispatcher{}, WithExecContext(exec))

	evalString(t, ev, "a = img(1)")
	evalString(t, ev, "b = blur(a)")
	evalString(t, ev, "workdir(\"out\")")

	if got := shifts.Values(); !slices.Equal(got, []float64{10, 10}) {
		t.Errorf("expected shifts [10 10], got %v", got)
	}

	if got := shifts.Distinct(); !slices.Equal(got, []float64{10}) {
		t.Errorf("expected distinct shifts [10], got %v", got)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	if events[0].Builtin != "IMG" || events[0].SideEffect {
		t.Errorf("expected pure IMG event, got %+v", events[0])
	}

	if events[2].Builtin != "WORKDIR" || !events[2].SideEffect {
		t.Errorf("expected WORKDIR side effect, got %+v", events[2])
	}
}

func TestEvaluate_Passthrough(t *testing.T) {
	ev := NewEvaluator(&fakeDispatcher{})

	one := &Section{Name: "s", Body: []Expression{&Literal{Text: "5"}}}
	if got, err := ev.Evaluate(t.Context(), one); err != nil || got != 5.0 {
		t.Errorf("expected 5, got %v, %v", got, err)
	}

	if got, err := ev.Evaluate(t.Context(), &Script{Sections: []*Section{one}}); err != nil || got != 5.0 {
		t.Errorf("expected 5, got %v, %v", got, err)
	}

	arg := &Argument{Name: "a", Value: &Literal{Text: "2"}}
	if got, err := ev.Evaluate(t.Context(), arg); err != nil || got != 2.0 {
		t.Errorf("expected 2, got %v, %v", got, err)
	}

	two := &Section{Name: "s", Body: []Expression{&Literal{Text: "1"}, &Literal{Text: "2"}}}
	if _, err := ev.Evaluate(t.Context(), two); !errors.Is(err, ErrUnexpectedExpression) {
		t.Errorf("expected ErrUnexpectedExpression, got %v", err)
	}

	if _, err := ev.Evaluate(t.Context(), &Section{}); !errors.Is(err, ErrUnexpectedExpression) {
		t.Errorf("expected ErrUnexpectedExpression, got %v", err)
	}

	if _, err := ev.Evaluate(t.Context(), &arityNode{}); !errors.Is(err, ErrUnexpectedExpression) {
		t.Errorf("expected ErrUnexpectedExpression, got %v", err)
	}
}

func TestEvaluator_Run(t *testing.T) {
	s := mustParseScript(t, `
# pixel shifts
[params]
shift = 2

[fun:twice x]
result = x * 2

[outputs]
a = img(shift)
b = twice(shift)
a = img(0)
`)

	var shifts ShiftLog

	ev := NewEvaluator(&fakeDispatcher{}, WithExecContext(ExecContext{Shifts: shifts.Record}))

	res, err := ev.Run(t.Context(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(res.Outputs, []string{"a", "b"}) {
		t.Errorf("expected outputs [a b], got %v", res.Outputs)
	}

	values := res.Values()
	if len(values) != 2 || values["a"] != (image{}) || values["b"] != 4.0 {
		t.Errorf("unexpected values %v", values)
	}

	if res.Variables["shift"] != 2.0 {
		t.Errorf("expected shift in variables, got %v", res.Variables)
	}

	if got := shifts.Values(); !slices.Equal(got, []float64{2, 0}) {
		t.Errorf("expected shifts [2 0], got %v", got)
	}
}

func TestEvaluator_RunError(t *testing.T) {
	s := mustParseScript(t, "[outputs]\na = 1\nb = c + 1\n")

	_, err := NewEvaluator(&fakeDispatcher{}).Run(t.Context(), s)
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected ErrUndefinedVariable, got %v", err)
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	found := false

	for _, a := range e.attrs {
		if a.Key == "expression" && a.Value.String() == "b = c + 1" {
			found = true
		}
	}

	if !found {
		t.Errorf("expected expression attribute, got %v", e.attrs)
	}
}

func TestResult_ValuesWithoutOutputs(t *testing.T) {
	s := mustParseScript(t, "x = 1\ny = x + 1\n")

	res, err := NewEvaluator(&fakeDispatcher{}).Run(t.Context(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := res.Values(); len(got) != 2 || got["y"] != 2.0 {
		t.Errorf("expected all variables, got %v", got)
	}
}
