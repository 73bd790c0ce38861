package lang

import (
	"context"
	"sync"
	"testing"
	"time"
)

// image stands in for a dispatcher image taken at a pixel shift.
type image struct {
	shift float64
}

func (i image) PixelShift() (float64, bool) { return i.shift, true }

// fakeDispatcher records calls and implements a handful of builtins:
// IMG returns an image (or asks the ExecContext's supplier), AVG averages
// numbers, LIST returns its list, BLUR returns its img argument after an
// optional delay, and everything else echoes its arguments.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string

	delay func(Args) time.Duration
	fail  map[string]error
}

func (d *fakeDispatcher) Call(ctx context.Context, b *Builtin, args Args) (any, error) {
	d.mu.Lock()
	d.calls = append(d.calls, b.Name)
	d.mu.Unlock()

	if err := d.fail[b.Name]; err != nil {
		return nil, err
	}

	switch b.Name {
	case "IMG":
		ch, _ := toFloat(args["ch"])
		if exec, ok := ExecContextFrom(ctx); ok && exec.Images != nil {
			return exec.Images(ctx, ch)
		}

		return image{shift: ch}, nil

	case "AVG":
		list, _ := args[SpreadParam].([]any)
		sum := 0.0

		for _, v := range list {
			f, _ := toFloat(v)
			sum += f
		}

		return sum / float64(len(list)), nil

	case "LIST":
		return args[SpreadParam], nil

	case "BLUR":
		if d.delay != nil {
			select {
			case <-time.After(d.delay(args)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return args["img"], nil

	default:
		return args, nil
	}
}

func (d *fakeDispatcher) called() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.calls...)
}

func mustParseScript(t *testing.T, src string) *Script {
	t.Helper()

	s, err := ParseScript(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return s
}

func mustParse(t *testing.T, src string) Expression {
	t.Helper()

	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}

	x, err := Parse(tokens)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return x
}

func evalString(t *testing.T, e *Evaluator, src string) any {
	t.Helper()

	v, err := e.EvaluateString(t.Context(), src)
	if err != nil {
		t.Fatalf("evaluate %q: %v", src, err)
	}

	return v
}
