package lang

import (
	"errors"
	"testing"
)

func TestCheckArgs(t *testing.T) {
	tests := []struct {
		builtin string
		args    Args
		ok      bool
	}{
		{"ADJUST_GAMMA", Args{"img": image{}, "gamma": 0.8}, true},
		{"ADJUST_GAMMA", Args{"img": image{}, "gamma": 0.0}, false},
		{"ADJUST_GAMMA", Args{"img": image{}, "gamma": -1}, false},
		{"ADJUST_GAMMA", Args{"img": image{}, "gamma": image{}}, true},
		{"ADJUST_CONTRAST", Args{"img": image{}, "lo": 10, "hi": 200}, true},
		{"ADJUST_CONTRAST", Args{"img": image{}, "lo": 200, "hi": 10}, false},
		{"BLUR", Args{"img": image{}}, true},
		{"BLUR", Args{"img": image{}, "kernel": 0.5}, false},
		{"RANGE", Args{"from": 0, "to": 3, "step": 0}, false},
		{"SORT", Args{"images": []any{}, "order": "asc"}, true},
		{"SORT", Args{"images": []any{}, "order": "up"}, false},
		{"BLUR", Args{"img": image{}, "kernel": "wide"}, false},
		{"IMG", Args{"ch": 0}, true},
	}

	for _, tt := range tests {
		b, err := Lookup(tt.builtin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err = CheckArgs(b, tt.args)

		switch {
		case tt.ok && err != nil:
			t.Errorf("%s %v: unexpected error: %v", tt.builtin, tt.args, err)
		case !tt.ok && !errors.Is(err, ErrPrecondition):
			t.Errorf("%s %v: expected ErrPrecondition, got %v", tt.builtin, tt.args, err)
		}
	}
}

func TestScalar(t *testing.T) {
	for _, v := range []any{1, int64(2), float32(3), 4.5, "s", true} {
		if _, ok := scalar(v); !ok {
			t.Errorf("%T: expected scalar", v)
		}
	}

	for _, v := range []any{nil, image{}, []any{1}, Args{}} {
		if _, ok := scalar(v); ok {
			t.Errorf("%T: expected non-scalar", v)
		}
	}
}
