package lang

import "reflect"

// toFloat widens the numeric kinds a dispatcher might return.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}

	if _, ok := v.([]any); ok {
		return "list"
	}

	if _, ok := toFloat(v); ok {
		return "number"
	}

	return reflect.TypeOf(v).String()
}

// arith applies one of + - * / to l and r.
//
// Numbers combine as float64, with division by zero yielding an infinity
// or NaN. A value implementing [Operand] takes over when either side does.
// Lists combine element by element: a scalar is applied to every element
// and two lists must have equal length.
func arith(op string, l, r any) (any, error) {
	if precedence(op) < 1 {
		return nil, ErrUnsupportedOperator.Detailf("%q", op)
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)

	if lok && rok {
		switch op {
		case "+":
			return lf + rf, nil
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		default:
			return lf / rf, nil
		}
	}

	if o, ok := l.(Operand); ok {
		return o.Apply(op, r, false)
	}

	if o, ok := r.(Operand); ok {
		return o.Apply(op, l, true)
	}

	ll, lList := l.([]any)
	rl, rList := r.([]any)

	switch {
	case lList && rList:
		if len(ll) != len(rl) {
			return nil, ErrUnsupportedOperand.
				Detailf("list lengths differ: %d %s %d", len(ll), op, len(rl))
		}

		return mapList(len(ll), func(i int) (any, error) { return arith(op, ll[i], rl[i]) })

	case lList:
		return mapList(len(ll), func(i int) (any, error) { return arith(op, ll[i], r) })

	case rList:
		return mapList(len(rl), func(i int) (any, error) { return arith(op, l, rl[i]) })
	}

	return nil, ErrUnsupportedOperand.Detailf("%s %s %s", typeName(l), op, typeName(r))
}

func mapList(n int, fn func(int) (any, error)) ([]any, error) {
	out := make([]any, n)

	for i := range out {
		v, err := fn(i)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}
