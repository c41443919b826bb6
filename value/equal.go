package value

import "math"

// Equal reports whether a and b hold the same tree, including the order of
// table keys. NaN equals NaN so that trees holding special floats compare
// equal to their round-tripped copies.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case String:
		return x == b.(String)
	case Integer:
		return x == b.(Integer)
	case Float:
		y := b.(Float)
		if math.IsNaN(float64(x)) {
			return math.IsNaN(float64(y))
		}
		return x == y && math.Signbit(float64(x)) == math.Signbit(float64(y))
	case Boolean:
		return x == b.(Boolean)
	case OffsetDateTime:
		return x == b.(OffsetDateTime)
	case LocalDateTime:
		return x == b.(LocalDateTime)
	case LocalDate:
		return x == b.(LocalDate)
	case LocalTime:
		return x == b.(LocalTime)
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Table:
		y := b.(*Table)
		if x.Len() != y.Len() {
			return false
		}
		ey := y.Entries()
		for i, e := range x.Entries() {
			f := ey[i]
			if e.Key != f.Key || !Equal(e.Value, f.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Plain converts v into ordinary Go values: map[string]any, []any, string,
// int64, float64, bool, nil for Null, time.Time for offset date-times and
// the datetime types for the local forms. Key order is lost.
func Plain(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(x)
	case Integer:
		return int64(x)
	case Float:
		return float64(x)
	case Boolean:
		return bool(x)
	case OffsetDateTime:
		return x.AsTime()
	case LocalDateTime:
		return x.LocalDateTime
	case LocalDate:
		return x.Date
	case LocalTime:
		return x.Time
	case Array:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case *Table:
		out := make(map[string]any, x.Len())
		for k, e := range x.All() {
			out[k] = Plain(e)
		}
		return out
	default:
		return nil
	}
}
