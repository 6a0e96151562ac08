package normalize

// Scalar unit conversions from provider-native units to output units.
func GramsToKg(g float64) float64        { return g / 1000.0 }
func MetersToKm(m float64) float64       { return m / 1000.0 }
func SecondsToMinutes(s float64) float64 { return s / 60.0 }

// Convert applies fn when v is numeric. A missing or non-numeric value stays
// absent; it is never defaulted to zero.
func Convert(v any, fn func(float64) float64) any {
	f, ok := AsFloat(v)
	if !ok {
		return nil
	}
	return fn(f)
}

// AsFloat extracts a numeric value. Decoded JSON numbers arrive as float64;
// ints show up from locally computed values.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Truthy mirrors the provider payloads' loose presence conventions: nil,
// false, numeric zero, empty strings, and empty containers all count as
// absent. Fallback chains advance past such values.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		if f, ok := AsFloat(v); ok {
			return f != 0
		}
		return true
	}
}

// Coalesce returns the first truthy value, or nil when none is.
func Coalesce(vals ...any) any {
	for _, v := range vals {
		if Truthy(v) {
			return v
		}
	}
	return nil
}

// TruthyNumber returns v as a number when it is numeric and non-zero.
func TruthyNumber(v any) (float64, bool) {
	f, ok := AsFloat(v)
	if !ok || f == 0 {
		return 0, false
	}
	return f, true
}

// IntOrZero returns a truthy numeric value as int, else 0.
func IntOrZero(v any) int {
	f, ok := TruthyNumber(v)
	if !ok {
		return 0
	}
	return int(f)
}

// Dig walks nested maps by key, returning nil as soon as a step is missing
// or not a map.
func Dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = node[k]
	}
	return cur
}
