package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

func coerceInt(v any) (int64, string) {
	switch n := v.(type) {
	case int:
		return int64(n), ""
	case int8:
		return int64(n), ""
	case int16:
		return int64(n), ""
	case int32:
		return int64(n), ""
	case int64:
		return n, ""
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), ""
	case uint16:
		return int64(n), ""
	case uint32:
		return int64(n), ""
	case uint64:
		return uintToInt(n)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, ""
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Sprintf("expected int, got malformed number %q", n.String())
		}
		return floatToInt(f)
	}
	return 0, fmt.Sprintf("expected int, got %s", typeName(v))
}

func uintToInt(u uint64) (int64, string) {
	if u > math.MaxInt64 {
		return 0, "expected int, got value that overflows int64"
	}
	return int64(u), ""
}

func floatToInt(f float64) (int64, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "expected int, got non-finite number"
	}
	if f != math.Trunc(f) {
		return 0, "expected int, got fractional number"
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, "expected int, got value that overflows int64"
	}
	return int64(f), ""
}

func coerceFloat(v any) (float64, string) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return intToFloat(int64(n))
	case int8:
		return float64(n), ""
	case int16:
		return float64(n), ""
	case int32:
		return float64(n), ""
	case int64:
		return intToFloat(n)
	case uint:
		return uintToFloat(uint64(n))
	case uint8:
		return float64(n), ""
	case uint16:
		return float64(n), ""
	case uint32:
		return float64(n), ""
	case uint64:
		return uintToFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intToFloat(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Sprintf("expected float, got malformed number %q", n.String())
		}
		return finite(f)
	}
	return 0, fmt.Sprintf("expected float, got %s", typeName(v))
}

func finite(f float64) (float64, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "expected float, got non-finite number"
	}
	return f, ""
}

// intToFloat accepts i only if float64 holds it exactly. Values near
// MaxInt64 round up to 2^63, which int64 cannot hold, so that case is
// rejected before converting back.
func intToFloat(i int64) (float64, string) {
	f := float64(i)
	if f >= math.MaxInt64 || int64(f) != i {
		return 0, "expected float, got integer that cannot be represented exactly"
	}
	return f, ""
}

func uintToFloat(u uint64) (float64, string) {
	f := float64(u)
	if f >= math.MaxUint64 || uint64(f) != u {
		return 0, "expected float, got integer that cannot be represented exactly"
	}
	return f, ""
}

// normalizeString applies the string policy shared by every str field.
func normalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
