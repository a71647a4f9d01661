package nanomodel

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoercionPolicy decides what happens when a value cannot be converted to its
// field type.
type CoercionPolicy int

const (
	// CoerceLenient stores a sentinel for unconvertible input (NaN for
	// numbers) and never fails.
	CoerceLenient CoercionPolicy = iota
	// CoerceStrict rejects unconvertible input with ErrCoercion.
	CoerceStrict
)

// String returns the string representation of the CoercionPolicy
func (p CoercionPolicy) String() string {
	switch p {
	case CoerceLenient:
		return "lenient"
	case CoerceStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// toNumber converts a value following the rules of a dynamic numeric cast:
// nil is 0, booleans are 0 or 1, strings are parsed after trimming (the empty
// string is 0) and anything unparseable becomes NaN.
func toNumber(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		return parseNumber(string(v))
	case string:
		return parseNumber(v)
	default:
		return math.NaN()
	}
}

// parseNumber parses numeric text. Go-only syntax that strconv would accept
// (digit separators, "inf", "nan", hex floats) is rejected.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.ContainsRune(s, '_') {
		return math.NaN()
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "x") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// truthy reports whether a value counts as true in a boolean cast.
func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case *Row:
		return v != nil
	case Reference:
		return true
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n := toNumber(v)
		return n != 0 && !math.IsNaN(n)
	default:
		return true
	}
}

// integral returns the int64 form of an integral Go number.
func integral(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return floatID(float64(v))
	case float64:
		return floatID(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return floatID(f)
		}
	}
	return 0, false
}

func floatID(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// looseID converts anything that loosely equals an integer identifier,
// including numeric strings, rows and references.
func looseID(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case string:
		return floatID(parseNumber(v))
	case *Row:
		if v == nil {
			return 0, false
		}
		return v.id, true
	case Reference:
		return looseID(v.id)
	}
	return integral(value)
}

// describeValue renders a value for error messages.
func describeValue(value interface{}) string {
	if s, ok := value.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", value)
}
