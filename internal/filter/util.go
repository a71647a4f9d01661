package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// valueToString converts a stored value to the text it is compared as.
// Numbers use the shortest representation so 10.0 matches "10", and
// references compare by their raw id.
func valueToString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nanomodel.Reference:
		return valueToString(v.RawID())
	default:
		return fmt.Sprintf("%v", value)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// normalize rewrites a filter value into the text a stored value of kind
// would produce, so "1.0" matches a stored 1 and "yes" a stored true.
func normalize(value string, kind nanomodel.Kind) string {
	switch kind {
	case nanomodel.KindNumber, nanomodel.KindID, nanomodel.KindRef:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return formatFloat(f)
		}
	case nanomodel.KindBoolean:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "t", "true", "yes", "y", "on":
			return "true"
		case "0", "f", "false", "no", "n", "off", "":
			return "false"
		}
	}
	return value
}

// compare orders a stored value against a bound. Numeric kinds compare
// numerically, everything else as text. ok is false when the stored value
// cannot be compared.
func compare(stored interface{}, bound string, kind nanomodel.Kind) (int, bool) {
	switch kind {
	case nanomodel.KindNumber, nanomodel.KindID, nanomodel.KindRef:
		a, err := strconv.ParseFloat(valueToString(stored), 64)
		if err != nil || math.IsNaN(a) {
			return 0, false
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(bound), 64)
		if err != nil {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}
	if stored == nil {
		return 0, false
	}
	return strings.Compare(valueToString(stored), bound), true
}
