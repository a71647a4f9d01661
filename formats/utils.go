package formats

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// formatValue converts a cell value to its text form. nil is empty.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// titles returns the column names title-cased for headers
func titles(columns []string) []string {
	caser := cases.Title(language.Und)
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = caser.String(c)
	}
	return out
}
