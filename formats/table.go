package formats

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// MaxCellWidth is the rune width after which table cells are cut.
var MaxCellWidth = 40

// TableText writes an aligned, human-readable table with title-cased headers
var TableText = &RowFormat{
	Name:      "table",
	Extension: ".txt",
	Render: func(w io.Writer, table Table) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		if _, err := fmt.Fprintln(tw, strings.Join(titles(table.Columns), "\t")); err != nil {
			return err
		}
		for _, row := range table.Rows {
			cells := make([]string, len(table.Columns))
			for i, c := range table.Columns {
				cells[i] = cell(row[c])
			}
			if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
				return err
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "(%d %s)\n", len(table.Rows), plural(len(table.Rows), "row"))
		return err
	},
}

// cell renders one value on a single line.
func cell(value interface{}) string {
	if value == nil {
		return "-"
	}
	s := strings.Join(strings.Fields(formatValue(value)), " ")
	if s == "" {
		return `""`
	}
	runes := []rune(s)
	if MaxCellWidth > 0 && len(runes) > MaxCellWidth {
		return string(runes[:MaxCellWidth-1]) + "…"
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
