package formats

import (
	"fmt"
	"io"
	"strings"
)

// plainEscaper keeps one row per line and one value per column
var plainEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// PlainText writes one tab-separated line per row, columns in order, with no
// header or footer. nil values are empty.
var PlainText = &RowFormat{
	Name:      "plain",
	Extension: ".tsv",
	Render: func(w io.Writer, table Table) error {
		for _, row := range table.Rows {
			cells := make([]string, len(table.Columns))
			for i, c := range table.Columns {
				cells[i] = plainEscaper.Replace(formatValue(row[c]))
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
				return err
			}
		}
		return nil
	},
}
