package formats

import (
	"fmt"
	"io"
	"strings"
)

// markdownEscaper keeps cell text on one line and out of the column syntax
var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

// Markdown writes the rows as a pipe table under a level-one heading naming
// the collection
var Markdown = &RowFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(w io.Writer, table Table) error {
		var b strings.Builder
		if table.Name != "" {
			fmt.Fprintf(&b, "# %s\n\n", table.Name)
		}

		writeMarkdownRow(&b, titles(table.Columns))
		separators := make([]string, len(table.Columns))
		for i := range separators {
			separators[i] = "---"
		}
		writeMarkdownRow(&b, separators)

		for _, row := range table.Rows {
			cells := make([]string, len(table.Columns))
			for i, c := range table.Columns {
				cells[i] = markdownEscaper.Replace(formatValue(row[c]))
			}
			writeMarkdownRow(&b, cells)
		}

		_, err := io.WriteString(w, b.String())
		return err
	},
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
