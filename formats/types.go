package formats

import (
	"fmt"
	"io"
	"sort"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// Table is the input of a renderer: exported rows plus the column order
// they should be shown in.
type Table struct {
	Name    string
	Columns []string
	Rows    []nanomodel.Data
}

// NewTable exports rows of m with the id column first, then the declared
// fields in order.
func NewTable(m *nanomodel.Model, rows []*nanomodel.Row) Table {
	columns := append([]string{nanomodel.IDField}, m.Fields().Names()...)
	data := make([]nanomodel.Data, len(rows))
	for i, row := range rows {
		data[i] = row.Export()
	}
	return Table{Name: m.Name(), Columns: columns, Rows: data}
}

// RowFormat defines how a table of rows is written out
type RowFormat struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".json")
	Extension string

	// Render writes the table to w
	Render func(w io.Writer, table Table) error
}

// registry holds all available row formats
var registry = make(map[string]*RowFormat)

// Register adds a new row format to the registry
func Register(format *RowFormat) error {
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}
	if format.Render == nil {
		return fmt.Errorf("format %q has no renderer", format.Name)
	}
	if format.Extension != "" && format.Extension[0] != '.' {
		format.Extension = "." + format.Extension
	}
	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}
	registry[format.Name] = format
	return nil
}

// Get returns a row format by name
func Get(name string) (*RowFormat, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, List())
	}
	return format, nil
}

// List returns all registered format names, sorted
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func init() {
	for _, f := range []*RowFormat{JSON, YAML, TableText, Markdown, PlainText} {
		if err := Register(f); err != nil {
			panic(err)
		}
	}
}
