package formats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// JSON writes the rows as an indented JSON array
var JSON = &RowFormat{
	Name:      "json",
	Extension: ".json",
	Render: func(w io.Writer, table Table) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ordered(table))
	},
}

// YAML writes the rows as a YAML sequence of mappings
var YAML = &RowFormat{
	Name:      "yaml",
	Extension: ".yaml",
	Render: func(w io.Writer, table Table) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ordered(table)); err != nil {
			return err
		}
		return enc.Close()
	},
}

// orderedRow encodes a row with its keys in column order.
type orderedRow struct {
	columns []string
	data    nanomodel.Data
}

func ordered(table Table) []orderedRow {
	out := make([]orderedRow, len(table.Rows))
	for i, row := range table.Rows {
		out[i] = orderedRow{columns: table.Columns, data: row}
	}
	return out
}

func (r orderedRow) keys() []string {
	keys := make([]string, 0, len(r.data))
	seen := make(map[string]bool, len(r.columns))
	for _, c := range r.columns {
		if _, ok := r.data[c]; ok {
			keys = append(keys, c)
			seen[c] = true
		}
	}
	for k := range r.data {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.data[k])
		if err != nil {
			return nil, err
		}
		buf = append(append(append(buf, key...), ':'), value...)
	}
	return append(buf, '}'), nil
}

func (r orderedRow) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range r.keys() {
		value := &yaml.Node{}
		if err := value.Encode(r.data[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, value)
	}
	return node, nil
}
