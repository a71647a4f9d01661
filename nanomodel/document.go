package nanomodel

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the JSON-compatible schema+data form of a Model:
//
//	{"name": ..., "fields": {field: {"name", "args", "defaultValue"}}, "data": [...]}
type Document struct {
	Name   string            `json:"name" yaml:"name"`
	Fields FieldDescriptions `json:"fields" yaml:"fields"`
	Data   []Data            `json:"data" yaml:"data"`
}

// NamedDescription pairs a field name with its description.
type NamedDescription struct {
	Field       string
	Description FieldDescription
}

// FieldDescriptions is an ordered field-name → description map. It encodes
// as a JSON/YAML object and keeps key order in both directions.
type FieldDescriptions []NamedDescription

// Lookup returns the description of a field.
func (f FieldDescriptions) Lookup(field string) (FieldDescription, bool) {
	for _, nd := range f {
		if nd.Field == field {
			return nd.Description, true
		}
	}
	return FieldDescription{}, false
}

// MarshalJSON writes the descriptions as an object in field order.
func (f FieldDescriptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nd := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nd.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		desc, err := json.Marshal(nd.Description)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", nd.Field, err)
		}
		buf.Write(desc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the order of its keys.
func (f *FieldDescriptions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: fields must be an object", ErrInvalidDocument)
	}

	out := FieldDescriptions{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: field name must be a string", ErrInvalidDocument)
		}
		var desc FieldDescription
		if err := dec.Decode(&desc); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out = append(out, NamedDescription{Field: key, Description: desc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// MarshalYAML writes the descriptions as a mapping in field order.
func (f FieldDescriptions) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, nd := range f {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: nd.Field}
		value := &yaml.Node{}
		if err := value.Encode(nd.Description); err != nil {
			return nil, fmt.Errorf("field %q: %w", nd.Field, err)
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping, keeping the order of its keys.
func (f *FieldDescriptions) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*f = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: fields must be a mapping (line %d)", ErrInvalidDocument, value.Line)
	}
	out := make(FieldDescriptions, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		var desc FieldDescription
		if err := value.Content[i+1].Decode(&desc); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out = append(out, NamedDescription{Field: key, Description: desc})
	}
	*f = out
	return nil
}

// Serialize returns the model's schema and rows as a Document.
func (m *Model) Serialize() Document {
	fields := make(FieldDescriptions, len(m.fields))
	for i, f := range m.fields {
		fields[i] = NamedDescription{Field: f.Name, Description: f.Type.Describe()}
	}
	data := make([]Data, len(m.rows))
	for i, row := range m.rows {
		data[i] = row.Export()
	}
	return Document{Name: m.name, Fields: fields, Data: data}
}

// MarshalJSON encodes the model as its Document.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Serialize())
}

// MarshalYAML encodes the model as its Document.
func (m *Model) MarshalYAML() (interface{}, error) {
	return m.Serialize(), nil
}

// Deserialize rebuilds a model from a Document. Every field type is
// reconstructed through FieldDescription.Build using bindings, and every row
// goes through the same coercion as Create. A REF field naming the
// document's own model binds to the model being built when bindings do not
// say otherwise. Unknown type names and missing bindings fail before any
// row is built.
func Deserialize(doc Document, bindings Bindings, opts ...Option) (*Model, error) {
	m := New(doc.Name, nil, opts...)

	scope := make(Bindings, len(bindings)+1)
	for k, v := range bindings {
		scope[k] = v
	}
	if _, ok := scope[doc.Name]; !ok && doc.Name != "" {
		scope[doc.Name] = m
	}

	fields := make(Fields, 0, len(doc.Fields))
	seen := make(map[string]bool, len(doc.Fields))
	for _, nd := range doc.Fields {
		if seen[nd.Field] {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidDocument, doc.Name, nd.Field)
		}
		seen[nd.Field] = true
		ft, err := nd.Description.Build(scope)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", doc.Name, nd.Field, err)
		}
		fields = append(fields, Field{Name: nd.Field, Type: ft})
	}
	m.declare(fields)

	for i, data := range doc.Data {
		row, err := m.build(data)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", doc.Name, i, err)
		}
		m.rows = append(m.rows, row)
	}
	m.logger.Debug("model deserialized", "model", m.name, "fields", len(m.fields), "rows", len(m.rows))
	return m, nil
}

// FromJSON decodes a JSON Document and deserializes it.
func FromJSON(data []byte, bindings Bindings, opts ...Option) (*Model, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}
	return Deserialize(doc, bindings, opts...)
}

// FromYAML decodes a YAML Document and deserializes it.
func FromYAML(data []byte, bindings Bindings, opts ...Option) (*Model, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML document: %w", err)
	}
	return Deserialize(doc, bindings, opts...)
}
