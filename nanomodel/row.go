package nanomodel

import (
	"encoding/json"
	"fmt"
	"math"
)

// Data is the raw field map passed to Create and returned by Export.
type Data map[string]interface{}

// IDField is the name under which a row's identifier is exported.
const IDField = "id"

// Row is one record of a Model. Rows returned by a model are detached
// copies: Set only changes this copy, and Save (or Model.Update*) makes the
// change visible to later reads.
type Row struct {
	model  *Model
	id     int64
	values map[string]interface{}
}

func newRow(model *Model, id int64, values map[string]interface{}) *Row {
	return &Row{model: model, id: id, values: values}
}

// clone returns a detached copy sharing no map with r.
func (r *Row) clone() *Row {
	values := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return &Row{model: r.model, id: r.id, values: values}
}

// ID returns the row identifier.
func (r *Row) ID() int64 { return r.id }

// Model returns the owning model.
func (r *Row) Model() *Model { return r.model }

// Get returns the value of a field. "id" returns the row identifier.
func (r *Row) Get(key string) interface{} {
	if key == IDField {
		return r.id
	}
	return r.values[key]
}

// Has reports whether the row holds a value for key.
func (r *Row) Has(key string) bool {
	if key == IDField {
		return true
	}
	_, ok := r.values[key]
	return ok
}

// Set stores a value without coercion or persistence. Setting "id" is
// ignored: identifiers are immutable.
func (r *Row) Set(key string, value interface{}) {
	if key == IDField {
		return
	}
	r.values[key] = value
}

// Save persists the row into its model, replacing the row with the same id.
func (r *Row) Save() {
	if r.model != nil {
		r.model.Save(r)
	}
}

// Text returns a field as a string, or "" when it is not one.
func (r *Row) Text(key string) string {
	s, _ := r.Get(key).(string)
	return s
}

// Float returns a field as a float64 using the numeric cast rules.
func (r *Row) Float(key string) float64 {
	return toNumber(r.Get(key))
}

// Bool returns the truthiness of a field.
func (r *Row) Bool(key string) bool {
	return truthy(r.Get(key))
}

// Ref returns the reference stored in a REF field. Raw ids written through
// Set are bound to the field's target model.
func (r *Row) Ref(key string) (Reference, bool) {
	switch v := r.Get(key).(type) {
	case Reference:
		return v, true
	case nil:
		return Reference{}, false
	default:
		if r.model == nil {
			return Reference{}, false
		}
		ft, ok := r.model.Field(key)
		if !ok || ft.Kind() != KindRef {
			return Reference{}, false
		}
		coerced, err := ft.coerce(v, CoerceLenient)
		if err != nil {
			return Reference{}, false
		}
		ref, ok := coerced.(Reference)
		return ref, ok
	}
}

// Resolve follows a REF field to the live target row, or nil.
func (r *Row) Resolve(key string) *Row {
	ref, ok := r.Ref(key)
	if !ok {
		return nil
	}
	return ref.Resolve()
}

// Export returns the row as plain data. Values implementing Exporter are
// replaced by their export; everything else passes through.
func (r *Row) Export() Data {
	out := make(Data, len(r.values)+1)
	out[IDField] = r.id
	for k, v := range r.values {
		out[k] = exportValue(v)
	}
	return out
}

// exportValue returns the JSON-compatible form of a field value. Non-finite
// numbers have no JSON form and export as nil.
func exportValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Exporter:
		return val.Export()
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	}
	return v
}

// MarshalJSON encodes the exported row.
func (r *Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Export())
}

// String implements fmt.Stringer
func (r *Row) String() string {
	if r.model == nil {
		return "Row<>"
	}
	return fmt.Sprintf("Row<%s>", r.model.Name())
}
