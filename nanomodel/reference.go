package nanomodel

import (
	"encoding/json"
	"fmt"
)

// Exporter is implemented by field values that serialize to something other
// than themselves.
type Exporter interface {
	Export() interface{}
}

// Reference is the value of a REF field: a foreign id plus the model it is
// resolved against. Resolution is always live, never cached.
type Reference struct {
	id     interface{}
	target *Model
}

// NewReference binds id to target.
func NewReference(id interface{}, target *Model) Reference {
	if n, ok := integral(id); ok {
		id = n
	}
	return Reference{id: id, target: target}
}

// RawID returns the stored foreign id.
func (r Reference) RawID() interface{} { return r.id }

// Target returns the model the reference resolves against.
func (r Reference) Target() *Model { return r.target }

// Resolve looks the row up in the target model. It returns nil when the
// target no longer holds a row with that id.
func (r Reference) Resolve() *Row {
	if r.target == nil || r.id == nil {
		return nil
	}
	return r.target.Get(r.id)
}

// Valid reports whether the reference currently resolves.
func (r Reference) Valid() bool {
	return r.Resolve() != nil
}

// Export returns the stored id.
func (r Reference) Export() interface{} { return r.id }

// MarshalJSON writes the stored id.
func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.id)
}

// MarshalYAML writes the stored id.
func (r Reference) MarshalYAML() (interface{}, error) {
	return r.id, nil
}

// String implements fmt.Stringer
func (r Reference) String() string {
	name := ""
	if r.target != nil {
		name = r.target.Name()
	}
	return fmt.Sprintf("Ref<%s:%v>", name, r.id)
}
