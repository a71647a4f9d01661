// Package nanomodel is an embedded, in-process tabular store. A Model is a
// schema-bound collection of Rows: it assigns identifiers, coerces input
// through each field's type, answers chainable queries, and round-trips its
// schema and data through a JSON-compatible Document.
//
// Basic usage:
//
//	users := nanomodel.New("User", nanomodel.Fields{
//	    {Name: "name", Type: nanomodel.String()},
//	    {Name: "bio", Type: nanomodel.String().WithDefault("No bio provided.")},
//	})
//	posts := nanomodel.New("Post", nanomodel.Fields{
//	    {Name: "title", Type: nanomodel.String()},
//	    {Name: "author", Type: nanomodel.Ref(users)},
//	})
//
//	john, _ := users.Create(nanomodel.Data{"name": "John"})
//	post, _ := posts.Create(nanomodel.Data{"title": "Hi", "author": john.ID()})
//	author := post.Resolve("author") // live lookup into users
//
// A Model is not safe for concurrent use. Rows handed out by a Model are
// detached copies; call Save (or use Update) to persist changes.
package nanomodel

import (
	"fmt"
	"log/slog"
)

// IDPolicy selects how Create assigns identifiers.
type IDPolicy int

const (
	// NextIDLast assigns the id of the last stored row plus one, or 1 when
	// the model is empty. When rows are not in id order the next id can
	// repeat one held by an earlier row; Create then replaces that row.
	NextIDLast IDPolicy = iota
	// NextIDMax assigns the largest stored id plus one, keeping ids unique
	// across deletes.
	NextIDMax
)

// String returns the string representation of the IDPolicy
func (p IDPolicy) String() string {
	switch p {
	case NextIDLast:
		return "last"
	case NextIDMax:
		return "max"
	default:
		return "unknown"
	}
}

// Field declares one named field of a model.
type Field struct {
	Name string
	Type FieldType
}

// Fields is an ordered field declaration. Order is declaration order and
// display order, and it is preserved through serialization.
type Fields []Field

// Names returns the field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for debug output of mutations.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCoercion selects the coercion policy applied by Create.
func WithCoercion(policy CoercionPolicy) Option {
	return func(m *Model) { m.coercion = policy }
}

// WithIDPolicy selects the identifier assignment policy.
func WithIDPolicy(policy IDPolicy) Option {
	return func(m *Model) { m.idPolicy = policy }
}

// Model is a schema-bound in-memory collection of rows.
type Model struct {
	name     string
	fields   Fields
	index    map[string]int
	rows     []*Row
	coercion CoercionPolicy
	idPolicy IDPolicy
	logger   *slog.Logger
}

// New creates an empty model. A repeated field name keeps its first position
// and takes the last declared type.
func New(name string, fields Fields, opts ...Option) *Model {
	m := &Model{
		name:   name,
		index:  make(map[string]int, len(fields)),
		logger: slog.New(slog.DiscardHandler),
	}
	m.declare(fields)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) declare(fields Fields) {
	for _, f := range fields {
		if i, ok := m.index[f.Name]; ok {
			m.fields[i].Type = f.Type
			continue
		}
		m.index[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
	}
}

// Name returns the model name. It is the lookup key other models use to
// bind references to this one.
func (m *Model) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Fields returns a copy of the field declarations.
func (m *Model) Fields() Fields {
	out := make(Fields, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field returns the type of a declared field.
func (m *Model) Field(name string) (FieldType, bool) {
	i, ok := m.index[name]
	if !ok {
		return FieldType{}, false
	}
	return m.fields[i].Type, true
}

// Create builds a row from data and stores it. The id is taken from
// data["id"] when it is a non-zero integer, otherwise assigned by NextID.
// Declared fields present in data are coerced; absent ones take the type
// default. Keys that are not declared fields are ignored.
func (m *Model) Create(data Data) (*Row, error) {
	row, err := m.build(data)
	if err != nil {
		return nil, err
	}
	m.Save(row)
	m.logger.Debug("row created", "model", m.name, "id", row.id)
	return row, nil
}

// Seed creates one row per item, in order. It stops at the first error and
// returns the rows created so far.
func (m *Model) Seed(items []Data) ([]*Row, error) {
	rows := make([]*Row, 0, len(items))
	for i, item := range items {
		row, err := m.Create(item)
		if err != nil {
			return rows, fmt.Errorf("seed %s item %d: %w", m.name, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// build assigns the id and coerces every declared field.
func (m *Model) build(data Data) (*Row, error) {
	var id int64
	if raw, ok := data[IDField]; ok && truthy(raw) {
		id, _ = looseID(raw)
	}
	if id == 0 {
		id = m.NextID()
	}

	values := make(map[string]interface{}, len(m.fields))
	for _, f := range m.fields {
		if f.Name == IDField {
			continue
		}
		raw, present := data[f.Name]
		if !present {
			values[f.Name] = f.Type.Default()
			continue
		}
		v, err := f.Type.coerce(raw, m.coercion)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.name, f.Name, err)
		}
		values[f.Name] = v
	}
	return newRow(m, id, values), nil
}

// Get returns the first row whose id loosely equals id: integers of any Go
// type, integral floats, numeric strings and json.Number all match. It
// returns nil when no row matches.
func (m *Model) Get(id interface{}) *Row {
	want, ok := looseID(id)
	if !ok {
		return nil
	}
	for _, row := range m.rows {
		if row.id == want {
			return row.clone()
		}
	}
	return nil
}

// Where returns a query over the rows matching pred.
func (m *Model) Where(pred Predicate) Query {
	items := make([]*Row, 0)
	for _, row := range m.rows {
		c := row.clone()
		if pred(c) {
			items = append(items, c)
		}
	}
	return newQuery(m, items)
}

// Query returns a query over every row.
func (m *Model) Query() Query {
	items := make([]*Row, len(m.rows))
	for i, row := range m.rows {
		items[i] = row.clone()
	}
	return newQuery(m, items)
}

// Save replaces the stored row with the same id, or appends row when there
// is none. The model keeps its own copy.
func (m *Model) Save(row *Row) {
	if row == nil {
		return
	}
	stored := row.clone()
	stored.model = m
	for i, existing := range m.rows {
		if existing.id == stored.id {
			m.rows[i] = stored
			return
		}
	}
	m.rows = append(m.rows, stored)
}

// Update applies mutate to the row with the given id and saves it. It
// returns the updated row, or nil when no row matches.
func (m *Model) Update(id interface{}, mutate Mutator) *Row {
	row := m.Get(id)
	if row == nil {
		return nil
	}
	mutate(row)
	m.Save(row)
	m.logger.Debug("row updated", "model", m.name, "id", row.id)
	return row
}

// UpdateWhere applies mutate to every row matching pred and saves each. It
// returns the number of rows updated.
func (m *Model) UpdateWhere(pred Predicate, mutate Mutator) int {
	return m.updateRows(m.Where(pred).All(), mutate)
}

// UpdateAll applies mutate to every row and saves each.
func (m *Model) UpdateAll(mutate Mutator) int {
	return m.updateRows(m.Query().All(), mutate)
}

func (m *Model) updateRows(rows []*Row, mutate Mutator) int {
	for _, row := range rows {
		mutate(row)
		m.Save(row)
	}
	if len(rows) > 0 {
		m.logger.Debug("rows updated", "model", m.name, "count", len(rows))
	}
	return len(rows)
}

// Delete removes every row with the given id and returns the first of them,
// or nil when none matched.
func (m *Model) Delete(id interface{}) *Row {
	row := m.Get(id)
	if row == nil {
		return nil
	}
	kept := m.rows[:0:0]
	for _, r := range m.rows {
		if r.id != row.id {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	m.logger.Debug("row deleted", "model", m.name, "id", row.id)
	return row
}

// DeleteWhere removes every row matching pred and returns how many rows were
// removed.
func (m *Model) DeleteWhere(pred Predicate) int {
	before := len(m.rows)
	for _, row := range m.Where(pred).All() {
		m.Delete(row.id)
	}
	return before - len(m.rows)
}

// Clear removes every row.
func (m *Model) Clear() {
	m.rows = nil
	m.logger.Debug("model cleared", "model", m.name)
}

// Count returns the number of stored rows.
func (m *Model) Count() int { return len(m.rows) }

// Exists reports whether Get(id) finds a row.
func (m *Model) Exists(id interface{}) bool {
	return m.Get(id) != nil
}

// NextID returns the id Create would assign next under the model's policy.
func (m *Model) NextID() int64 {
	if len(m.rows) == 0 {
		return 1
	}
	if m.idPolicy == NextIDMax {
		var highest int64
		for _, row := range m.rows {
			if row.id > highest {
				highest = row.id
			}
		}
		return highest + 1
	}
	return m.rows[len(m.rows)-1].id + 1
}

// String implements fmt.Stringer
func (m *Model) String() string {
	return fmt.Sprintf("Model<%s>", m.Name())
}
