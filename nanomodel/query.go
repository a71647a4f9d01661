package nanomodel

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"sort"
)

// Predicate decides whether a row belongs to a query.
type Predicate func(*Row) bool

// Mutator changes a row in place. Its effect is persisted by the caller.
type Mutator func(*Row)

// Query is an immutable, point-in-time view over rows of a model. Every
// narrowing operation returns a new Query; the source model is never
// modified.
type Query struct {
	model *Model
	items []*Row
}

func newQuery(model *Model, items []*Row) Query {
	return Query{model: model, items: items}
}

// Model returns the model the query was derived from.
func (q Query) Model() *Model { return q.model }

// First returns the first row, or nil when the query is empty.
func (q Query) First() *Row {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// All returns the rows of the view. The slice is shared with the query.
func (q Query) All() []*Row { return q.items }

// Count returns the number of rows in the view.
func (q Query) Count() int { return len(q.items) }

// Where narrows the view to rows matching pred.
func (q Query) Where(pred Predicate) Query {
	items := make([]*Row, 0, len(q.items))
	for _, row := range q.items {
		if pred(row) {
			items = append(items, row)
		}
	}
	return newQuery(q.model, items)
}

// Order sorts ascending by field. Rows with equal keys keep their relative
// order.
func (q Query) Order(field string) Query {
	return q.sorted(field, false)
}

// OrderDesc sorts descending by field, keeping the relative order of ties.
func (q Query) OrderDesc(field string) Query {
	return q.sorted(field, true)
}

func (q Query) sorted(field string, descending bool) Query {
	items := make([]*Row, len(q.items))
	copy(items, q.items)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Get(field), items[j].Get(field)
		if descending {
			return compareValues(b, a) < 0
		}
		return compareValues(a, b) < 0
	})
	return newQuery(q.model, items)
}

// Limit keeps at most the first n rows. n <= 0 yields an empty view.
func (q Query) Limit(n int) Query {
	if n <= 0 {
		return newQuery(q.model, []*Row{})
	}
	if n >= len(q.items) {
		return newQuery(q.model, q.items)
	}
	return newQuery(q.model, q.items[:n:n])
}

// Offset skips the first n rows.
func (q Query) Offset(n int) Query {
	if n <= 0 {
		return q
	}
	if n >= len(q.items) {
		return newQuery(q.model, []*Row{})
	}
	return newQuery(q.model, q.items[n:])
}

// At returns the row at index; negative indexes count from the end. Out of
// range yields nil.
func (q Query) At(index int) *Row {
	if index < 0 {
		index += len(q.items)
	}
	if index < 0 || index >= len(q.items) {
		return nil
	}
	return q.items[index]
}

// Rows iterates over the view. The sequence can be ranged over any number of
// times.
func (q Query) Rows() iter.Seq2[int, *Row] {
	return func(yield func(int, *Row) bool) {
		for i, row := range q.items {
			if !yield(i, row) {
				return
			}
		}
	}
}

// Export returns every row in exported form.
func (q Query) Export() []Data {
	out := make([]Data, len(q.items))
	for i, row := range q.items {
		out[i] = row.Export()
	}
	return out
}

// MarshalJSON encodes the exported rows as an array.
func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Export())
}

// String implements fmt.Stringer
func (q Query) String() string {
	return fmt.Sprintf("Query<%s>", q.model.Name())
}

// value classes in ascending sort order
const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case string:
		return rankString
	}
	if _, ok := numeric(v); ok {
		return rankNumber
	}
	return rankOther
}

func numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case Reference:
		if _, ok := integral(val.id); ok {
			return toNumber(val.id), true
		}
		return 0, false
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return toNumber(val), true
	}
	return 0, false
}

// compareValues orders nil < bool < number < string < other. Numbers compare
// numerically with NaN first, references by their id, and unknown values by
// their formatted text.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case rankNumber:
		na, _ := numeric(a)
		nb, _ := numeric(b)
		return compareFloats(na, nb)
	case rankString:
		return compareStrings(a.(string), b.(string))
	default:
		return compareStrings(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	}
}

func compareFloats(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
