// Package filter compiles textual field conditions ("likes>=3",
// "author=2", "title~=hello") into nanomodel predicates. The CLI --where
// flag and the HTTP query string both go through it.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// ErrSyntax is returned for a condition without a field or operator.
var ErrSyntax = errors.New("invalid filter")

// ErrUnknownField is returned when a condition names an undeclared field.
var ErrUnknownField = errors.New("unknown field")

// Operator compares a row value with the condition values.
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "!="
	Contains       Operator = "~="
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
)

// longest first so "<=" wins over "<"
var operators = []Operator{NotEqual, Contains, LessOrEqual, GreaterOrEqual, Equal, Less, Greater}

// Condition is one parsed field comparison. Values holds more than one
// entry for "a|b" alternatives, which match when any alternative does.
type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

// String implements fmt.Stringer
func (c Condition) String() string {
	return c.Field + string(c.Op) + strings.Join(c.Values, "|")
}

// Parse reads a single "field<op>value" condition.
func Parse(expr string) (Condition, error) {
	at, op := -1, Operator("")
	for _, candidate := range operators {
		if i := strings.Index(expr, string(candidate)); i >= 0 && (at < 0 || i < at) {
			at, op = i, candidate
		}
	}
	if at < 0 {
		return Condition{}, fmt.Errorf("%w: %q has no operator", ErrSyntax, expr)
	}
	field := strings.TrimSpace(expr[:at])
	if field == "" {
		return Condition{}, fmt.Errorf("%w: %q has no field", ErrSyntax, expr)
	}
	value := strings.TrimSpace(expr[at+len(op):])
	return NewCondition(field, op, value), nil
}

// NewCondition builds a condition, splitting "a|b" alternatives for the
// equality operators.
func NewCondition(field string, op Operator, value string) Condition {
	values := []string{value}
	if op == Equal || op == NotEqual {
		values = strings.Split(value, "|")
	}
	return Condition{Field: field, Op: op, Values: values}
}

// ParseAll parses every expression.
func ParseAll(exprs []string) ([]Condition, error) {
	conds := make([]Condition, 0, len(exprs))
	for _, expr := range exprs {
		c, err := Parse(expr)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// Compile turns conditions into a predicate over rows of m. A row matches
// when every condition holds. No conditions match everything.
func Compile(m *nanomodel.Model, conds []Condition) (nanomodel.Predicate, error) {
	if len(conds) == 0 {
		return func(*nanomodel.Row) bool { return true }, nil
	}
	matchers := make([]func(*nanomodel.Row) bool, 0, len(conds))
	for _, c := range conds {
		kind := nanomodel.KindID
		if c.Field != nanomodel.IDField {
			ft, ok := m.Field(c.Field)
			if !ok {
				return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, m.Name(), c.Field)
			}
			kind = ft.Kind()
		}
		matchers = append(matchers, matcher(c, kind))
	}
	return func(row *nanomodel.Row) bool {
		for _, match := range matchers {
			if !match(row) {
				return false
			}
		}
		return true
	}, nil
}

// Search returns a predicate matching rows where any string field contains
// text, ignoring case.
func Search(m *nanomodel.Model, text string) nanomodel.Predicate {
	needle := strings.ToLower(text)
	var fields []string
	for _, f := range m.Fields() {
		if f.Type.Kind() == nanomodel.KindString {
			fields = append(fields, f.Name)
		}
	}
	return func(row *nanomodel.Row) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(row.Text(field)), needle) {
				return true
			}
		}
		return false
	}
}

func matcher(c Condition, kind nanomodel.Kind) func(*nanomodel.Row) bool {
	field := c.Field
	switch c.Op {
	case Equal, NotEqual:
		want := c.Op == Equal
		return func(row *nanomodel.Row) bool {
			got := valueToString(row.Get(field))
			for _, v := range c.Values {
				if got == normalize(v, kind) {
					return want
				}
			}
			return !want
		}
	case Contains:
		needle := strings.ToLower(c.Values[0])
		return func(row *nanomodel.Row) bool {
			return strings.Contains(strings.ToLower(valueToString(row.Get(field))), needle)
		}
	default:
		bound := c.Values[0]
		return func(row *nanomodel.Row) bool {
			cmp, ok := compare(row.Get(field), bound, kind)
			if !ok {
				return false
			}
			switch c.Op {
			case Less:
				return cmp < 0
			case LessOrEqual:
				return cmp <= 0
			case Greater:
				return cmp > 0
			default:
				return cmp >= 0
			}
		}
	}
}
