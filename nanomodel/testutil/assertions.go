package testutil

import (
	"fmt"
	"testing"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// AssertRowCount checks that the slice contains the expected number of rows
func AssertRowCount(t *testing.T, rows []*nanomodel.Row, expected int, context ...string) {
	t.Helper()
	if len(rows) != expected {
		ctx := ""
		if len(context) > 0 {
			ctx = " " + context[0]
		}
		t.Errorf("expected %d rows%s, got %d", expected, ctx, len(rows))
	}
}

// AssertRowExists verifies that a row with the given id exists in the slice
func AssertRowExists(t *testing.T, rows []*nanomodel.Row, id int64) {
	t.Helper()
	for _, row := range rows {
		if row.ID() == id {
			return
		}
	}
	t.Errorf("row %d not found in results", id)
}

// AssertRowNotExists verifies that no row with the given id is in the slice
func AssertRowNotExists(t *testing.T, rows []*nanomodel.Row, id int64) {
	t.Helper()
	for _, row := range rows {
		if row.ID() == id {
			t.Errorf("row %d should not be in results", id)
			return
		}
	}
}

// AssertIDs checks the ids of the rows, in order
func AssertIDs(t *testing.T, rows []*nanomodel.Row, expected ...int64) {
	t.Helper()
	got := make([]int64, len(rows))
	for i, row := range rows {
		got[i] = row.ID()
	}
	if fmt.Sprint(got) != fmt.Sprint(expected) {
		t.Errorf("expected ids %v, got %v", expected, got)
	}
}

// AssertField checks a stored field value
func AssertField(t *testing.T, row *nanomodel.Row, field string, expected interface{}) {
	t.Helper()
	if row == nil {
		t.Fatalf("expected row with %s=%v, got nil", field, expected)
	}
	if got := row.Get(field); got != expected {
		t.Errorf("expected %s=%v (%T), got %v (%T)", field, expected, expected, got, got)
	}
}

// AssertStored re-reads the row from its model and checks a field value
func AssertStored(t *testing.T, m *nanomodel.Model, id int64, field string, expected interface{}) {
	t.Helper()
	row := m.Get(id)
	if row == nil {
		t.Fatalf("%s row %d not found", m.Name(), id)
	}
	AssertField(t, row, field, expected)
}
