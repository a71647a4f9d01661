package nanomodel_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

func TestKinds(t *testing.T) {
	names := []string{"ID", "STRING", "NUMBER", "BOOLEAN", "REF"}
	for i, kind := range nanomodel.Kinds() {
		if kind.String() != names[i] {
			t.Errorf("expected %s, got %s", names[i], kind)
		}
		got, ok := nanomodel.KindByName(names[i])
		if !ok || got != kind {
			t.Errorf("KindByName(%s) = %v, %v", names[i], got, ok)
		}
	}
	if _, ok := nanomodel.KindByName("DATE"); ok {
		t.Error("expected unknown kind")
	}
}

func TestNumberCoercion(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{nil, 0},
		{true, 1},
		{false, 0},
		{"", 0},
		{"  ", 0},
		{"42", 42},
		{" -3.5 ", -3.5},
		{"1e3", 1000},
		{"0x1F", 31},
		{"0b101", 5},
		{"Infinity", math.Inf(1)},
		{7, 7},
		{int64(8), 8},
		{uint8(9), 9},
		{json.Number("2.5"), 2.5},
	}
	for _, tt := range tests {
		got, err := nanomodel.Number().Coerce(tt.in)
		if err != nil {
			t.Errorf("Coerce(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Coerce(%#v): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, in := range []interface{}{"abc", "1_000", "inf", "NaN", "0x", "1.2.3", []int{1}, struct{}{}} {
		got, err := nanomodel.Number().Coerce(in)
		if err != nil {
			t.Errorf("lenient Coerce(%v) failed: %v", in, err)
			continue
		}
		if f, _ := got.(float64); !math.IsNaN(f) {
			t.Errorf("Coerce(%#v): expected NaN, got %v", in, got)
		}
	}
}

func TestBooleanCoercion(t *testing.T) {
	truthy := []interface{}{true, 1, -1, 0.5, "x", "false", []int{}, map[string]int{}}
	falsy := []interface{}{false, 0, 0.0, "", nil, math.NaN()}
	for _, in := range truthy {
		if got, _ := nanomodel.Boolean().Coerce(in); got != true {
			t.Errorf("expected %#v to be true", in)
		}
	}
	for _, in := range falsy {
		if got, _ := nanomodel.Boolean().Coerce(in); got != false {
			t.Errorf("expected %#v to be false", in)
		}
	}
}

func TestIdentityCoercion(t *testing.T) {
	if got, _ := nanomodel.String().Coerce(12); got != 12 {
		t.Errorf("expected STRING to keep input, got %v", got)
	}
	if got, _ := nanomodel.ID().Coerce(3.0); got != int64(3) {
		t.Errorf("expected integral id to normalize, got %#v", got)
	}
	if got, _ := nanomodel.ID().Coerce("a"); got != "a" {
		t.Errorf("expected ID to keep non-numeric input, got %#v", got)
	}
}

func TestRefCoercion(t *testing.T) {
	users := newUsers()
	john := mustCreate(t, users, nanomodel.Data{"name": "John"})
	ref := nanomodel.Ref(users)

	for _, in := range []interface{}{1, 1.0, int64(1), john, nanomodel.NewReference(1, users)} {
		got, err := ref.Coerce(in)
		if err != nil {
			t.Fatalf("Coerce(%v): %v", in, err)
		}
		r, ok := got.(nanomodel.Reference)
		if !ok {
			t.Fatalf("expected Reference, got %T", got)
		}
		if r.RawID() != int64(1) || r.Target() != users {
			t.Errorf("Coerce(%v): unexpected reference %v", in, r)
		}
		if row := r.Resolve(); row == nil || row.Text("name") != "John" {
			t.Errorf("Coerce(%v): expected John", in)
		}
	}

	if got, err := ref.Coerce(nil); err != nil || got != nil {
		t.Errorf("expected nil reference, got %v %v", got, err)
	}

	t.Run("lenient keeps odd ids", func(t *testing.T) {
		got, err := ref.Coerce("1")
		if err != nil {
			t.Fatal(err)
		}
		r := got.(nanomodel.Reference)
		if r.RawID() != "1" {
			t.Errorf("expected raw string id, got %#v", r.RawID())
		}
		if r.Resolve() == nil {
			t.Error("expected numeric string to resolve loosely")
		}
	})

	t.Run("strict", func(t *testing.T) {
		posts := nanomodel.New("Post", nanomodel.Fields{{Name: "author", Type: ref}},
			nanomodel.WithCoercion(nanomodel.CoerceStrict))
		row, err := posts.Create(nanomodel.Data{"author": "1"})
		if err != nil {
			t.Fatal(err)
		}
		r, _ := row.Ref("author")
		if r.RawID() != int64(1) {
			t.Errorf("expected canonical id, got %#v", r.RawID())
		}
		if _, err := posts.Create(nanomodel.Data{"author": "john"}); !errors.Is(err, nanomodel.ErrCoercion) {
			t.Errorf("expected ErrCoercion, got %v", err)
		}
	})

	t.Run("unbound", func(t *testing.T) {
		if _, err := nanomodel.Ref(nil).Coerce(1); !errors.Is(err, nanomodel.ErrUnboundArgument) {
			t.Errorf("expected ErrUnboundArgument, got %v", err)
		}
	})
}

func TestDescribe(t *testing.T) {
	users := newUsers()
	tests := []struct {
		ft   nanomodel.FieldType
		name string
		args []interface{}
		def  interface{}
	}{
		{nanomodel.ID(), "ID", []interface{}{}, int64(0)},
		{nanomodel.String().WithDefault("x"), "STRING", []interface{}{}, "x"},
		{nanomodel.Number(), "NUMBER", []interface{}{}, float64(0)},
		{nanomodel.Boolean().WithDefault(true), "BOOLEAN", []interface{}{}, true},
		{nanomodel.Ref(users), "REF", []interface{}{"User"}, nil},
	}
	for _, tt := range tests {
		d := tt.ft.Describe()
		if d.Name != tt.name || d.DefaultValue != tt.def || len(d.Args) != len(tt.args) {
			t.Errorf("unexpected description %+v", d)
			continue
		}
		for i := range tt.args {
			if d.Args[i] != tt.args[i] {
				t.Errorf("%s arg %d: expected %v, got %v", tt.name, i, tt.args[i], d.Args[i])
			}
		}
	}
}

func TestBuild(t *testing.T) {
	users := newUsers()

	t.Run("rebuilds each kind", func(t *testing.T) {
		for _, ft := range []nanomodel.FieldType{
			nanomodel.ID(),
			nanomodel.String().WithDefault("z"),
			nanomodel.Number().WithDefault(4.5),
			nanomodel.Boolean(),
			nanomodel.Ref(users),
		} {
			built, err := ft.Describe().Build(nanomodel.Bindings{"User": users})
			if err != nil {
				t.Fatalf("%s: %v", ft, err)
			}
			if built.Kind() != ft.Kind() || built.Default() != ft.Default() || built.Target() != ft.Target() {
				t.Errorf("%s: rebuilt type differs: %v", ft, built)
			}
		}
	})

	t.Run("json widened defaults", func(t *testing.T) {
		var d nanomodel.FieldDescription
		if err := json.Unmarshal([]byte(`{"name":"ID","args":[],"defaultValue":7}`), &d); err != nil {
			t.Fatal(err)
		}
		built, err := d.Build(nil)
		if err != nil {
			t.Fatal(err)
		}
		if built.Default() != int64(7) {
			t.Errorf("expected int64 default, got %#v", built.Default())
		}
	})

	t.Run("reference default survives json", func(t *testing.T) {
		ft := nanomodel.Ref(users).WithDefault(0)
		data, err := json.Marshal(ft.Describe())
		if err != nil {
			t.Fatal(err)
		}
		var d nanomodel.FieldDescription
		if err := json.Unmarshal(data, &d); err != nil {
			t.Fatal(err)
		}
		built, err := d.Build(nanomodel.Bindings{"User": users})
		if err != nil {
			t.Fatal(err)
		}
		if built.Default() != int64(0) || built.Target() != users {
			t.Errorf("expected int64 default bound to User, got %#v", built.Default())
		}

		again, err := built.Describe().Build(nanomodel.Bindings{"User": users})
		if err != nil {
			t.Fatal(err)
		}
		if again.Default() != built.Default() {
			t.Errorf("second rebuild changed default: %#v", again.Default())
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := nanomodel.FieldDescription{Name: "DATE"}.Build(nil)
		if !errors.Is(err, nanomodel.ErrUnknownType) {
			t.Errorf("expected ErrUnknownType, got %v", err)
		}
	})

	t.Run("missing binding", func(t *testing.T) {
		_, err := nanomodel.Ref(users).Describe().Build(nanomodel.Bindings{})
		if !errors.Is(err, nanomodel.ErrUnboundArgument) {
			t.Errorf("expected ErrUnboundArgument, got %v", err)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := nanomodel.FieldDescription{Name: "REF"}.Build(nanomodel.Bindings{"User": users})
		if !errors.Is(err, nanomodel.ErrUnboundArgument) {
			t.Errorf("expected ErrUnboundArgument, got %v", err)
		}
	})

	t.Run("non-string key", func(t *testing.T) {
		d := nanomodel.FieldDescription{Name: "REF", Args: []interface{}{1.0}}
		if _, err := d.Build(nanomodel.Bindings{"User": users}); !errors.Is(err, nanomodel.ErrUnboundArgument) {
			t.Errorf("expected ErrUnboundArgument, got %v", err)
		}
	})
}
