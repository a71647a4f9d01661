package nanomodel

import (
	"fmt"
	"math"
)

// Kind identifies one of the built-in field types. A Kind's name is globally
// unique and is the discriminator written into schema documents.
type Kind int

const (
	// KindID holds identifiers. Coercion is identity, with integral numbers
	// normalized to int64.
	KindID Kind = iota
	// KindString holds text. Coercion is identity.
	KindString
	// KindNumber holds float64 values produced by a numeric cast.
	KindNumber
	// KindBoolean holds the truthiness of the input.
	KindBoolean
	// KindRef holds a Reference to a row of another model.
	KindRef
)

// coerceFunc converts a raw input using the bound arguments of a field type.
type coerceFunc func(raw interface{}, args []interface{}, policy CoercionPolicy) (interface{}, error)

// kindSpec is the companion structure of a Kind: its serialized name, the
// default used when no override is given, its coercion and the number of
// leading arguments that are live models rather than primitives.
type kindSpec struct {
	name   string
	def    interface{}
	coerce coerceFunc
	binds  int
}

var kindSpecs = map[Kind]kindSpec{
	KindID:      {name: "ID", def: int64(0), coerce: coerceID},
	KindString:  {name: "STRING", def: "", coerce: coerceString},
	KindNumber:  {name: "NUMBER", def: float64(0), coerce: coerceNumber},
	KindBoolean: {name: "BOOLEAN", def: false, coerce: coerceBoolean},
	KindRef:     {name: "REF", def: nil, coerce: coerceRef, binds: 1},
}

// String returns the serialized name of the kind
func (k Kind) String() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindByName looks up a kind by its serialized name.
func KindByName(name string) (Kind, bool) {
	for kind, spec := range kindSpecs {
		if spec.name == name {
			return kind, true
		}
	}
	return 0, false
}

// Kinds lists the built-in kinds in declaration order.
func Kinds() []Kind {
	return []Kind{KindID, KindString, KindNumber, KindBoolean, KindRef}
}

// New is the type constructor of a kind: it binds a default value and the
// kind's construction arguments into a concrete FieldType.
func (k Kind) New(defaultValue interface{}, args ...interface{}) FieldType {
	bound := make([]interface{}, len(args))
	copy(bound, args)
	return FieldType{kind: k, def: defaultValue, args: bound}
}

// FieldType is a concrete, self-describing rule for one field.
type FieldType struct {
	kind Kind
	def  interface{}
	args []interface{}
}

// ID returns an identifier field type with default 0.
func ID() FieldType { return KindID.New(kindSpecs[KindID].def) }

// String returns a text field type with default "".
func String() FieldType { return KindString.New(kindSpecs[KindString].def) }

// Number returns a numeric field type with default 0.
func Number() FieldType { return KindNumber.New(kindSpecs[KindNumber].def) }

// Boolean returns a boolean field type with default false.
func Boolean() FieldType { return KindBoolean.New(kindSpecs[KindBoolean].def) }

// Ref returns a reference field type pointing at rows of target. The default
// is nil (no reference).
func Ref(target *Model) FieldType { return KindRef.New(kindSpecs[KindRef].def, target) }

// WithDefault returns a copy of the field type with a different default.
// Defaults are stored as given and never coerced.
func (t FieldType) WithDefault(value interface{}) FieldType {
	return t.kind.New(value, t.args...)
}

// Kind returns the field type's kind.
func (t FieldType) Kind() Kind { return t.kind }

// Name returns the serialized type name, e.g. "STRING".
func (t FieldType) Name() string { return t.kind.String() }

// Default returns the value stored when a field is omitted.
func (t FieldType) Default() interface{} { return t.def }

// Args returns the bound construction arguments.
func (t FieldType) Args() []interface{} {
	out := make([]interface{}, len(t.args))
	copy(out, t.args)
	return out
}

// Target returns the model a REF field points at, or nil.
func (t FieldType) Target() *Model {
	if t.kind != KindRef || len(t.args) == 0 {
		return nil
	}
	m, _ := t.args[0].(*Model)
	return m
}

// Coerce converts a raw input with lenient policy.
func (t FieldType) Coerce(raw interface{}) (interface{}, error) {
	return t.coerce(raw, CoerceLenient)
}

func (t FieldType) coerce(raw interface{}, policy CoercionPolicy) (interface{}, error) {
	spec, ok := kindSpecs[t.kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t.kind)
	}
	return spec.coerce(raw, t.args, policy)
}

// String implements fmt.Stringer
func (t FieldType) String() string {
	return fmt.Sprintf("Type<%s>", t.Name())
}

// Named is implemented by bound arguments that serialize as a lookup key
// rather than by value. *Model implements it.
type Named interface {
	Name() string
}

// FieldDescription is the serialized form of a FieldType.
type FieldDescription struct {
	Name         string        `json:"name" yaml:"name"`
	Args         []interface{} `json:"args" yaml:"args"`
	DefaultValue interface{}   `json:"defaultValue" yaml:"defaultValue"`
}

// Describe produces the serializable description of the field type. Bound
// objects are replaced by their name; primitives pass through.
func (t FieldType) Describe() FieldDescription {
	args := make([]interface{}, len(t.args))
	for i, arg := range t.args {
		if named, ok := arg.(Named); ok && named != nil {
			args[i] = named.Name()
			continue
		}
		args[i] = arg
	}
	return FieldDescription{Name: t.Name(), Args: args, DefaultValue: exportValue(t.def)}
}

// Bindings maps bound-argument lookup keys to live models.
type Bindings map[string]*Model

// Build reconstructs the described field type. Arguments in model positions
// are looked up in bindings; a missing entry fails with ErrUnboundArgument.
func (d FieldDescription) Build(bindings Bindings) (FieldType, error) {
	kind, ok := KindByName(d.Name)
	if !ok {
		return FieldType{}, fmt.Errorf("%w: %q", ErrUnknownType, d.Name)
	}
	spec := kindSpecs[kind]
	if len(d.Args) < spec.binds {
		return FieldType{}, fmt.Errorf("%w: %s expects %d bound argument(s), got %d",
			ErrUnboundArgument, d.Name, spec.binds, len(d.Args))
	}

	args := make([]interface{}, len(d.Args))
	for i, arg := range d.Args {
		if i >= spec.binds {
			args[i] = arg
			continue
		}
		key, ok := arg.(string)
		if !ok {
			return FieldType{}, fmt.Errorf("%w: lookup key %s is not a string", ErrUnboundArgument, describeValue(arg))
		}
		target, ok := bindings[key]
		if !ok || target == nil {
			return FieldType{}, fmt.Errorf("%w: %q", ErrUnboundArgument, key)
		}
		args[i] = target
	}
	return kind.New(normalizeDefault(kind, d.DefaultValue), args...), nil
}

// normalizeDefault undoes the number widening of JSON and YAML decoders so a
// rebuilt field type carries the same default as the one that was described.
func normalizeDefault(kind Kind, def interface{}) interface{} {
	switch kind {
	case KindID:
		if n, ok := integral(def); ok {
			return n
		}
	case KindNumber:
		if _, ok := integral(def); ok {
			return toNumber(def)
		}
	case KindRef:
		if n, ok := integral(def); ok {
			return n
		}
	}
	return def
}

func coerceID(raw interface{}, _ []interface{}, _ CoercionPolicy) (interface{}, error) {
	if n, ok := integral(raw); ok {
		return n, nil
	}
	return raw, nil
}

func coerceString(raw interface{}, _ []interface{}, _ CoercionPolicy) (interface{}, error) {
	return raw, nil
}

func coerceNumber(raw interface{}, _ []interface{}, policy CoercionPolicy) (interface{}, error) {
	n := toNumber(raw)
	if math.IsNaN(n) && policy == CoerceStrict {
		return nil, fmt.Errorf("%w: %s is not a number", ErrCoercion, describeValue(raw))
	}
	return n, nil
}

func coerceBoolean(raw interface{}, _ []interface{}, _ CoercionPolicy) (interface{}, error) {
	return truthy(raw), nil
}

func coerceRef(raw interface{}, args []interface{}, policy CoercionPolicy) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	var target *Model
	if len(args) > 0 {
		target, _ = args[0].(*Model)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: reference field has no target model", ErrUnboundArgument)
	}

	var id interface{}
	switch v := raw.(type) {
	case Reference:
		id = v.id
	case *Row:
		if v == nil {
			return nil, nil
		}
		id = v.id
	default:
		id = raw
	}
	if n, ok := integral(id); ok {
		id = n
	} else if policy == CoerceStrict {
		if n, ok := looseID(id); ok {
			id = n
		} else {
			return nil, fmt.Errorf("%w: %s is not a row id", ErrCoercion, describeValue(raw))
		}
	}
	return Reference{id: id, target: target}, nil
}
