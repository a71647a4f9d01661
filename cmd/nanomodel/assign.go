package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/storage"
)

var boolWords = map[string]bool{
	"true": true, "yes": true, "on": true, "1": true, "t": true, "y": true,
	"false": false, "no": false, "off": false, "0": false, "f": false, "n": false,
}

// parseAssignments turns field=value arguments into row data typed for m.
// "null" clears a REF field.
func parseAssignments(operation string, m *nanomodel.Model, args []string) (nanomodel.Data, error) {
	data := make(nanomodel.Data, len(args))
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, NewValidationError(operation, "assignment", arg,
				"Use field=value, e.g. name=\"Ann Lee\"")
		}
		if field == nanomodel.IDField {
			return nil, NewValidationError(operation, "field", field,
				"Ids are assigned automatically; pass --id to choose one on create")
		}
		ft, ok := m.Field(field)
		if !ok {
			return nil, NewValidationError(operation, "field", field,
				fmt.Sprintf("Fields of %s: %s", m.Name(), strings.Join(m.Fields().Names(), ", ")))
		}
		value, err := parseValue(ft, raw)
		if err != nil {
			return nil, NewValidationError(operation, field, raw, err.Error())
		}
		data[field] = value
	}
	return data, nil
}

// parseValue converts command line text to the Go value a field kind expects.
func parseValue(ft nanomodel.FieldType, raw string) (interface{}, error) {
	switch ft.Kind() {
	case nanomodel.KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number", ft.Name())
		}
		return f, nil
	case nanomodel.KindBoolean:
		b, ok := boolWords[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return nil, fmt.Errorf("%s expects true or false", ft.Name())
		}
		return b, nil
	case nanomodel.KindRef:
		if strings.EqualFold(raw, "null") || raw == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects the id of a %s row", ft.Name(), targetName(ft))
		}
		return id, nil
	case nanomodel.KindID:
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer", ft.Name())
		}
		return id, nil
	default:
		return raw, nil
	}
}

func targetName(ft nanomodel.FieldType) string {
	if target := ft.Target(); target != nil {
		return target.Name()
	}
	return "target"
}

// parseFieldSpec reads a define argument of the form
// name:TYPE[:Target][=default], e.g. "author:REF:User" or "likes:NUMBER=0".
// A REF target is resolved to the canonical name of a cataloged model or to
// self, the collection being defined.
func parseFieldSpec(spec string, catalog *storage.Catalog, self string) (nanomodel.NamedDescription, error) {
	decl, def, hasDefault := strings.Cut(spec, "=")
	parts := strings.Split(decl, ":")
	name := strings.TrimSpace(parts[0])
	if name == "" || name == nanomodel.IDField {
		return nanomodel.NamedDescription{}, fmt.Errorf("invalid field name %q", name)
	}

	typeName := "STRING"
	if len(parts) > 1 {
		typeName = strings.ToUpper(strings.TrimSpace(parts[1]))
	}
	kind, ok := nanomodel.KindByName(typeName)
	if !ok {
		return nanomodel.NamedDescription{}, fmt.Errorf("%w: %q", nanomodel.ErrUnknownType, typeName)
	}

	var ft nanomodel.FieldType
	switch kind {
	case nanomodel.KindRef:
		if len(parts) < 3 || strings.TrimSpace(parts[2]) == "" {
			return nanomodel.NamedDescription{}, fmt.Errorf("field %s: REF needs a target, e.g. %s:REF:User", name, name)
		}
		if hasDefault {
			return nanomodel.NamedDescription{}, fmt.Errorf("field %s: REF fields cannot have a default", name)
		}
		target := strings.TrimSpace(parts[2])
		if m, ok := catalog.Get(target); ok {
			target = m.Name()
		} else if strings.EqualFold(target, self) {
			target = self
		}
		desc := nanomodel.FieldDescription{Name: kind.String(), Args: []interface{}{target}}
		return nanomodel.NamedDescription{Field: name, Description: desc}, nil
	case nanomodel.KindID:
		ft = nanomodel.ID()
	case nanomodel.KindNumber:
		ft = nanomodel.Number()
	case nanomodel.KindBoolean:
		ft = nanomodel.Boolean()
	default:
		ft = nanomodel.String()
	}

	if hasDefault {
		value, err := parseValue(ft, def)
		if err != nil {
			return nanomodel.NamedDescription{}, fmt.Errorf("field %s default: %w", name, err)
		}
		ft = ft.WithDefault(value)
	}
	return nanomodel.NamedDescription{Field: name, Description: ft.Describe()}, nil
}
