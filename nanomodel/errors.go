package nanomodel

import "errors"

var (
	// ErrUnknownType is returned when a schema document names a field type
	// that is not one of the built-in kinds.
	ErrUnknownType = errors.New("unknown field type")

	// ErrUnboundArgument is returned when a field description refers to a
	// bound argument (e.g. the target of a REF field) that the caller did not
	// supply in the bindings.
	ErrUnboundArgument = errors.New("unbound field argument")

	// ErrInvalidDocument is returned for structurally broken schema documents.
	ErrInvalidDocument = errors.New("invalid schema document")

	// ErrCoercion is returned by strict models when a value cannot be coerced
	// to its field type.
	ErrCoercion = errors.New("coercion failed")
)
