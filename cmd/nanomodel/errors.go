package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/nanomodel/internal/filter"
	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/storage"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "create", "list", "get")
	Cause       string   // The underlying cause (e.g., "User with ID \"3\" not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder
	if e.Operation != "" {
		fmt.Fprintf(&msg, "Failed to %s", e.Operation)
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		fmt.Fprintf(&msg, ": %s", e.Cause)
	}
	if e.Details != "" {
		fmt.Fprintf(&msg, " (%s)", e.Details)
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			fmt.Fprintf(&msg, "\n  %d. %s", i+1, suggestion)
		}
	}
	return msg.String()
}

// Unwrap returns the underlying error
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for validation failures
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewNotFoundError creates an error for missing rows
func NewNotFoundError(operation, collection, id string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("%s with ID %q not found", collection, id),
		Suggestions: suggestions,
	}
}

// NewCollectionError creates an error for an unknown collection name
func NewCollectionError(operation, name string, available []string) *CLIError {
	suggestions := []string{CommonSuggestions.ListCollections}
	if len(available) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Available collections: %s", strings.Join(available, ", ")))
	} else {
		suggestions = append(suggestions, CommonSuggestions.RunInit)
	}
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("unknown collection %q", name),
		Suggestions: suggestions,
	}
}

// NewFilterError creates an error for filtering issues
func NewFilterError(operation string, underlying error) *CLIError {
	return &CLIError{
		Operation: operation,
		Cause:     "invalid filter",
		Details:   underlying.Error(),
		Suggestions: []string{
			"Use format: --where field=value (operators: = != ~= < <= > >=)",
			"Separate alternatives with |, e.g. --where id=1|2",
			"Check field names with 'nanomodel schema <collection>'",
		},
		Underlying: underlying,
	}
}

// NewStoreError creates an error for snapshot and schema failures
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "store operation failed"
	details := ""

	if underlying != nil {
		details = underlying.Error()
		errStr := strings.ToLower(details)
		switch {
		case errors.Is(underlying, storage.ErrLockTimeout):
			cause = "snapshot is locked by another process"
		case errors.Is(underlying, storage.ErrCycle):
			cause = "collections reference each other in a loop"
		case errors.Is(underlying, nanomodel.ErrUnknownType):
			cause = "snapshot uses an unknown field type"
		case errors.Is(underlying, nanomodel.ErrUnboundArgument):
			cause = "a reference field points at a missing collection"
		case errors.Is(underlying, nanomodel.ErrCoercion):
			cause = "value does not fit its field type"
		case errors.Is(underlying, filter.ErrExpression):
			cause = "invalid expression"
		case strings.Contains(errStr, "permission denied"):
			cause = "insufficient permissions to access snapshot"
		case strings.Contains(errStr, "failed to parse"):
			cause = "snapshot file is not valid"
		}
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}
	return NewStoreError(operation, err, suggestions...)
}

// CommonSuggestions holds suggestion texts shared by several commands
var CommonSuggestions = struct {
	CheckDB         string
	CheckID         string
	CheckConfig     string
	ListCollections string
	RunInit         string
	RunHelp         string
	CheckPerms      string
}{
	CheckDB:         "Verify --db points to a valid snapshot file",
	CheckID:         "Verify the row ID exists (try 'list' command first)",
	CheckConfig:     "Check your configuration file or environment variables",
	ListCollections: "Run 'nanomodel collections' to see what the snapshot holds",
	RunInit:         "Run 'nanomodel init --demo' to create a sample snapshot",
	RunHelp:         "Run command with --help for usage information",
	CheckPerms:      "Check file permissions and directory access",
}
