package formats

import (
	"io"
	"strings"
	"testing"
)

func noop(io.Writer, Table) error { return nil }

func TestRegister(t *testing.T) {
	originalRegistry := registry
	defer func() { registry = originalRegistry }()
	registry = make(map[string]*RowFormat)

	tests := []struct {
		name      string
		format    *RowFormat
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid format",
			format: &RowFormat{Name: "test-format", Extension: ".test", Render: noop},
		},
		{
			name:      "invalid name with uppercase",
			format:    &RowFormat{Name: "TestFormat", Render: noop},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "invalid name with special chars",
			format:    &RowFormat{Name: "test@format", Render: noop},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "empty name",
			format:    &RowFormat{Name: "", Render: noop},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "missing renderer",
			format:    &RowFormat{Name: "bare"},
			wantError: true,
			errorMsg:  "no renderer",
		},
		{
			name:   "extension without dot",
			format: &RowFormat{Name: "test-format-2", Extension: "test", Render: noop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Register(tt.format)
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.format.Extension != "" && tt.format.Extension[0] != '.' {
				t.Errorf("extension not normalized: %q", tt.format.Extension)
			}
		})
	}

	t.Run("duplicate format", func(t *testing.T) {
		format := &RowFormat{Name: "duplicate", Render: noop}
		if err := Register(format); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		err := Register(format)
		if err == nil || !strings.Contains(err.Error(), "already registered") {
			t.Errorf("expected 'already registered' error, got %v", err)
		}
	})
}

func TestGetAndList(t *testing.T) {
	if got := List(); strings.Join(got, ",") != "json,markdown,plain,table,yaml" {
		t.Errorf("unexpected built-in formats %v", got)
	}
	f, err := Get("json")
	if err != nil || f != JSON {
		t.Errorf("expected JSON format, got %v %v", f, err)
	}
	if _, err := Get("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestIsValidFormatName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"test", true},
		{"test123", true},
		{"my-format_2", true},
		{"Test", false},
		{"with space", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isValidFormatName(tt.input); got != tt.want {
			t.Errorf("isValidFormatName(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
