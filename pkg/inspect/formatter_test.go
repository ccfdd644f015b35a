package inspect

import (
	"strings"
	"testing"
)

func TestFormatValue(t *testing.T) {
	f := &Formatter{}

	tests := []struct {
		name     string
		value    any
		unit     string
		expected string
	}{
		{
			name:     "temperature with unit",
			value:    26.5,
			unit:     "C",
			expected: "26.5 C",
		},
		{
			name:     "whole degree keeps one decimal",
			value:    24.0,
			unit:     "C",
			expected: "24.0 C",
		},
		{
			name:     "float rounds to one decimal",
			value:    23.4567,
			unit:     "C",
			expected: "23.5 C",
		},
		{
			name:     "float without unit",
			value:    18.5,
			unit:     "",
			expected: "18.5",
		},
		{
			name:     "humidity percent",
			value:    45,
			unit:     "%",
			expected: "45 %",
		},
		{
			name:     "int without unit",
			value:    42,
			unit:     "",
			expected: "42",
		},
		{
			name:     "bool true",
			value:    true,
			unit:     "",
			expected: "true",
		},
		{
			name:     "bool false",
			value:    false,
			unit:     "",
			expected: "false",
		},
		{
			name:     "string is quoted",
			value:    "cool",
			unit:     "",
			expected: "\"cool\"",
		},
		{
			name:     "nil",
			value:    nil,
			unit:     "",
			expected: "null",
		},
		{
			name:     "string list",
			value:    []string{"auto", "cool", "dry", "wind", "heat"},
			unit:     "",
			expected: "[auto, cool, dry, wind, heat]",
		},
		{
			name:     "any list",
			value:    []any{"quiet", "speed"},
			unit:     "",
			expected: "[quiet, speed]",
		},
		{
			name:     "map with sorted keys",
			value:    map[string]any{"href": "mode/vs/0", "count": 2},
			unit:     "",
			expected: "{count=2, href=mode/vs/0}",
		},
		{
			name:     "empty map",
			value:    map[string]any{},
			unit:     "",
			expected: "{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.FormatValue(tt.value, tt.unit)
			if got != tt.expected {
				t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.unit, got, tt.expected)
			}
		})
	}
}

func TestFormatterIndent(t *testing.T) {
	f := &Formatter{}

	got := f.Indent(2, "hello")
	if !strings.HasPrefix(got, "    ") {
		t.Errorf("Indent should add 4 spaces at depth 2, got %q", got)
	}
	if !strings.HasSuffix(got, "hello") {
		t.Errorf("Indent should preserve content, got %q", got)
	}

	wide := &Formatter{IndentWidth: 4}
	if got := wide.Indent(1, "x"); got != "    x" {
		t.Errorf("Indent width 4 at depth 1 = %q, want 4 spaces", got)
	}
}

func TestFormatAttributeTable(t *testing.T) {
	f := NewFormatter()

	rows := []AttributeRow{
		{Name: "airConditionerMode", Value: "\"cool\"", Type: "enum"},
		{Name: "coolingSetpoint", Value: "24.0 C", Type: "number"},
	}

	out := f.FormatAttributeTable(rows)

	if !strings.Contains(out, "airConditionerMode  \"cool\"") {
		t.Errorf("table misaligned:\n%s", out)
	}
	// Shorter names pad to the widest one.
	if !strings.Contains(out, "coolingSetpoint     24.0 C") {
		t.Errorf("table misaligned:\n%s", out)
	}
	if !strings.Contains(out, "(enum)") || !strings.Contains(out, "(number)") {
		t.Errorf("metadata missing:\n%s", out)
	}

	bare := &Formatter{}
	out = bare.FormatAttributeTable(rows)
	if strings.Contains(out, "(enum)") {
		t.Errorf("metadata shown with ShowMetadata off:\n%s", out)
	}

	if got := f.FormatAttributeTable(nil); got != "  (no attributes)" {
		t.Errorf("empty table = %q", got)
	}
}
