package inspect

import (
	"fmt"
	"sort"
	"strings"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes type and nullability information
	ShowMetadata bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a value for display, appending the unit when set.
func (f *Formatter) FormatValue(value any, unit string) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"

	case string:
		return fmt.Sprintf("%q", v)

	case float64:
		return f.formatFloatWithUnit(v, unit)

	case float32:
		return f.formatFloatWithUnit(float64(v), unit)

	case int:
		return f.formatIntWithUnit(int64(v), unit)

	case int64:
		return f.formatIntWithUnit(v, unit)

	case []string:
		return "[" + strings.Join(v, ", ") + "]"

	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return "[" + strings.Join(parts, ", ") + "]"

	case map[string]any:
		return f.formatMap(v)

	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatFloatWithUnit renders a float with one decimal place. Setpoints
// and temperature readings use 0.1 degree resolution, so more digits
// would suggest precision the device does not have.
func (f *Formatter) formatFloatWithUnit(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}

func (f *Formatter) formatIntWithUnit(v int64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%d %s", v, unit)
}

// formatMap renders a map as {k1=v1, k2=v2} with sorted keys.
func (f *Formatter) formatMap(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// AttributeRow represents a formatted attribute for display.
type AttributeRow struct {
	Name  string
	Value string
	Type  string
	Unit  string
}

// FormatAttributeTable formats a list of attributes as a table.
func (f *Formatter) FormatAttributeTable(rows []AttributeRow) string {
	if len(rows) == 0 {
		return "  (no attributes)"
	}

	width := 0
	for _, row := range rows {
		if len(row.Name) > width {
			width = len(row.Name)
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %-*s  %s", width, row.Name, row.Value))
		if f.ShowMetadata && row.Type != "" {
			sb.WriteString(fmt.Sprintf("  (%s)", row.Type))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
