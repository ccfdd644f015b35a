// Package inspect provides device inspection and attribute manipulation
// utilities for the interactive consoles.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "main/switch/switch")
//   - Resolving capability aliases (e.g., "setpoint", "fan")
//   - Reading and writing attributes
//   - Invoking capability commands
//   - Formatting output for display
package inspect

import (
	"errors"
	"fmt"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Path represents a parsed inspection path.
// Format: component/capability/attribute or component/capability/cmd/command.
type Path struct {
	// Component is the component ID (defaults to "main").
	Component string

	// Capability is the canonical capability ID.
	Capability string

	// Attribute is the attribute name within the capability.
	Attribute string

	// Command is the command name (when IsCommand is true).
	Command string

	// IsCommand indicates this path refers to a command, not an attribute.
	IsCommand bool

	// IsPartial indicates the path doesn't include an attribute/command
	// (used for inspect operations that show all attributes).
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "component/capability/attribute" - full path
//   - "component/capability"           - partial (for listing attributes)
//   - "component"                      - partial (for listing capabilities)
//   - "component/capability/cmd/name"  - command path
//
// The component may be omitted when the first segment is a known
// capability ID or alias; it then defaults to "main":
//   - "switch/switch"        - reads main/switch/switch
//   - "setpoint"             - lists main/thermostatCoolingSetpoint
//   - "switch/cmd/on"        - invokes main/switch/on
//
// Capability names are resolved via the alias tables, so "fan" and
// "airConditionerFanMode" address the same capability.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	parts := strings.Split(input, "/")
	p := &Path{Raw: input, Component: "main"}

	// A leading capability name implies the main component.
	if !isCapabilityName(parts[0]) {
		p.Component = parts[0]
		parts = parts[1:]
		if len(parts) == 0 {
			p.IsPartial = true
			return p, nil
		}
	}

	p.Capability = ResolveCapability(parts[0])
	parts = parts[1:]

	if len(parts) == 0 {
		p.IsPartial = true
		return p, nil
	}

	// Command paths use an explicit "cmd" segment so command names
	// cannot collide with attribute names.
	if parts[0] == "cmd" {
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: command path missing command name", ErrInvalidPath)
		}
		if len(parts) > 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, input)
		}
		p.IsCommand = true
		p.Command = parts[1]
		return p, nil
	}

	if len(parts) > 1 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, input)
	}
	p.Attribute = parts[0]
	return p, nil
}

// String returns the path in canonical form.
func (p *Path) String() string {
	var sb strings.Builder

	sb.WriteString(p.Component)

	if p.Capability == "" {
		return sb.String()
	}
	sb.WriteString("/")
	sb.WriteString(p.Capability)

	if p.IsPartial {
		return sb.String()
	}

	if p.IsCommand {
		sb.WriteString("/cmd/")
		sb.WriteString(p.Command)
	} else {
		sb.WriteString("/")
		sb.WriteString(p.Attribute)
	}

	return sb.String()
}
