package model

import (
	"context"
	"errors"
	"fmt"
)

// Command errors.
var (
	ErrCommandNotFound  = errors.New("command not found")
	ErrMissingArgument  = errors.New("missing required argument")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNoCommandHandler = errors.New("command has no handler")
	ErrTooManyArguments = errors.New("too many arguments")
)

// CommandHandler executes a command with positional arguments.
// SmartThings commands carry their arguments as an ordered list
// (e.g. setCoolingSetpoint(25.0), setAcOptionalMode("quiet")).
type CommandHandler func(ctx context.Context, args []any) (map[string]any, error)

// ParameterMetadata describes a positional command parameter.
type ParameterMetadata struct {
	// Name is the parameter name, for diagnostics only.
	Name string

	// Type is the expected data type.
	Type DataType

	// Required indicates the argument must be present.
	Required bool
}

// CommandMetadata describes a command's signature.
type CommandMetadata struct {
	// Name is the command name within the capability (e.g. "setCoolingSetpoint").
	Name string

	// Parameters lists the positional parameters in order.
	Parameters []ParameterMetadata

	// Description is a human-readable description.
	Description string
}

// Command represents an invocable command with its handler.
type Command struct {
	metadata *CommandMetadata
	handler  CommandHandler
}

// NewCommand creates a new command.
func NewCommand(meta *CommandMetadata, handler CommandHandler) *Command {
	return &Command{
		metadata: meta,
		handler:  handler,
	}
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.metadata.Name
}

// Metadata returns the command metadata.
func (c *Command) Metadata() *CommandMetadata {
	return c.metadata
}

// Invoke validates the arguments and runs the handler.
func (c *Command) Invoke(ctx context.Context, args []any) (map[string]any, error) {
	if err := c.validateArgs(args); err != nil {
		return nil, err
	}
	if c.handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCommandHandler, c.metadata.Name)
	}
	return c.handler(ctx, args)
}

// validateArgs checks argument count and types against the metadata.
func (c *Command) validateArgs(args []any) error {
	params := c.metadata.Parameters

	if len(args) > len(params) {
		return fmt.Errorf("%w: %s takes at most %d, got %d",
			ErrTooManyArguments, c.metadata.Name, len(params), len(args))
	}

	for i, param := range params {
		if i >= len(args) {
			if param.Required {
				return fmt.Errorf("%w: %s requires %s", ErrMissingArgument, c.metadata.Name, param.Name)
			}
			continue
		}
		if err := checkArgType(args[i], param.Type); err != nil {
			return fmt.Errorf("%w: %s argument %s: %v", ErrInvalidArgument, c.metadata.Name, param.Name, err)
		}
	}

	return nil
}

// checkArgType validates a single argument against the expected type.
func checkArgType(arg any, dt DataType) error {
	if arg == nil {
		return nil
	}
	switch dt {
	case DataTypeString, DataTypeEnum:
		if _, ok := arg.(string); !ok {
			return fmt.Errorf("expected string, got %T", arg)
		}
	case DataTypeInteger:
		if !isIntegerType(arg) {
			return fmt.Errorf("expected integer, got %T", arg)
		}
	case DataTypeNumber:
		if !isNumericType(arg) {
			return fmt.Errorf("expected number, got %T", arg)
		}
	case DataTypeBoolean:
		if _, ok := arg.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", arg)
		}
	case DataTypeStringList:
		if !isStringList(arg) {
			return fmt.Errorf("expected string list, got %T", arg)
		}
	case DataTypeMap:
		if !isMapType(arg) {
			return fmt.Errorf("expected map, got %T", arg)
		}
	}
	return nil
}
