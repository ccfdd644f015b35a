package caps

import (
	"context"
	"fmt"

	"github.com/krac-home/krac-go/pkg/model"
)

// Execute capability names. The execute capability is the OCF
// passthrough: it carries raw resource writes (href + payload) that
// have no regular capability command, such as the Comode option
// writes on mode/vs/0.
const (
	CapExecute      = "execute"
	AttrExecuteData = "data"
	CmdExecute      = "execute"
)

// ExecuteHandler processes a raw OCF resource write.
type ExecuteHandler func(ctx context.Context, href string, args map[string]any) (map[string]any, error)

// Execute wraps the execute capability.
type Execute struct {
	*model.Capability
}

// NewExecute creates a new execute capability backed by the given
// handler. The most recent handler result is mirrored in the data
// attribute.
func NewExecute(handler ExecuteHandler) *Execute {
	c := model.NewCapability(CapExecute, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrExecuteData,
		Type:        model.DataTypeMap,
		Nullable:    true,
		Description: "Result of the last execute call",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdExecute,
		Description: "Raw OCF resource write",
		Parameters: []model.ParameterMetadata{
			{Name: "command", Type: model.DataTypeString, Required: true},
			{Name: "args", Type: model.DataTypeMap, Required: false},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		href, ok := stringValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: command", model.ErrInvalidArgument)
		}

		var payload map[string]any
		if len(args) > 1 && args[1] != nil {
			payload, ok = mapValue(args[1])
			if !ok {
				return nil, fmt.Errorf("%w: args", model.ErrInvalidArgument)
			}
		}

		if handler == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrNoCommandHandler, CmdExecute)
		}

		result, err := handler(ctx, href, payload)
		if err != nil {
			return nil, err
		}
		if result != nil {
			_ = c.SetValue(AttrExecuteData, result)
		}
		return result, nil
	})

	return &Execute{Capability: c}
}

// Data returns the result of the last execute call.
func (e *Execute) Data() map[string]any {
	val, err := e.Value(AttrExecuteData)
	if err != nil || val == nil {
		return nil
	}
	m, _ := mapValue(val)
	return m
}

// ExecuteOf returns the execute capability of the device's main
// component.
func ExecuteOf(device *model.Device) (*Execute, error) {
	c, err := device.Capability(model.MainComponentID, CapExecute)
	if err != nil {
		return nil, err
	}
	return &Execute{Capability: c}, nil
}
