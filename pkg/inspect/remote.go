package inspect

import (
	"context"
	"errors"

	"github.com/krac-home/krac-go/pkg/model"
)

// Commander sends capability commands to a remote device. It is
// implemented by the commanders the bridge hands out per link.
type Commander interface {
	Command(ctx context.Context, component, capability, command string, args []any) error
}

// RemoteInspector provides inspection and command invocation for a
// device linked to the bridge. Reads come from the bridge's mirror of
// the device, which the subscription stream keeps current, so they
// never block on the network. Mutation is command-only: the protocol
// has no remote attribute write, state changes flow back as
// notifications after the device applies a command.
type RemoteInspector struct {
	deviceID  string
	inspector *Inspector
	commander Commander
}

// NewRemoteInspector creates a remote inspector over a device mirror
// and the commander that reaches the real device.
func NewRemoteInspector(deviceID string, mirror *model.Device, commander Commander) *RemoteInspector {
	return &RemoteInspector{
		deviceID:  deviceID,
		inspector: NewInspector(mirror),
		commander: commander,
	}
}

// DeviceID returns the remote device's ID.
func (r *RemoteInspector) DeviceID() string {
	return r.deviceID
}

// InspectDevice returns the mirrored device structure.
func (r *RemoteInspector) InspectDevice() *DeviceTree {
	return r.inspector.InspectDevice()
}

// InspectComponent returns mirrored information about a component.
func (r *RemoteInspector) InspectComponent(componentID string) (*ComponentInfo, error) {
	return r.inspector.InspectComponent(componentID)
}

// InspectCapability returns mirrored information about a capability.
func (r *RemoteInspector) InspectCapability(componentID, capabilityID string) (*CapabilityInfo, error) {
	return r.inspector.InspectCapability(componentID, capabilityID)
}

// ReadAttribute reads an attribute from the mirror.
func (r *RemoteInspector) ReadAttribute(path *Path) (any, *model.AttributeMetadata, error) {
	if path == nil {
		return nil, nil, errors.New("path is nil")
	}
	if path.IsPartial {
		return nil, nil, errors.New("path is partial, use ReadAllAttributes for capability-level reads")
	}
	return r.inspector.ReadAttribute(path)
}

// ReadAllAttributes reads all attribute values of a mirrored capability.
func (r *RemoteInspector) ReadAllAttributes(componentID, capabilityID string) (map[string]any, error) {
	return r.inspector.ReadAllAttributes(componentID, capabilityID)
}

// InvokeCommand sends a command to the remote device. The mirror does
// not carry command signatures, so the name travels as given and the
// device rejects commands it does not implement.
func (r *RemoteInspector) InvokeCommand(ctx context.Context, path *Path, args []any) error {
	if path == nil {
		return errors.New("path is nil")
	}
	if !path.IsCommand {
		return errors.New("path is not a command path")
	}

	return r.commander.Command(ctx, path.Component, path.Capability, path.Command, args)
}

// FormatDeviceTree formats the mirrored device tree for display.
func (r *RemoteInspector) FormatDeviceTree(tree *DeviceTree, formatter *Formatter) string {
	return r.inspector.FormatDeviceTree(tree, formatter)
}

// FormatComponent formats a mirrored component for display.
func (r *RemoteInspector) FormatComponent(comp *ComponentInfo, formatter *Formatter) string {
	return r.inspector.FormatComponent(comp, formatter)
}

// FormatCapability formats a mirrored capability for display.
func (r *RemoteInspector) FormatCapability(capability *CapabilityInfo, formatter *Formatter) string {
	return r.inspector.FormatCapability(capability, formatter)
}
