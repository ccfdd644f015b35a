package inspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krac-home/krac-go/pkg/model"
)

// Inspector errors.
var (
	ErrComponentNotFound  = errors.New("component not found")
	ErrCapabilityNotFound = errors.New("capability not found")
	ErrAttributeNotFound  = errors.New("attribute not found")
	ErrCommandNotFound    = errors.New("command not found")
)

// Inspector provides inspection and mutation capabilities for a local device.
type Inspector struct {
	device *model.Device
}

// NewInspector creates a new Inspector for the given device.
func NewInspector(device *model.Device) *Inspector {
	return &Inspector{device: device}
}

// Device returns the underlying device model.
func (i *Inspector) Device() *model.Device {
	return i.device
}

// DeviceTree represents the complete device structure for display.
type DeviceTree struct {
	DeviceID     string
	Label        string
	Manufacturer string
	Model        string
	Firmware     string
	Components   []ComponentInfo
}

// ComponentInfo represents component information for display.
type ComponentInfo struct {
	ID           string
	Capabilities []CapabilityInfo
}

// CapabilityInfo represents capability information for display.
type CapabilityInfo struct {
	ID         string
	Version    int
	Attributes []AttributeInfo
	Commands   []CommandInfo
}

// AttributeInfo represents attribute information for display.
type AttributeInfo struct {
	Name     string
	Value    any
	Type     model.DataType
	Unit     string
	Nullable bool
}

// CommandInfo represents command information for display.
type CommandInfo struct {
	Name        string
	Parameters  []string
	Description string
}

// InspectDevice returns a complete tree of the device structure.
func (i *Inspector) InspectDevice() *DeviceTree {
	tree := &DeviceTree{
		DeviceID:     i.device.ID(),
		Label:        i.device.Label(),
		Manufacturer: i.device.Manufacturer(),
		Model:        i.device.Model(),
		Firmware:     i.device.Firmware(),
	}

	for _, comp := range i.device.Components() {
		tree.Components = append(tree.Components, i.inspectComponentInternal(comp))
	}

	return tree
}

// InspectComponent returns information about a specific component.
func (i *Inspector) InspectComponent(componentID string) (*ComponentInfo, error) {
	comp, err := i.component(componentID)
	if err != nil {
		return nil, err
	}

	info := i.inspectComponentInternal(comp)
	return &info, nil
}

func (i *Inspector) inspectComponentInternal(comp *model.Component) ComponentInfo {
	info := ComponentInfo{ID: comp.ID()}

	for _, capability := range comp.Capabilities() {
		info.Capabilities = append(info.Capabilities, i.inspectCapabilityInternal(capability))
	}

	return info
}

// InspectCapability returns information about a specific capability.
func (i *Inspector) InspectCapability(componentID, capabilityID string) (*CapabilityInfo, error) {
	capability, err := i.capability(componentID, capabilityID)
	if err != nil {
		return nil, err
	}

	info := i.inspectCapabilityInternal(capability)
	return &info, nil
}

func (i *Inspector) inspectCapabilityInternal(capability *model.Capability) CapabilityInfo {
	info := CapabilityInfo{
		ID:      capability.ID(),
		Version: capability.Version(),
	}

	for _, name := range capability.AttributeNames() {
		attr, err := capability.Attribute(name)
		if err != nil {
			continue
		}
		meta := attr.Metadata()
		info.Attributes = append(info.Attributes, AttributeInfo{
			Name:     meta.Name,
			Value:    attr.Value(),
			Type:     meta.Type,
			Unit:     meta.Unit,
			Nullable: meta.Nullable,
		})
	}

	for _, name := range capability.CommandNames() {
		cmd, err := capability.Command(name)
		if err != nil {
			continue
		}
		meta := cmd.Metadata()
		cmdInfo := CommandInfo{
			Name:        meta.Name,
			Description: meta.Description,
		}
		for _, param := range meta.Parameters {
			p := fmt.Sprintf("%s:%s", param.Name, param.Type)
			if !param.Required {
				p += "?"
			}
			cmdInfo.Parameters = append(cmdInfo.Parameters, p)
		}
		info.Commands = append(info.Commands, cmdInfo)
	}

	return info
}

// ReadAttribute reads an attribute value using a path.
func (i *Inspector) ReadAttribute(path *Path) (any, *model.AttributeMetadata, error) {
	capability, err := i.capability(path.Component, path.Capability)
	if err != nil {
		return nil, nil, err
	}

	attr, err := i.attribute(capability, path.Attribute)
	if err != nil {
		return nil, nil, err
	}

	return attr.Value(), attr.Metadata(), nil
}

// ReadAllAttributes reads all attribute values for a capability.
func (i *Inspector) ReadAllAttributes(componentID, capabilityID string) (map[string]any, error) {
	capability, err := i.capability(componentID, capabilityID)
	if err != nil {
		return nil, err
	}

	return capability.Values(), nil
}

// WriteAttribute writes an attribute value using a path. Validation of
// type, range and enum membership happens in the model layer.
func (i *Inspector) WriteAttribute(path *Path, value any) error {
	capability, err := i.capability(path.Component, path.Capability)
	if err != nil {
		return err
	}

	attr, err := i.attribute(capability, path.Attribute)
	if err != nil {
		return err
	}

	return capability.SetValue(attr.Name(), value)
}

// InvokeCommand invokes a capability command using a path. The command
// handler runs synchronously and its result map is returned.
func (i *Inspector) InvokeCommand(ctx context.Context, path *Path, args []any) (map[string]any, error) {
	capability, err := i.capability(path.Component, path.Capability)
	if err != nil {
		return nil, err
	}

	name, ok := matchName(capability.CommandNames(), path.Command)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, path.Command)
	}

	return capability.Invoke(ctx, name, args)
}

func (i *Inspector) component(id string) (*model.Component, error) {
	comp, err := i.device.Component(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, id)
	}
	return comp, nil
}

func (i *Inspector) capability(componentID, capabilityID string) (*model.Capability, error) {
	comp, err := i.component(componentID)
	if err != nil {
		return nil, err
	}

	if capability, err := comp.Capability(capabilityID); err == nil {
		return capability, nil
	}
	for _, capability := range comp.Capabilities() {
		if strings.EqualFold(capability.ID(), capabilityID) {
			return capability, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCapabilityNotFound, capabilityID)
}

func (i *Inspector) attribute(capability *model.Capability, name string) (*model.Attribute, error) {
	resolved, ok := matchName(capability.AttributeNames(), name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
	}
	attr, err := capability.Attribute(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
	}
	return attr, nil
}

// FormatDeviceTree formats the device tree for display.
func (i *Inspector) FormatDeviceTree(tree *DeviceTree, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Device: %s (%s)\n", tree.DeviceID, tree.Label)
	fmt.Fprintf(&sb, "Manufacturer: %s  Model: %s  Firmware: %s\n", tree.Manufacturer, tree.Model, tree.Firmware)
	sb.WriteString("---\n")

	for _, comp := range tree.Components {
		sb.WriteString(i.formatComponent(&comp, formatter, 0))
	}

	return sb.String()
}

// FormatComponent formats a component for display.
func (i *Inspector) FormatComponent(comp *ComponentInfo, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return i.formatComponent(comp, formatter, 0)
}

func (i *Inspector) formatComponent(comp *ComponentInfo, f *Formatter, depth int) string {
	var sb strings.Builder

	sb.WriteString(f.Indent(depth, fmt.Sprintf("Component: %s", comp.ID)) + "\n")

	for _, capability := range comp.Capabilities {
		sb.WriteString(i.formatCapability(&capability, f, depth+1))
	}

	return sb.String()
}

// FormatCapability formats a capability for display.
func (i *Inspector) FormatCapability(capability *CapabilityInfo, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return i.formatCapability(capability, formatter, 0)
}

func (i *Inspector) formatCapability(capability *CapabilityInfo, f *Formatter, depth int) string {
	var sb strings.Builder

	sb.WriteString(f.Indent(depth, fmt.Sprintf("%s (v%d)", capability.ID, capability.Version)) + "\n")

	for _, attr := range capability.Attributes {
		line := fmt.Sprintf("%s = %s", attr.Name, f.FormatValue(attr.Value, attr.Unit))
		if f.ShowMetadata {
			line += fmt.Sprintf("  (%s", attr.Type)
			if attr.Nullable {
				line += ", nullable"
			}
			line += ")"
		}
		sb.WriteString(f.Indent(depth+1, line) + "\n")
	}

	for _, cmd := range capability.Commands {
		line := fmt.Sprintf("[cmd] %s", cmd.Name)
		if len(cmd.Parameters) > 0 {
			line += fmt.Sprintf("(%s)", strings.Join(cmd.Parameters, ", "))
		}
		sb.WriteString(f.Indent(depth+1, line) + "\n")
	}

	return sb.String()
}
