package model

import (
	"errors"
	"fmt"
	"sync"
)

// Device errors.
var (
	ErrComponentNotFound  = errors.New("component not found")
	ErrDuplicateComponent = errors.New("component already exists")
)

// Device is the root of the model: a physical or simulated appliance
// with a stable identity and one or more components.
type Device struct {
	mu sync.RWMutex

	id           string // UUID
	label        string
	manufacturer string
	model        string // OCF model string, e.g. "ARTIK051_KRAC_18K|10193141|..."
	firmware     string

	components map[string]*Component
	compOrder  []string
}

// NewDevice creates a new device with an empty "main" component.
func NewDevice(id, label, manufacturer, model, firmware string) *Device {
	d := &Device{
		id:           id,
		label:        label,
		manufacturer: manufacturer,
		model:        model,
		firmware:     firmware,
		components:   make(map[string]*Component),
	}
	d.components[MainComponentID] = newComponent(MainComponentID, d)
	d.compOrder = append(d.compOrder, MainComponentID)
	return d
}

// ID returns the device ID.
func (d *Device) ID() string {
	return d.id
}

// Label returns the user-facing device label.
func (d *Device) Label() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.label
}

// SetLabel updates the user-facing device label.
func (d *Device) SetLabel(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = label
}

// Manufacturer returns the manufacturer name.
func (d *Device) Manufacturer() string {
	return d.manufacturer
}

// Model returns the raw OCF model string.
func (d *Device) Model() string {
	return d.model
}

// Firmware returns the firmware version.
func (d *Device) Firmware() string {
	return d.firmware
}

// AddComponent adds a new component and returns it.
func (d *Device) AddComponent(id string) (*Component, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.components[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, id)
	}

	comp := newComponent(id, d)
	d.components[id] = comp
	d.compOrder = append(d.compOrder, id)
	return comp, nil
}

// Component returns a component by ID.
func (d *Device) Component(id string) (*Component, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	comp, exists := d.components[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, id)
	}
	return comp, nil
}

// MainComponent returns the "main" component.
func (d *Device) MainComponent() *Component {
	comp, _ := d.Component(MainComponentID)
	return comp
}

// Components returns all components in insertion order.
func (d *Device) Components() []*Component {
	d.mu.RLock()
	defer d.mu.RUnlock()

	comps := make([]*Component, 0, len(d.compOrder))
	for _, id := range d.compOrder {
		comps = append(comps, d.components[id])
	}
	return comps
}

// ComponentCount returns the number of components.
func (d *Device) ComponentCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.components)
}

// Capability resolves a capability by component and capability ID.
func (d *Device) Capability(componentID, capabilityID string) (*Capability, error) {
	comp, err := d.Component(componentID)
	if err != nil {
		return nil, err
	}
	return comp.Capability(capabilityID)
}

// Subscribe registers a subscriber on every capability of every component.
func (d *Device) Subscribe(sub CapabilitySubscriber) {
	for _, comp := range d.Components() {
		for _, cap := range comp.Capabilities() {
			cap.Subscribe(sub)
		}
	}
}

// Unsubscribe removes a subscriber from every capability of every component.
func (d *Device) Unsubscribe(sub CapabilitySubscriber) {
	for _, comp := range d.Components() {
		for _, cap := range comp.Capabilities() {
			cap.Unsubscribe(sub)
		}
	}
}

// DeviceInfo is the wire representation of a device.
type DeviceInfo struct {
	ID           string          `cbor:"1,keyasint"`
	Label        string          `cbor:"2,keyasint"`
	Manufacturer string          `cbor:"3,keyasint,omitempty"`
	Model        string          `cbor:"4,keyasint,omitempty"`
	Firmware     string          `cbor:"5,keyasint,omitempty"`
	Components   []ComponentInfo `cbor:"6,keyasint,omitempty"`
}

// Info returns the wire representation of this device.
func (d *Device) Info() DeviceInfo {
	info := DeviceInfo{
		ID:           d.id,
		Label:        d.Label(),
		Manufacturer: d.manufacturer,
		Model:        d.model,
		Firmware:     d.firmware,
	}
	for _, comp := range d.Components() {
		info.Components = append(info.Components, comp.Info())
	}
	return info
}
