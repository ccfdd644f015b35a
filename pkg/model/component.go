package model

import (
	"errors"
	"fmt"
	"sync"
)

// Component errors.
var (
	ErrCapabilityNotFound  = errors.New("capability not found")
	ErrDuplicateCapability = errors.New("capability already exists")
)

// MainComponentID is the ID of the component every device has.
// SmartThings addresses the primary capability set of a device as "main".
const MainComponentID = "main"

// Component is a named group of capabilities within a device.
// Most devices only have the "main" component; multi-part devices
// (e.g. a dual-zone unit) add more.
type Component struct {
	mu sync.RWMutex

	id     string
	device *Device

	capabilities map[string]*Capability
	capOrder     []string
}

// newComponent creates a component owned by the given device.
func newComponent(id string, device *Device) *Component {
	return &Component{
		id:           id,
		device:       device,
		capabilities: make(map[string]*Capability),
	}
}

// ID returns the component ID.
func (c *Component) ID() string {
	return c.id
}

// Device returns the owning device.
func (c *Component) Device() *Device {
	return c.device
}

// AddCapability adds a capability to the component.
func (c *Component) AddCapability(cap *Capability) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.capabilities[cap.ID()]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateCapability, c.id, cap.ID())
	}

	c.capabilities[cap.ID()] = cap
	c.capOrder = append(c.capOrder, cap.ID())
	return nil
}

// Capability returns a capability by ID.
func (c *Component) Capability(id string) (*Capability, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cap, exists := c.capabilities[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrCapabilityNotFound, c.id, id)
	}
	return cap, nil
}

// HasCapability returns true if the capability exists.
func (c *Component) HasCapability(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.capabilities[id]
	return exists
}

// Capabilities returns all capabilities in insertion order.
func (c *Component) Capabilities() []*Capability {
	c.mu.RLock()
	defer c.mu.RUnlock()

	caps := make([]*Capability, 0, len(c.capOrder))
	for _, id := range c.capOrder {
		caps = append(caps, c.capabilities[id])
	}
	return caps
}

// ComponentInfo is the wire representation of a component.
type ComponentInfo struct {
	ID           string           `cbor:"1,keyasint"`
	Capabilities []CapabilityInfo `cbor:"2,keyasint,omitempty"`
}

// Info returns the wire representation of this component.
func (c *Component) Info() ComponentInfo {
	info := ComponentInfo{ID: c.id}
	for _, cap := range c.Capabilities() {
		info.Capabilities = append(info.Capabilities, cap.Info())
	}
	return info
}
