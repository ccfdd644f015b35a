package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Capability errors.
var (
	ErrAttributeNotFound  = errors.New("attribute not found")
	ErrDuplicateAttribute = errors.New("attribute already exists")
	ErrDuplicateCommand   = errors.New("command already exists")
)

// CapabilitySubscriber receives attribute change notifications.
type CapabilitySubscriber interface {
	// OnAttributeChanged is called after an attribute value changed.
	// It is invoked outside the capability lock.
	OnAttributeChanged(capabilityID, attribute string, value any)
}

// Capability is a named group of attributes and commands, e.g.
// "switch", "airConditionerMode", or "custom.airConditionerOptionalMode".
type Capability struct {
	mu sync.RWMutex

	id      string
	version int

	attributes map[string]*Attribute
	attrOrder  []string

	commands map[string]*Command
	cmdOrder []string

	subscribers []CapabilitySubscriber
}

// NewCapability creates a new capability with the given ID.
func NewCapability(id string, version int) *Capability {
	return &Capability{
		id:         id,
		version:    version,
		attributes: make(map[string]*Attribute),
		commands:   make(map[string]*Command),
	}
}

// ID returns the capability ID.
func (c *Capability) ID() string {
	return c.id
}

// Version returns the capability version.
func (c *Capability) Version() int {
	return c.version
}

// AddAttribute adds an attribute to the capability.
func (c *Capability) AddAttribute(meta *AttributeMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.attributes[meta.Name]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateAttribute, c.id, meta.Name)
	}

	c.attributes[meta.Name] = NewAttribute(meta)
	c.attrOrder = append(c.attrOrder, meta.Name)
	return nil
}

// Attribute returns an attribute by name.
func (c *Capability) Attribute(name string) (*Attribute, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	attr, exists := c.attributes[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrAttributeNotFound, c.id, name)
	}
	return attr, nil
}

// HasAttribute returns true if the attribute exists.
func (c *Capability) HasAttribute(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.attributes[name]
	return exists
}

// Value returns the current value of an attribute.
func (c *Capability) Value(name string) (any, error) {
	attr, err := c.Attribute(name)
	if err != nil {
		return nil, err
	}
	return attr.Value(), nil
}

// SetValue validates and sets an attribute value, notifying subscribers
// when the value actually changed.
func (c *Capability) SetValue(name string, value any) error {
	attr, err := c.Attribute(name)
	if err != nil {
		return err
	}

	changed, err := attr.SetValue(value)
	if err != nil {
		return err
	}

	if changed {
		c.notifyAttributeChanged(name, value)
	}
	return nil
}

// Values returns a snapshot of all attribute values.
func (c *Capability) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := make(map[string]any, len(c.attributes))
	for name, attr := range c.attributes {
		values[name] = attr.Value()
	}
	return values
}

// AttributeNames returns all attribute names in insertion order.
func (c *Capability) AttributeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.attrOrder))
	copy(names, c.attrOrder)
	return names
}

// DirtyValues returns the values of all dirty attributes and clears
// their dirty flags.
func (c *Capability) DirtyValues() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dirty := make(map[string]any)
	for name, attr := range c.attributes {
		if attr.IsDirty() {
			dirty[name] = attr.Value()
			attr.ClearDirty()
		}
	}
	return dirty
}

// AddCommand adds a command to the capability.
func (c *Capability) AddCommand(meta *CommandMetadata, handler CommandHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.commands[meta.Name]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateCommand, c.id, meta.Name)
	}

	c.commands[meta.Name] = NewCommand(meta, handler)
	c.cmdOrder = append(c.cmdOrder, meta.Name)
	return nil
}

// Command returns a command by name.
func (c *Capability) Command(name string) (*Command, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cmd, exists := c.commands[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrCommandNotFound, c.id, name)
	}
	return cmd, nil
}

// CommandNames returns all command names in insertion order.
func (c *Capability) CommandNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.cmdOrder))
	copy(names, c.cmdOrder)
	return names
}

// Invoke validates and executes a command by name.
func (c *Capability) Invoke(ctx context.Context, name string, args []any) (map[string]any, error) {
	cmd, err := c.Command(name)
	if err != nil {
		return nil, err
	}
	return cmd.Invoke(ctx, args)
}

// Subscribe registers a subscriber for attribute changes.
func (c *Capability) Subscribe(sub CapabilitySubscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, sub)
}

// Unsubscribe removes a previously registered subscriber.
func (c *Capability) Unsubscribe(sub CapabilitySubscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subscribers {
		if s == sub {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			return
		}
	}
}

// notifyAttributeChanged notifies all subscribers of a change.
// Subscribers are called outside the capability lock so they may
// read back values without deadlocking.
func (c *Capability) notifyAttributeChanged(attribute string, value any) {
	c.mu.RLock()
	subs := make([]CapabilitySubscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.RUnlock()

	for _, sub := range subs {
		sub.OnAttributeChanged(c.id, attribute, value)
	}
}

// AttributeInfo is the wire representation of an attribute's metadata.
type AttributeInfo struct {
	Name     string `cbor:"1,keyasint"`
	Type     uint8  `cbor:"2,keyasint"`
	Unit     string `cbor:"3,keyasint,omitempty"`
	Nullable bool   `cbor:"4,keyasint,omitempty"`
}

// CommandInfo is the wire representation of a command's signature.
type CommandInfo struct {
	Name       string   `cbor:"1,keyasint"`
	Parameters []string `cbor:"2,keyasint,omitempty"`
}

// CapabilityInfo is the wire representation of a capability.
type CapabilityInfo struct {
	ID         string          `cbor:"1,keyasint"`
	Version    int             `cbor:"2,keyasint"`
	Attributes []AttributeInfo `cbor:"3,keyasint,omitempty"`
	Commands   []CommandInfo   `cbor:"4,keyasint,omitempty"`
}

// Info returns the wire representation of this capability.
func (c *Capability) Info() CapabilityInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := CapabilityInfo{
		ID:      c.id,
		Version: c.version,
	}

	for _, name := range c.attrOrder {
		meta := c.attributes[name].Metadata()
		info.Attributes = append(info.Attributes, AttributeInfo{
			Name:     meta.Name,
			Type:     uint8(meta.Type),
			Unit:     meta.Unit,
			Nullable: meta.Nullable,
		})
	}

	for _, name := range c.cmdOrder {
		meta := c.commands[name].Metadata()
		ci := CommandInfo{Name: meta.Name}
		for _, p := range meta.Parameters {
			ci.Parameters = append(ci.Parameters, p.Name)
		}
		info.Commands = append(info.Commands, ci)
	}

	return info
}
