package wire

import (
	"fmt"
)

// CBOR map keys for message encoding. All messages use integer keys.
const (
	// Common message keys
	KeyMessageID  = 1
	KeyOpOrStatus = 2 // Operation (request) or Status (response)
	KeyComponent  = 3
	KeyCapability = 4
	KeyPayload    = 5

	// Notification-specific keys (messageId=0 indicates notification)
	KeySubscriptionID = 2 // Replaces operation/status for notifications
)

// MessageID 0 is reserved to indicate a notification message.
const NotificationMessageID uint32 = 0

// Request represents a request message from bridge to device.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32
//	  2: operation,    // uint8: 1=Status, 2=Command, 3=Subscribe,
//	                   //        4=Execute, 5=Info, 6=Ping
//	  3: component,    // string (absent for device-wide operations)
//	  4: capability,   // string
//	  5: payload       // operation-specific data
//	}
type Request struct {
	MessageID  uint32    `cbor:"1,keyasint"`
	Operation  Operation `cbor:"2,keyasint"`
	Component  string    `cbor:"3,keyasint,omitempty"`
	Capability string    `cbor:"4,keyasint,omitempty"`
	Payload    any       `cbor:"5,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == NotificationMessageID {
		return fmt.Errorf("messageId 0 is reserved for notifications")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	return nil
}

// Response represents a response message from device to bridge.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32: matches request
//	  2: status,       // uint8: 0=success, or error code >= 16
//	  3: payload       // operation-specific response data (if success)
//	}
type Response struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Status    Status `cbor:"2,keyasint"`
	Payload   any    `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Notification represents a subscription notification from device to
// bridge.
//
// CBOR encoding:
//
//	{
//	  1: 0,                // messageId 0 = notification
//	  2: subscriptionId,   // uint32
//	  3: component,        // string
//	  4: capability,       // string
//	  5: changes           // map of changed attributes
//	}
type Notification struct {
	SubscriptionID uint32         `cbor:"2,keyasint"`
	Component      string         `cbor:"3,keyasint"`
	Capability     string         `cbor:"4,keyasint"`
	Changes        map[string]any `cbor:"5,keyasint"`
}

// CapabilityKey joins a component and capability ID into the key
// subscriptions and priming reports are indexed by.
func CapabilityKey(component, capability string) string {
	return component + "/" + capability
}

// CommandPayload represents the payload for a Command request.
//
// CBOR encoding:
//
//	{
//	  1: name,       // string: capability command name
//	  2: arguments   // array of positional arguments
//	}
type CommandPayload struct {
	Name      string `cbor:"1,keyasint"`
	Arguments []any  `cbor:"2,keyasint,omitempty"`
}

// ExtractCommandPayload extracts a command payload from a raw
// CBOR-decoded value. After a wire round-trip the payload is
// map[any]any with uint64 keys, not *CommandPayload; this handles
// both forms.
func ExtractCommandPayload(payload any) *CommandPayload {
	if payload == nil {
		return nil
	}
	if cp, ok := payload.(*CommandPayload); ok {
		return cp
	}
	if cp, ok := payload.(CommandPayload); ok {
		return &cp
	}

	m := toUintKeyMap(payload)
	if m == nil {
		return nil
	}

	cp := &CommandPayload{}
	if name, ok := m[1].(string); ok {
		cp.Name = name
	}
	if args, ok := m[2].([]any); ok {
		cp.Arguments = args
	}
	if cp.Name == "" {
		return nil
	}
	return cp
}

// CommandResponsePayload carries the command result map, if any.
type CommandResponsePayload map[string]any

// ExecutePayload represents the payload for an Execute request.
//
// CBOR encoding:
//
//	{
//	  1: href,       // string: OCF resource path
//	  2: arguments   // map of resource properties
//	}
type ExecutePayload struct {
	Href      string         `cbor:"1,keyasint"`
	Arguments map[string]any `cbor:"2,keyasint,omitempty"`
}

// ExtractExecutePayload extracts an execute payload from a raw
// CBOR-decoded value.
func ExtractExecutePayload(payload any) *ExecutePayload {
	if payload == nil {
		return nil
	}
	if ep, ok := payload.(*ExecutePayload); ok {
		return ep
	}
	if ep, ok := payload.(ExecutePayload); ok {
		return &ep
	}

	m := toUintKeyMap(payload)
	if m == nil {
		return nil
	}

	ep := &ExecutePayload{}
	if href, ok := m[1].(string); ok {
		ep.Href = href
	}
	ep.Arguments = ToStringMap(m[2])
	if ep.Href == "" {
		return nil
	}
	return ep
}

// StatusResponsePayload carries the attribute values of one
// capability, keyed by attribute name.
type StatusResponsePayload map[string]any

// SubscribePayload represents the payload for a Subscribe request.
//
// CBOR encoding:
//
//	{
//	  1: capabilities,  // array of "component/capability" keys
//	                    // (empty = all)
//	  2: minInterval,   // uint32: minimum ms between notifications
//	  3: maxInterval    // uint32: maximum ms without notification
//	}
type SubscribePayload struct {
	Capabilities []string `cbor:"1,keyasint,omitempty"`
	MinInterval  uint32   `cbor:"2,keyasint,omitempty"`
	MaxInterval  uint32   `cbor:"3,keyasint,omitempty"`
}

// ExtractSubscribePayload extracts a subscribe payload from a raw
// CBOR-decoded value. Returns nil if there is no payload.
func ExtractSubscribePayload(payload any) *SubscribePayload {
	if payload == nil {
		return nil
	}
	if sp, ok := payload.(*SubscribePayload); ok {
		return sp
	}
	if sp, ok := payload.(SubscribePayload); ok {
		return &sp
	}

	m := toUintKeyMap(payload)
	if m == nil {
		return nil
	}

	sp := &SubscribePayload{}
	if arr, ok := m[1].([]any); ok {
		for _, item := range arr {
			if s, ok := item.(string); ok {
				sp.Capabilities = append(sp.Capabilities, s)
			}
		}
	}
	if v, ok := m[2].(uint64); ok {
		sp.MinInterval = uint32(v)
	}
	if v, ok := m[3].(uint64); ok {
		sp.MaxInterval = uint32(v)
	}
	return sp
}

// SubscribeResponsePayload represents the payload for a Subscribe
// response.
//
// CBOR encoding:
//
//	{
//	  1: subscriptionId,  // uint32
//	  2: currentValues    // priming report: capability key ->
//	                      // attribute name -> value
//	}
type SubscribeResponsePayload struct {
	SubscriptionID uint32                    `cbor:"1,keyasint"`
	CurrentValues  map[string]map[string]any `cbor:"2,keyasint,omitempty"`
}

// ExtractSubscribeResponsePayload extracts a subscribe response
// payload from a raw CBOR-decoded value.
func ExtractSubscribeResponsePayload(payload any) *SubscribeResponsePayload {
	if payload == nil {
		return nil
	}
	if sp, ok := payload.(*SubscribeResponsePayload); ok {
		return sp
	}
	if sp, ok := payload.(SubscribeResponsePayload); ok {
		return &sp
	}

	m := toUintKeyMap(payload)
	if m == nil {
		return nil
	}

	sp := &SubscribeResponsePayload{}
	if v, ok := m[1].(uint64); ok {
		sp.SubscriptionID = uint32(v)
	}
	if values := ToStringMap(m[2]); values != nil {
		sp.CurrentValues = make(map[string]map[string]any, len(values))
		for key, attrs := range values {
			sp.CurrentValues[key] = ToStringMap(attrs)
		}
	}
	return sp
}

// UnsubscribePayload represents the payload for an Unsubscribe
// request, sent as a Subscribe operation with no capability list.
//
// CBOR encoding:
//
//	{
//	  4: subscriptionId  // uint32: subscription to cancel
//	}
type UnsubscribePayload struct {
	SubscriptionID uint32 `cbor:"4,keyasint"`
}

// ExtractUnsubscribePayload extracts an unsubscribe payload. Returns
// nil when the payload carries no subscription ID to cancel.
func ExtractUnsubscribePayload(payload any) *UnsubscribePayload {
	if payload == nil {
		return nil
	}
	if up, ok := payload.(*UnsubscribePayload); ok {
		return up
	}
	if up, ok := payload.(UnsubscribePayload); ok {
		return &up
	}

	m := toUintKeyMap(payload)
	if m == nil {
		return nil
	}
	if v, ok := m[4].(uint64); ok {
		return &UnsubscribePayload{SubscriptionID: uint32(v)}
	}
	return nil
}

// DeviceInfoPayload is the response payload for an Info request. It
// describes the full component and capability tree of a device so a
// peer can build a local mirror without prior knowledge of the model.
//
// CBOR encoding:
//
//	{
//	  1: deviceId    // string
//	  2: model       // string: OCF model including firmware suffix
//	  3: label       // string: user-visible name
//	  4: components  // array of ComponentInfo
//	}
type DeviceInfoPayload struct {
	DeviceID   string          `cbor:"1,keyasint"`
	Model      string          `cbor:"2,keyasint,omitempty"`
	Label      string          `cbor:"3,keyasint,omitempty"`
	Components []ComponentInfo `cbor:"4,keyasint,omitempty"`
}

// ComponentInfo describes one component and its capabilities.
type ComponentInfo struct {
	ID           string           `cbor:"1,keyasint"`
	Capabilities []CapabilityInfo `cbor:"2,keyasint,omitempty"`
}

// CapabilityInfo describes one capability: its identifier plus the
// names of the attributes and commands it exposes. Attribute values
// are not carried here; peers fetch them with Status or the priming
// report of a subscription.
type CapabilityInfo struct {
	ID         string   `cbor:"1,keyasint"`
	Attributes []string `cbor:"2,keyasint,omitempty"`
	Commands   []string `cbor:"3,keyasint,omitempty"`
}

// Component returns the component with the given ID, or nil.
func (p *DeviceInfoPayload) Component(id string) *ComponentInfo {
	for i := range p.Components {
		if p.Components[i].ID == id {
			return &p.Components[i]
		}
	}
	return nil
}

// Capability returns the capability with the given ID, or nil.
func (c *ComponentInfo) Capability(id string) *CapabilityInfo {
	for i := range c.Capabilities {
		if c.Capabilities[i].ID == id {
			return &c.Capabilities[i]
		}
	}
	return nil
}

// ExtractDeviceInfoPayload converts a decoded Info response payload
// into its typed form. Returns nil when the payload does not carry a
// device description.
func ExtractDeviceInfoPayload(payload any) *DeviceInfoPayload {
	if payload == nil {
		return nil
	}
	if dp, ok := payload.(*DeviceInfoPayload); ok {
		return dp
	}
	if dp, ok := payload.(DeviceInfoPayload); ok {
		return &dp
	}

	dp, err := DecodePayloadAs[DeviceInfoPayload](payload)
	if err != nil || dp.DeviceID == "" {
		return nil
	}
	return &dp
}

// ErrorPayload represents additional error information in a response.
//
// CBOR encoding:
//
//	{
//	  1: message  // string: human-readable error message
//	}
type ErrorPayload struct {
	Message string `cbor:"1,keyasint,omitempty"`
}

// ExtractErrorPayload extracts an error payload from a raw
// CBOR-decoded value.
func ExtractErrorPayload(payload any) *ErrorPayload {
	if payload == nil {
		return nil
	}
	if ep, ok := payload.(*ErrorPayload); ok {
		return ep
	}
	if ep, ok := payload.(ErrorPayload); ok {
		return &ep
	}

	m := toUintKeyMap(payload)
	if m == nil {
		return nil
	}
	if msg, ok := m[1].(string); ok {
		return &ErrorPayload{Message: msg}
	}
	return nil
}

// toUintKeyMap normalizes a raw CBOR-decoded map to uint64 keys.
func toUintKeyMap(payload any) map[uint64]any {
	switch raw := payload.(type) {
	case map[uint64]any:
		return raw
	case map[any]any:
		m := make(map[uint64]any, len(raw))
		for k, v := range raw {
			switch key := k.(type) {
			case uint64:
				m[key] = v
			case int64:
				if key >= 0 {
					m[uint64(key)] = v
				}
			}
		}
		return m
	default:
		return nil
	}
}

// ToStringMap normalizes a raw CBOR-decoded map to string keys.
// Attribute and property maps travel with string keys but decode as
// map[any]any.
func ToStringMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
