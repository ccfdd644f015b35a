package log

import (
	"time"

	"github.com/krac-home/krac-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this side is a device or a bridge.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// DeviceID is the device identifier (populated once known).
	DeviceID string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent              `cbor:"9,keyasint,omitempty"`  // Transport layer
	Message     *MessageEvent            `cbor:"10,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent        `cbor:"11,keyasint,omitempty"` // Connection/session state
	Error       *ErrorEventData          `cbor:"12,keyasint,omitempty"` // Errors at any layer
	Snapshot    *CapabilitySnapshotEvent `cbor:"13,keyasint,omitempty"` // Capability tree capture
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerService is the application/service layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message (request/response/notification).
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategorySnapshot indicates a capability tree capture.
	CategorySnapshot Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategorySnapshot:
		return "SNAPSHOT"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is a device or a bridge.
type Role uint8

const (
	// RoleDevice indicates this is a device.
	RoleDevice Role = 0
	// RoleBridge indicates this is a bridge.
	RoleBridge Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "DEVICE"
	case RoleBridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded protocol message at the wire layer.
type MessageEvent struct {
	// Type distinguishes request/response/notification.
	Type MessageType `cbor:"1,keyasint"`

	// MessageID correlates request/response pairs (0 for notifications).
	MessageID uint32 `cbor:"2,keyasint"`

	// For requests: the operation being performed.
	Operation *wire.Operation `cbor:"3,keyasint,omitempty"`

	// For requests and notifications: the target component ID.
	Component string `cbor:"4,keyasint,omitempty"`

	// For requests and notifications: the target capability ID.
	Capability string `cbor:"5,keyasint,omitempty"`

	// For responses: the status code.
	Status *wire.Status `cbor:"6,keyasint,omitempty"`

	// For notifications: the subscription ID.
	SubscriptionID *uint32 `cbor:"7,keyasint,omitempty"`

	// Decoded payload (CBOR-compatible representation).
	Payload any `cbor:"8,keyasint,omitempty"`

	// ProcessingTime is the duration from request receipt to response send (response only).
	// Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"9,keyasint,omitempty"`
}

// MessageType distinguishes request/response/notification.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
	// MessageTypeNotification indicates a notification message.
	MessageTypeNotification MessageType = 2
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection, session, and service lifecycle
// events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 1
	// StateEntityService indicates a service lifecycle change.
	StateEntityService StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	case StateEntityService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// CapabilitySnapshotEvent captures the capability tree known on each
// side of a connection. A device records its local tree when it starts
// serving; a bridge records the remote tree it learned from the Info
// handshake. The shape matches the Info response payload so a log
// reader sees exactly what traveled on the wire.
type CapabilitySnapshotEvent struct {
	// Local is the capability tree of the logging side (devices).
	Local *wire.DeviceInfoPayload `cbor:"1,keyasint,omitempty"`

	// Remote is the capability tree learned from the peer (bridges).
	Remote *wire.DeviceInfoPayload `cbor:"2,keyasint,omitempty"`
}
