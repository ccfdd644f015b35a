package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for link messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for link messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix, // Unix timestamps
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeRequest encodes a request message to CBOR bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes CBOR bytes into a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response message to CBOR bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(resp)
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// EncodeNotification encodes a notification message to CBOR bytes.
// Notifications have messageId=0 which is handled automatically.
func EncodeNotification(notif *Notification) ([]byte, error) {
	wireMsg := struct {
		MessageID      uint32         `cbor:"1,keyasint"`
		SubscriptionID uint32         `cbor:"2,keyasint"`
		Component      string         `cbor:"3,keyasint"`
		Capability     string         `cbor:"4,keyasint"`
		Changes        map[string]any `cbor:"5,keyasint"`
	}{
		MessageID:      NotificationMessageID,
		SubscriptionID: notif.SubscriptionID,
		Component:      notif.Component,
		Capability:     notif.Capability,
		Changes:        notif.Changes,
	}
	return Marshal(wireMsg)
}

// DecodeNotification decodes CBOR bytes into a notification message.
func DecodeNotification(data []byte) (*Notification, error) {
	var wireMsg struct {
		MessageID      uint32         `cbor:"1,keyasint"`
		SubscriptionID uint32         `cbor:"2,keyasint"`
		Component      string         `cbor:"3,keyasint"`
		Capability     string         `cbor:"4,keyasint"`
		Changes        map[string]any `cbor:"5,keyasint"`
	}
	if err := Unmarshal(data, &wireMsg); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if wireMsg.MessageID != NotificationMessageID {
		return nil, fmt.Errorf("not a notification message: messageId=%d", wireMsg.MessageID)
	}
	return &Notification{
		SubscriptionID: wireMsg.SubscriptionID,
		Component:      wireMsg.Component,
		Capability:     wireMsg.Capability,
		Changes:        wireMsg.Changes,
	}, nil
}

// MessageType represents the type of a decoded message.
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeRequest
	MessageTypeResponse
	MessageTypeNotification
)

// statusBase is the first error status code. Key 2 values below it
// (other than zero) are operations.
const statusBase = 16

// PeekMessageType examines CBOR data to determine the message type
// without fully decoding it.
//
// Detection logic:
//   - Notification: messageId (key 1) = 0
//   - Response: key 2 is 0 (success) or >= 16 (error status)
//   - Request: key 2 is an operation in 1..15
func PeekMessageType(data []byte) (MessageType, error) {
	var peek struct {
		MessageID uint32 `cbor:"1,keyasint"`
		Kind      uint32 `cbor:"2,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}

	if peek.MessageID == NotificationMessageID {
		return MessageTypeNotification, nil
	}
	if peek.Kind == 0 || peek.Kind >= statusBase {
		return MessageTypeResponse, nil
	}
	return MessageTypeRequest, nil
}

// Clone creates a deep copy of the CBOR data by re-encoding.
// Useful for copying messages without shared references.
func Clone[T any](v T) (T, error) {
	var result T
	data, err := Marshal(v)
	if err != nil {
		return result, err
	}
	err = Unmarshal(data, &result)
	return result, err
}

// DecodePayloadAs re-encodes a raw decoded payload into its typed
// form. Response payloads decode as map[any]any; this recovers the
// struct the sender encoded.
func DecodePayloadAs[T any](payload any) (T, error) {
	var result T
	data, err := Marshal(payload)
	if err != nil {
		return result, err
	}
	err = Unmarshal(data, &result)
	return result, err
}

// Equal compares two values by their CBOR encoding.
func Equal(a, b any) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(dataA, dataB)
}
