package wire

// Operation represents a protocol operation. Operations occupy the
// range 1..15; see PeekMessageType.
type Operation uint8

const (
	// OpStatus reads the current attribute values of a capability.
	OpStatus Operation = 1

	// OpCommand invokes a capability command with arguments.
	OpCommand Operation = 2

	// OpSubscribe registers for change notifications.
	OpSubscribe Operation = 3

	// OpExecute performs a raw OCF resource write (href + payload).
	OpExecute Operation = 4

	// OpInfo reads the device identity and capability tree.
	OpInfo Operation = 5

	// OpPing checks connection liveness.
	OpPing Operation = 6
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpStatus:
		return "Status"
	case OpCommand:
		return "Command"
	case OpSubscribe:
		return "Subscribe"
	case OpExecute:
		return "Execute"
	case OpInfo:
		return "Info"
	case OpPing:
		return "Ping"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is known.
func (o Operation) IsValid() bool {
	return o >= OpStatus && o <= OpPing
}
