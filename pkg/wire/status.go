package wire

// Status represents a response status code. Zero is success; error
// codes start at 16 so they never collide with the operation range
// (see PeekMessageType).
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusUnsupportedComponent indicates the component doesn't exist.
	StatusUnsupportedComponent Status = 16

	// StatusUnsupportedCapability indicates the capability doesn't
	// exist on the component.
	StatusUnsupportedCapability Status = 17

	// StatusUnsupportedAttribute indicates the attribute doesn't exist.
	StatusUnsupportedAttribute Status = 18

	// StatusUnsupportedCommand indicates the command doesn't exist.
	StatusUnsupportedCommand Status = 19

	// StatusInvalidArguments indicates a command argument is missing,
	// of the wrong type, or out of range.
	StatusInvalidArguments Status = 20

	// StatusDeviceError indicates the device failed to apply the
	// operation.
	StatusDeviceError Status = 21

	// StatusBusy indicates the device is busy; try again later.
	StatusBusy Status = 22

	// StatusUnsupportedOperation indicates the operation code is not
	// known to the device.
	StatusUnsupportedOperation Status = 23

	// StatusTimeout indicates the operation timed out.
	StatusTimeout Status = 24
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnsupportedComponent:
		return "UNSUPPORTED_COMPONENT"
	case StatusUnsupportedCapability:
		return "UNSUPPORTED_CAPABILITY"
	case StatusUnsupportedAttribute:
		return "UNSUPPORTED_ATTRIBUTE"
	case StatusUnsupportedCommand:
		return "UNSUPPORTED_COMMAND"
	case StatusInvalidArguments:
		return "INVALID_ARGUMENTS"
	case StatusDeviceError:
		return "DEVICE_ERROR"
	case StatusBusy:
		return "BUSY"
	case StatusUnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
