// Package wire defines the CBOR wire format for the local device
// link.
//
// Messages are CBOR (RFC 8949) maps with integer keys, framed with a
// 4-byte length prefix and transmitted over TCP.
//
// # Message Types
//
// There are three message types:
//   - Request: bridge to device (Status, Command, Subscribe, Execute,
//     Info, Ping)
//   - Response: device to bridge (success or error status)
//   - Notification: device to bridge (subscription updates)
//
// A message ID of zero identifies a notification. For nonzero IDs the
// value at key 2 tells requests and responses apart: operations
// occupy 1..15 and error statuses start at 16, with 0 reserved for
// success.
//
// # Nullable vs Absent
//
// Attribute maps distinguish between null and absent keys:
//   - Key absent: attribute not included in this message
//   - Key with value: attribute has this value
//   - Key with null: attribute value is explicitly null
package wire
