// Package transport provides the KRAC link transport layer.
//
// The transport layer handles:
//   - TCP connections between bridges and devices
//   - Length-prefixed message framing
//   - Connection state management
//   - Liveness monitoring driven by Ping requests
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Every frame carries a complete CBOR message. The transport does not
// interpret frame contents; request/response correlation and keep-alive
// pings live in the interaction layer above.
//
// # Keep-Alive
//
// Connection liveness is monitored with periodic Ping requests:
//   - Ping interval: 30 seconds
//   - Response timeout: 5 seconds
//   - Max missed responses: 3
//   - Maximum detection delay: 95 seconds
//
// The KeepAlive prober in this package only schedules probes and counts
// consecutive failures. The connection owner supplies the ping function,
// since pings are ordinary requests with message IDs; the bridge wires
// it to the interaction client's Ping on every device link.
package transport
