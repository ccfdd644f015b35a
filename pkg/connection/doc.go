// Package connection provides reconnection backoff for device links.
//
// The bridge keeps one link per appliance and redials it whenever the
// TCP connection drops. Each link owns a Backoff instance that paces
// the redial attempts:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Continue at 60s until successful
//  5. Reset to 1s on successful reconnection
//
// # Jitter
//
// To prevent thundering herd when multiple links reconnect at once:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// A redial counts as successful once the transport connects and the
// device answers the info handshake. Handshake rejection after a
// successful dial does NOT reset backoff.
package connection
