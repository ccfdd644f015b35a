// Package subscription implements change fan-out for KRAC devices.
//
// Subscriptions let a bridge receive notifications when capability
// attribute values change. The manager handles coalescing, heartbeats,
// and bounce-back suppression.
//
// # Subscription Parameters
//
// Each subscription has:
//   - minInterval: Minimum time between notifications (coalescing window)
//   - maxInterval: Maximum time without notification (heartbeat)
//   - keys: "component/capability" keys to observe (empty = all)
//
// # Coalescing Behavior
//
// When multiple changes occur within minInterval, only the final value
// is sent. This reduces traffic while ensuring the bridge sees the
// current state.
//
// The coalescing window starts when the first change occurs after the
// previous notification. Changes are accumulated until minInterval
// expires.
//
// # Bounce-Back Suppression
//
// If a value changes and then returns to its last notified value within
// the coalescing window, no notification is sent (net change is zero).
// This prevents unnecessary traffic from temporary fluctuations, e.g.
// a compressor briefly reporting an intermediate operating state.
//
// # Priming and Heartbeat
//
// The current values at subscribe time travel back in the subscribe
// response itself, not as a separate notification; the manager records
// them as the baseline for bounce-back detection. Heartbeat
// notifications are sent at maxInterval if no changes occur, confirming
// the subscription is alive.
//
// # Lifecycle
//
// Subscriptions do NOT survive connection loss. On reconnect, bridges
// must re-subscribe and receive fresh priming values.
package subscription
