package subscription

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krac-home/krac-go/pkg/wire"
)

// Subscription errors.
var (
	ErrInvalidInterval      = errors.New("invalid subscription interval")
	ErrResourceExhausted    = errors.New("maximum subscriptions reached")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrTooManyKeys          = errors.New("too many capability keys")
)

// Default subscription limits.
const (
	DefaultMinInterval      = 1 * time.Second
	DefaultMaxInterval      = 60 * time.Second
	DefaultMaxSubscriptions = 50
	DefaultMaxKeysPerSub    = 100
)

// HeartbeatMode specifies what content is sent in heartbeat notifications.
type HeartbeatMode uint8

const (
	// HeartbeatEmpty sends only the subscription ID and timestamp.
	HeartbeatEmpty HeartbeatMode = iota

	// HeartbeatFull sends all observed capabilities with their last
	// known values.
	HeartbeatFull
)

// String returns a human-readable heartbeat mode name.
func (m HeartbeatMode) String() string {
	switch m {
	case HeartbeatEmpty:
		return "EMPTY"
	case HeartbeatFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// Config holds subscription manager configuration.
type Config struct {
	// MaxSubscriptions is the maximum number of subscriptions allowed.
	MaxSubscriptions int

	// MaxKeysPerSub is the maximum capability keys per subscription.
	MaxKeysPerSub int

	// HeartbeatMode specifies heartbeat content (empty or full).
	HeartbeatMode HeartbeatMode

	// SuppressBounceBack enables bounce-back suppression.
	SuppressBounceBack bool

	// AutoCorrectIntervals swaps min/max if min > max.
	AutoCorrectIntervals bool
}

// DefaultConfig returns the default subscription configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubscriptions:     DefaultMaxSubscriptions,
		MaxKeysPerSub:        DefaultMaxKeysPerSub,
		HeartbeatMode:        HeartbeatFull,
		SuppressBounceBack:   true,
		AutoCorrectIntervals: false,
	}
}

// Subscription represents an active subscription. A single
// subscription may observe several capabilities; pending changes are
// tracked per "component/capability" key with attribute-name maps.
type Subscription struct {
	mu sync.RWMutex

	// ID is the unique subscription identifier.
	ID uint32

	// Keys lists observed "component/capability" keys (empty = all).
	Keys []string

	// MinInterval is the minimum time between notifications.
	MinInterval time.Duration

	// MaxInterval is the maximum time without notification (heartbeat).
	MaxInterval time.Duration

	// lastNotified is when the last notification was sent.
	lastNotified time.Time

	// lastValues holds the last notified values per capability key,
	// for bounce-back detection and full heartbeats.
	lastValues map[string]map[string]any

	// pendingChanges accumulates changes during the coalescing window.
	pendingChanges map[string]map[string]any

	// changeWindowStart is when the first change occurred in the
	// current window.
	changeWindowStart time.Time

	// hasChanges indicates pending changes exist.
	hasChanges bool

	// active indicates if the subscription is active.
	active bool
}

// NewSubscription creates a new subscription.
func NewSubscription(id uint32, keys []string, minInterval, maxInterval time.Duration) *Subscription {
	return &Subscription{
		ID:             id,
		Keys:           keys,
		MinInterval:    minInterval,
		MaxInterval:    maxInterval,
		lastNotified:   time.Now(),
		lastValues:     make(map[string]map[string]any),
		pendingChanges: make(map[string]map[string]any),
		active:         true,
	}
}

// IsActive returns whether the subscription is active.
func (s *Subscription) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Deactivate marks the subscription as inactive.
func (s *Subscription) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// Covers returns true if the capability key is part of this
// subscription. An empty key list means all capabilities.
func (s *Subscription) Covers(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.covers(key)
}

func (s *Subscription) covers(key string) bool {
	if len(s.Keys) == 0 {
		return true
	}
	for _, k := range s.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// RecordChange records an attribute value change for a capability.
// Returns true if this is a new change that starts the coalescing window.
func (s *Subscription) RecordChange(key, attribute string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.covers(key) {
		return false
	}

	// Start coalescing window if this is the first change
	isNewWindow := !s.hasChanges
	if isNewWindow {
		s.changeWindowStart = time.Now()
	}

	attrs := s.pendingChanges[key]
	if attrs == nil {
		attrs = make(map[string]any)
		s.pendingChanges[key] = attrs
	}
	attrs[attribute] = value
	s.hasChanges = true

	return isNewWindow
}

// GetPendingNotifications returns per-capability attribute maps that
// should be notified. It implements bounce-back suppression and clears
// pending changes. Returns nil if no notification is needed.
func (s *Subscription) GetPendingNotifications(suppressBounceBack bool) map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.hasChanges {
		return nil
	}

	// Check if the coalescing window has elapsed
	if time.Since(s.changeWindowStart) < s.MinInterval {
		return nil
	}

	out := make(map[string]map[string]any)
	for key, attrs := range s.pendingChanges {
		last := s.lastValues[key]
		changed := make(map[string]any)

		for name, value := range attrs {
			// Bounce-back suppression: skip if value equals last notified
			if suppressBounceBack && last != nil {
				if prev, exists := last[name]; exists && wire.Equal(prev, value) {
					continue
				}
			}
			changed[name] = value
			if last == nil {
				last = make(map[string]any)
				s.lastValues[key] = last
			}
			last[name] = value
		}

		if len(changed) > 0 {
			out[key] = changed
		}
	}

	// Clear pending changes
	s.pendingChanges = make(map[string]map[string]any)
	s.hasChanges = false
	s.lastNotified = time.Now()

	if len(out) == 0 {
		return nil // All changes were bounce-backs
	}
	return out
}

// NeedsHeartbeat returns true if maxInterval has elapsed since the
// last notification.
func (s *Subscription) NeedsHeartbeat() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return false
	}
	return time.Since(s.lastNotified) >= s.MaxInterval
}

// RecordHeartbeat records that a heartbeat was sent.
func (s *Subscription) RecordHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNotified = time.Now()
}

// SetPrimingValues seeds the last-notified values from the priming
// report sent in the subscribe response.
func (s *Subscription) SetPrimingValues(values map[string]map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, attrs := range values {
		last := s.lastValues[key]
		if last == nil {
			last = make(map[string]any, len(attrs))
			s.lastValues[key] = last
		}
		for name, value := range attrs {
			last[name] = value
		}
	}
	s.lastNotified = time.Now()
}

// CurrentValues returns a copy of the last known values per capability.
func (s *Subscription) CurrentValues() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]any, len(s.lastValues))
	for key, attrs := range s.lastValues {
		copied := make(map[string]any, len(attrs))
		for name, value := range attrs {
			copied[name] = value
		}
		out[key] = copied
	}
	return out
}

// TimeSinceLastNotification returns time since the last notification.
func (s *Subscription) TimeSinceLastNotification() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastNotified)
}

// TimeUntilCoalesceExpiry returns time until the coalescing window
// expires. Returns 0 if no changes are pending.
func (s *Subscription) TimeUntilCoalesceExpiry() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasChanges {
		return 0
	}

	elapsed := time.Since(s.changeWindowStart)
	if elapsed >= s.MinInterval {
		return 0
	}
	return s.MinInterval - elapsed
}

// idGenerator generates unique subscription IDs.
var idGenerator atomic.Uint32

// nextID returns the next unique subscription ID.
func nextID() uint32 {
	return idGenerator.Add(1)
}
