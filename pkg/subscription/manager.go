package subscription

import (
	"context"
	"sync"
	"time"
)

// Notification represents a subscription notification to send.
type Notification struct {
	// SubscriptionID identifies the subscription.
	SubscriptionID uint32

	// Key is the "component/capability" key the changes belong to.
	// Empty for heartbeats carrying no values.
	Key string

	// Attributes maps attribute names to their values.
	Attributes map[string]any

	// IsHeartbeat indicates this is a heartbeat notification.
	IsHeartbeat bool

	// Timestamp is when the notification was generated.
	Timestamp time.Time
}

// Manager manages the subscriptions of one connection.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config Config

	// Active subscriptions by ID
	subscriptions map[uint32]*Subscription

	// Index by capability key for efficient change dispatch.
	// Subscriptions with an empty key list land in wildcard.
	byKey    map[string][]*Subscription
	wildcard []*Subscription

	// Callbacks
	onNotification func(Notification)
}

// NewManager creates a new subscription manager with default configuration.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a new subscription manager with custom configuration.
func NewManagerWithConfig(config Config) *Manager {
	if config.MaxSubscriptions <= 0 {
		config.MaxSubscriptions = DefaultMaxSubscriptions
	}
	if config.MaxKeysPerSub <= 0 {
		config.MaxKeysPerSub = DefaultMaxKeysPerSub
	}

	return &Manager{
		config:        config,
		subscriptions: make(map[uint32]*Subscription),
		byKey:         make(map[string][]*Subscription),
	}
}

// Subscribe creates a new subscription and returns the subscription ID.
// currentValues seeds the bounce-back baseline; the caller is expected
// to return the same values to the peer as the priming report.
func (m *Manager) Subscribe(
	keys []string,
	minInterval, maxInterval time.Duration,
	currentValues map[string]map[string]any,
) (uint32, error) {
	// Validate intervals
	if maxInterval == 0 {
		return 0, ErrInvalidInterval
	}
	if minInterval > maxInterval {
		if m.config.AutoCorrectIntervals {
			minInterval, maxInterval = maxInterval, minInterval
		} else {
			return 0, ErrInvalidInterval
		}
	}

	// Validate key count
	if len(keys) > m.config.MaxKeysPerSub {
		return 0, ErrTooManyKeys
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check subscription limit
	if len(m.subscriptions) >= m.config.MaxSubscriptions {
		return 0, ErrResourceExhausted
	}

	// Create subscription
	id := nextID()
	sub := NewSubscription(id, keys, minInterval, maxInterval)
	sub.SetPrimingValues(filterKeys(currentValues, keys))

	// Store subscription and update the key index
	m.subscriptions[id] = sub
	if len(keys) == 0 {
		m.wildcard = append(m.wildcard, sub)
	} else {
		for _, key := range keys {
			m.byKey[key] = append(m.byKey[key], sub)
		}
	}

	return id, nil
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, exists := m.subscriptions[subscriptionID]
	if !exists {
		return ErrSubscriptionNotFound
	}

	sub.Deactivate()
	delete(m.subscriptions, subscriptionID)

	// Remove from the key index
	if len(sub.Keys) == 0 {
		m.wildcard = removeSub(m.wildcard, subscriptionID)
	} else {
		for _, key := range sub.Keys {
			m.byKey[key] = removeSub(m.byKey[key], subscriptionID)
			if len(m.byKey[key]) == 0 {
				delete(m.byKey, key)
			}
		}
	}

	return nil
}

// NotifyChange records a value change for dispatch to relevant
// subscriptions. Changes are coalesced and notifications sent according
// to subscription intervals.
func (m *Manager) NotifyChange(key, attribute string, value any) {
	for _, sub := range m.subscribersOf(key) {
		sub.RecordChange(key, attribute, value)
	}
}

// NotifyChanges records multiple value changes for one capability at once.
func (m *Manager) NotifyChanges(key string, changes map[string]any) {
	for _, sub := range m.subscribersOf(key) {
		for attribute, value := range changes {
			sub.RecordChange(key, attribute, value)
		}
	}
}

// subscribersOf returns the subscriptions observing a capability key.
func (m *Manager) subscribersOf(key string) []*Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := make([]*Subscription, 0, len(m.byKey[key])+len(m.wildcard))
	subs = append(subs, m.byKey[key]...)
	subs = append(subs, m.wildcard...)
	return subs
}

// ProcessNotifications checks all subscriptions and sends pending
// notifications. Called periodically, either directly or via Run.
func (m *Manager) ProcessNotifications() {
	m.mu.RLock()
	subs := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	onNotify := m.onNotification
	config := m.config
	m.mu.RUnlock()

	if onNotify == nil {
		return
	}

	now := time.Now()
	for _, sub := range subs {
		// Check for pending changes
		if pending := sub.GetPendingNotifications(config.SuppressBounceBack); pending != nil {
			for key, attrs := range pending {
				onNotify(Notification{
					SubscriptionID: sub.ID,
					Key:            key,
					Attributes:     attrs,
					Timestamp:      now,
				})
			}
		}

		// Check for heartbeat
		if sub.NeedsHeartbeat() {
			m.sendHeartbeat(sub, config, onNotify, now)
		}
	}
}

func (m *Manager) sendHeartbeat(sub *Subscription, config Config, onNotify func(Notification), now time.Time) {
	sub.RecordHeartbeat()

	if config.HeartbeatMode == HeartbeatFull {
		if values := sub.CurrentValues(); len(values) > 0 {
			for key, attrs := range values {
				onNotify(Notification{
					SubscriptionID: sub.ID,
					Key:            key,
					Attributes:     attrs,
					IsHeartbeat:    true,
					Timestamp:      now,
				})
			}
			return
		}
	}

	onNotify(Notification{
		SubscriptionID: sub.ID,
		IsHeartbeat:    true,
		Timestamp:      now,
	})
}

// DefaultTick is the default cadence at which Run drains pending
// notifications. It bounds the extra latency on top of a
// subscription's minInterval.
const DefaultTick = 250 * time.Millisecond

// Run calls ProcessNotifications on a ticker until the context is
// cancelled. A tick of zero or less selects DefaultTick.
func (m *Manager) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ProcessNotifications()
		}
	}
}

// ClearAll removes all subscriptions (e.g., on connection loss).
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subscriptions {
		sub.Deactivate()
	}
	m.subscriptions = make(map[uint32]*Subscription)
	m.byKey = make(map[string][]*Subscription)
	m.wildcard = nil
}

// Count returns the number of active subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Get returns a subscription by ID.
func (m *Manager) Get(subscriptionID uint32) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, exists := m.subscriptions[subscriptionID]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// OnNotification sets the callback for notifications.
func (m *Manager) OnNotification(fn func(Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNotification = fn
}

// removeSub removes the subscription with the given ID from a slice.
func removeSub(subs []*Subscription, id uint32) []*Subscription {
	for i, s := range subs {
		if s.ID == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

// filterKeys returns only the values for observed capability keys.
// If keys is empty, all values are included.
func filterKeys(values map[string]map[string]any, keys []string) map[string]map[string]any {
	if len(keys) == 0 {
		result := make(map[string]map[string]any, len(values))
		for k, v := range values {
			result[k] = v
		}
		return result
	}

	result := make(map[string]map[string]any)
	for _, key := range keys {
		if v, exists := values[key]; exists {
			result[key] = v
		}
	}
	return result
}
