package connection

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Redial pacing defaults.
const (
	// InitialBackoff is the delay before the first redial.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the delay between redials.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier grows the base delay after each attempt.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum random extension as a fraction of the
	// base delay.
	JitterFactor = 0.25
)

// BackoffConfig customizes redial pacing. Zero fields fall back to the
// package defaults; Jitter 0 makes delays deterministic.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Backoff paces redial attempts for one device link. Each Next call
// hands out a jittered delay and grows the base until it caps out;
// Reset returns to the initial delay once the device answers again.
type Backoff struct {
	cfg BackoffConfig

	mu       sync.Mutex
	base     time.Duration
	attempts int
}

// NewBackoff creates a Backoff with the default pacing.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{})
}

// NewBackoffWithConfig creates a Backoff with custom pacing.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return &Backoff{cfg: cfg, base: cfg.Initial}
}

// Next returns the delay before the upcoming redial and advances the
// base for the attempt after it.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.base
	if b.cfg.Jitter > 0 {
		delay += time.Duration(float64(delay) * b.cfg.Jitter * rand.Float64())
	}

	b.attempts++
	b.base = min(time.Duration(float64(b.base)*b.cfg.Multiplier), b.cfg.Max)
	return delay
}

// Reset returns the pacing to the initial delay. Call it after a
// successful handshake, not after a successful dial.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.base = b.cfg.Initial
	b.attempts = 0
}

// Attempts reports how many delays Next handed out since the last
// Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Base returns the next unjittered delay without advancing the pacing.
func (b *Backoff) Base() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.base
}
