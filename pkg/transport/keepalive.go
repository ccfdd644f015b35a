package transport

import (
	"context"
	"sync"
	"time"
)

// Keep-alive defaults.
const (
	// DefaultPingInterval is the default time between liveness probes.
	DefaultPingInterval = 30 * time.Second

	// DefaultPingTimeout is the default time to wait for a probe reply.
	DefaultPingTimeout = 5 * time.Second

	// DefaultMaxMissedPings is the default number of consecutive failed
	// probes before the connection is declared dead.
	DefaultMaxMissedPings = 3
)

// KeepAliveConfig configures connection liveness probing.
type KeepAliveConfig struct {
	// PingInterval is the time between probes.
	PingInterval time.Duration

	// PingTimeout is how long each probe waits for its reply.
	PingTimeout time.Duration

	// MaxMissedPings is the number of consecutive failed probes before
	// the connection is declared dead.
	MaxMissedPings int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PingTimeout:    DefaultPingTimeout,
		MaxMissedPings: DefaultMaxMissedPings,
	}
}

// DetectionDelay returns the worst-case time between a peer going
// silent and the dead callback firing. With the defaults: 30s * 3 + 5s
// = 95 seconds.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPings) + c.PingTimeout
}

// PingFunc issues one liveness probe and returns its round-trip time.
// The context carries the probe deadline.
type PingFunc func(ctx context.Context) (time.Duration, error)

// KeepAlive probes an otherwise idle connection so a peer that
// vanished without a TCP reset is noticed within DetectionDelay
// instead of when the kernel finally gives up on the socket. It owns
// no socket itself: the connection owner supplies ping, and onDead
// tells it to tear the link down.
type KeepAlive struct {
	config KeepAliveConfig
	ping   PingFunc
	onDead func()

	mu       sync.Mutex
	onProbe  func(latency time.Duration)
	running  bool
	stopCh   chan struct{}
	missed   int
	probes   uint64
	lastSent time.Time
	lastSeen time.Time
}

// NewKeepAlive creates a keep-alive prober. Zero config fields fall
// back to defaults.
func NewKeepAlive(config KeepAliveConfig, ping PingFunc, onDead func()) *KeepAlive {
	if config.PingInterval <= 0 {
		config.PingInterval = DefaultPingInterval
	}
	if config.PingTimeout <= 0 {
		config.PingTimeout = DefaultPingTimeout
	}
	if config.MaxMissedPings <= 0 {
		config.MaxMissedPings = DefaultMaxMissedPings
	}

	return &KeepAlive{
		config: config,
		ping:   ping,
		onDead: onDead,
		stopCh: make(chan struct{}),
	}
}

// SetProbeCallback registers a callback invoked with the round-trip
// time of each successful probe.
func (ka *KeepAlive) SetProbeCallback(cb func(latency time.Duration)) {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	ka.onProbe = cb
}

// Start launches the probe loop. Starting a running instance is a
// no-op.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	if ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})
	stop := ka.stopCh
	ka.mu.Unlock()

	go ka.loop(ctx, stop)
}

// Stop ends the probe loop without declaring the connection dead.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if !ka.running {
		return
	}
	ka.running = false
	close(ka.stopCh)
}

// IsRunning reports whether the probe loop is active.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

// KeepAliveStats describes probing progress.
type KeepAliveStats struct {
	// Probes is the number of probes sent since Start.
	Probes uint64

	// MissedPings is the current run of consecutive failed probes.
	MissedPings int

	// LastProbeTime is when the most recent probe was sent.
	LastProbeTime time.Time

	// LastReplyTime is when the peer last answered a probe.
	LastReplyTime time.Time
}

// Stats returns a snapshot of probing progress.
func (ka *KeepAlive) Stats() KeepAliveStats {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return KeepAliveStats{
		Probes:        ka.probes,
		MissedPings:   ka.missed,
		LastProbeTime: ka.lastSent,
		LastReplyTime: ka.lastSeen,
	}
}

func (ka *KeepAlive) loop(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if !ka.probe(ctx) {
				return
			}
		}
	}
}

// probe sends one ping and reports whether the loop should continue.
func (ka *KeepAlive) probe(ctx context.Context) bool {
	ka.mu.Lock()
	ka.lastSent = time.Now()
	ka.probes++
	timeout := ka.config.PingTimeout
	ka.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	latency, err := ka.ping(pingCtx)
	cancel()

	if err != nil {
		// A canceled parent means shutdown, not a dead peer.
		if ctx.Err() != nil {
			return false
		}
		ka.mu.Lock()
		ka.missed++
		dead := ka.missed >= ka.config.MaxMissedPings
		ka.mu.Unlock()
		if dead {
			if ka.onDead != nil {
				ka.onDead()
			}
			return false
		}
		return true
	}

	ka.mu.Lock()
	ka.missed = 0
	ka.lastSeen = time.Now()
	cb := ka.onProbe
	ka.mu.Unlock()

	if cb != nil {
		cb(latency)
	}
	return true
}
