package connection

import (
	"testing"
	"time"
)

func TestBackoffDoublesToCap(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    100 * time.Millisecond,
		Max:        500 * time.Millisecond,
		Multiplier: 2.0,
	})

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}
	for i, exp := range want {
		if got := b.Next(); got != exp {
			t.Errorf("delay %d = %v, want %v", i, got, exp)
		}
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff()

	if got := b.Base(); got != InitialBackoff {
		t.Errorf("initial base = %v, want %v", got, InitialBackoff)
	}

	// Drain past the cap: 1s doubles to 60s within six attempts.
	for range 8 {
		b.Next()
	}
	if got := b.Base(); got != MaxBackoff {
		t.Errorf("base after draining = %v, want %v", got, MaxBackoff)
	}
}

func TestBackoffJitterExtendsDelay(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    time.Second,
		Max:        time.Second,
		Multiplier: 2.0,
		Jitter:     JitterFactor,
	})

	varied := false
	var first time.Duration
	for i := range 16 {
		d := b.Next()
		if d < time.Second || d > 1250*time.Millisecond {
			t.Fatalf("delay %v outside [1s, 1.25s]", d)
		}
		if i == 0 {
			first = d
		} else if d != first {
			varied = true
		}
	}
	if !varied {
		t.Error("every jittered delay was identical")
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff()

	for range 4 {
		b.Next()
	}
	if b.Base() <= InitialBackoff {
		t.Fatal("base should have grown before reset")
	}
	if b.Attempts() != 4 {
		t.Errorf("Attempts = %d, want 4", b.Attempts())
	}

	b.Reset()
	if b.Base() != InitialBackoff {
		t.Errorf("base after reset = %v, want %v", b.Base(), InitialBackoff)
	}
	if b.Attempts() != 0 {
		t.Errorf("Attempts after reset = %d, want 0", b.Attempts())
	}
}

func TestBackoffConfigFallbacks(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: -1})

	if b.cfg.Initial != InitialBackoff || b.cfg.Max != MaxBackoff {
		t.Errorf("delays = %v/%v, want package defaults", b.cfg.Initial, b.cfg.Max)
	}
	if b.cfg.Multiplier != BackoffMultiplier {
		t.Errorf("multiplier = %v, want %v", b.cfg.Multiplier, BackoffMultiplier)
	}
	if b.cfg.Jitter != 0 {
		t.Errorf("negative jitter should clamp to 0, got %v", b.cfg.Jitter)
	}
}
