package log

import (
	"testing"
	"time"
)

// recorder keeps every event it receives.
type recorder struct {
	events []Event
}

func (r *recorder) Log(event Event) {
	r.events = append(r.events, event)
}

func TestMultiLoggerFansOut(t *testing.T) {
	file := &recorder{}
	console := &recorder{}
	multi := NewMultiLogger(file, console)

	multi.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		DeviceID:     "krac-ac-1",
	})

	for name, r := range map[string]*recorder{"file": file, "console": console} {
		if len(r.events) != 1 {
			t.Errorf("%s logger got %d events, want 1", name, len(r.events))
			continue
		}
		if r.events[0].DeviceID != "krac-ac-1" {
			t.Errorf("%s logger DeviceID = %q", name, r.events[0].DeviceID)
		}
	}
}

func TestMultiLoggerPreservesOrder(t *testing.T) {
	r := &recorder{}
	multi := NewMultiLogger(NoopLogger{}, r)

	for _, conn := range []string{"conn-1", "conn-2", "conn-3"} {
		multi.Log(Event{ConnectionID: conn})
	}

	if len(r.events) != 3 {
		t.Fatalf("got %d events, want 3", len(r.events))
	}
	for i, want := range []string{"conn-1", "conn-2", "conn-3"} {
		if r.events[i].ConnectionID != want {
			t.Errorf("event %d = %q, want %q", i, r.events[i].ConnectionID, want)
		}
	}
}

func TestMultiLoggerWithNoTargets(t *testing.T) {
	NewMultiLogger().Log(Event{ConnectionID: "conn-1"})
}
