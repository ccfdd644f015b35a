package log

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/krac-home/krac-go/pkg/wire"
)

// captureEvent builds a wire-layer request event the way the device
// session logs one.
func captureEvent(connID string, capability string) Event {
	op := wire.OpCommand
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleDevice,
		Message: &MessageEvent{
			Type:       MessageTypeRequest,
			MessageID:  7,
			Operation:  &op,
			Component:  "main",
			Capability: capability,
		},
	}
}

func decodeAll(t *testing.T, path string) []Event {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	dec := NewDecoder(bytes.NewReader(data))
	var events []Event
	for {
		var event Event
		if err := dec.Decode(&event); err != nil {
			return events
		}
		events = append(events, event)
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.klog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	logger.Log(captureEvent("conn-1", "custom.airConditionerOptionalMode"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := decodeAll(t, path)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ConnectionID != "conn-1" {
		t.Errorf("ConnectionID = %q, want conn-1", got.ConnectionID)
	}
	if got.Message == nil || got.Message.Capability != "custom.airConditionerOptionalMode" {
		t.Errorf("message did not survive the round trip: %+v", got.Message)
	}
}

func TestFileLoggerAppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.klog")

	// Two logger lifetimes against the same path, like a restarted
	// device service pointed at its old capture.
	for _, conn := range []string{"conn-1", "conn-2"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger: %v", err)
		}
		logger.Log(captureEvent(conn, "switch"))
		if err := logger.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	events := decodeAll(t, path)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ConnectionID != "conn-1" || events[1].ConnectionID != "conn-2" {
		t.Errorf("events out of order: %q, %q", events[0].ConnectionID, events[1].ConnectionID)
	}
}

func TestFileLoggerConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.klog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWriter {
				logger.Log(captureEvent(fmt.Sprintf("conn-%d", i), "airConditionerMode"))
			}
		}()
	}
	wg.Wait()
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Every record must decode cleanly; interleaved writes would
	// corrupt the stream.
	if got := len(decodeAll(t, path)); got != writers*perWriter {
		t.Errorf("decoded %d events, want %d", got, writers*perWriter)
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.klog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(captureEvent("conn-1", "switch"))

	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	// Dropped, not panicking.
	logger.Log(captureEvent("conn-after-close", "switch"))
	if got := len(decodeAll(t, path)); got != 1 {
		t.Errorf("expected the post-close event dropped, decoded %d", got)
	}
}
