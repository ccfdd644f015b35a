package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/krac-home/krac-go/pkg/log"
	"github.com/krac-home/krac-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.klog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 2, 10, 10, 15, 32, 123456000, time.UTC)
	op := wire.OpStatus
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Message: &log.MessageEvent{
				Type:       log.MessageTypeRequest,
				MessageID:  42,
				Operation:  &op,
				Component:  "main",
				Capability: "switch",
			},
		},
		{
			Timestamp:    ts.Add(time.Second),
			ConnectionID: "abc12345",
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Message: &log.MessageEvent{
				Type:      log.MessageTypeResponse,
				MessageID: 42,
			},
		},
	}

	path := createTestLogFile(t, events)

	// Export to JSONL in memory (via temp file)
	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	err := RunExport(path, "jsonl", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	// Read and verify
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}

	// Parse first line
	var event1 map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event1); err != nil {
		t.Errorf("failed to parse line 1: %v", err)
	}
	if event1["ConnectionID"] != "abc12345" {
		t.Errorf("expected ConnectionID abc12345, got %v", event1["ConnectionID"])
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 2, 10, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Direction:    log.DirectionOut,
			Layer:        log.LayerTransport,
			Category:     log.CategoryMessage,
			Frame: &log.FrameEvent{
				Size: 64,
				Data: []byte{0x01, 0x02},
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	err := RunExport(path, "csv", outPath)
	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	// Check header
	if !strings.HasPrefix(string(data), "timestamp,connection_id,direction,layer,category") {
		t.Errorf("expected CSV header, got: %s", string(data[:50]))
	}

	// Check data row exists
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		t.Errorf("expected header + data row, got %d lines", len(lines))
	}
}

func TestExportCSVSnapshotRow(t *testing.T) {
	ts := time.Date(2026, 2, 10, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Direction:    log.DirectionIn,
			Layer:        log.LayerService,
			Category:     log.CategorySnapshot,
			DeviceID:     "ac-1",
			RemoteAddr:   "192.168.1.40:8912",
			Snapshot: &log.CapabilitySnapshotEvent{
				Remote: &wire.DeviceInfoPayload{
					DeviceID: "ac-1",
					Components: []wire.ComponentInfo{
						{ID: "main", Capabilities: []wire.CapabilityInfo{
							{ID: "switch", Attributes: []string{"switch"}},
						}},
					},
				},
			},
		},
	}

	path := createTestLogFile(t, events)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + data row, got %d lines", len(lines))
	}
	row := lines[1]
	if !strings.Contains(row, "snapshot") {
		t.Errorf("expected snapshot type in row, got: %s", row)
	}
	if !strings.Contains(row, "ac-1") {
		t.Errorf("expected device ID in row, got: %s", row)
	}
	if !strings.Contains(row, "192.168.1.40:8912") {
		t.Errorf("expected remote addr in row, got: %s", row)
	}
}

func TestExportWritesToStdout(t *testing.T) {
	ts := time.Date(2026, 2, 10, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Direction:    log.DirectionOut,
			Layer:        log.LayerTransport,
			Category:     log.CategoryMessage,
			Frame:        &log.FrameEvent{Size: 64},
		},
	}

	path := createTestLogFile(t, events)

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunExport(path, "jsonl", "") // empty output means stdout

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if buf.Len() == 0 {
		t.Error("expected output to stdout")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	ts := time.Date(2026, 2, 10, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Frame:        &log.FrameEvent{Size: 64},
		},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.xml")

	err := RunExport(path, "xml", outPath)
	if err == nil {
		t.Error("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected 'unknown format' error, got: %v", err)
	}
}
