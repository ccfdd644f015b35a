package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Reader streams events out of a .klog capture file. Records are
// decoded one at a time, so arbitrarily large captures read in
// constant memory.
type Reader struct {
	src    io.ReadCloser
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens a capture file for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a capture file and returns only events
// matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{src: f, dec: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF once the capture is
// exhausted.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.match(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.src.Close()
}

// Filter selects events from a capture. Zero fields match everything
// for their criterion, so the zero Filter passes every event.
type Filter struct {
	// ConnectionID selects one connection's events.
	ConnectionID string

	// Direction selects inbound or outbound events.
	Direction *Direction

	// Layer selects events captured at one protocol layer.
	Layer *Layer

	// Category selects one event category.
	Category *Category

	// TimeStart keeps events at or after this time.
	TimeStart *time.Time

	// TimeEnd keeps events before this time.
	TimeEnd *time.Time

	// DeviceID selects one device's events.
	DeviceID string

	// Capability selects wire-layer message events by capability ID,
	// case-insensitively. Events carrying no capability never match.
	Capability string
}

func (f *Filter) match(event Event) bool {
	switch {
	case f.ConnectionID != "" && event.ConnectionID != f.ConnectionID:
		return false
	case f.Direction != nil && event.Direction != *f.Direction:
		return false
	case f.Layer != nil && event.Layer != *f.Layer:
		return false
	case f.Category != nil && event.Category != *f.Category:
		return false
	case f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart):
		return false
	case f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	case f.DeviceID != "" && event.DeviceID != f.DeviceID:
		return false
	}
	if f.Capability != "" {
		return event.Message != nil && strings.EqualFold(event.Message.Capability, f.Capability)
	}
	return true
}
