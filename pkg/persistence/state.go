package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// DeviceState contains the runtime state for a KRAC device.
type DeviceState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Label is the user-facing device label.
	Label string `json:"label,omitempty"`

	// Attributes is the attribute snapshot, keyed by
	// "component/capability", then attribute name. An appliance
	// resumes with its previous mode and setpoints after a restart.
	Attributes map[string]map[string]any `json:"attributes,omitempty"`
}

// DeviceStateStore manages persistence of device state to a JSON file.
type DeviceStateStore struct {
	mu   sync.Mutex
	path string
}

// NewDeviceStateStore creates a new device state store.
func NewDeviceStateStore(path string) *DeviceStateStore {
	return &DeviceStateStore{path: path}
}

// Save persists the device state to disk.
func (s *DeviceStateStore) Save(state *DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the device state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *DeviceStateStore) Load() (*DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &DeviceState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *DeviceStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// BridgeState contains the runtime state for a KRAC bridge.
type BridgeState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Devices contains the roster of known devices.
	Devices []DeviceRecord `json:"devices,omitempty"`
}

// DeviceRecord describes a device the bridge has connected to. The
// record lets the bridge redial a device directly and keep its MQTT
// entity identity stable when mDNS is slow or absent.
type DeviceRecord struct {
	// DeviceID is the unique device identifier.
	DeviceID string `json:"device_id"`

	// Model is the OCF model string (e.g. "ARTIK051_KRAC_18K|...").
	Model string `json:"model,omitempty"`

	// Label is the device's user-facing label.
	Label string `json:"label,omitempty"`

	// Address is the last known "host:port" of the device.
	Address string `json:"address,omitempty"`

	// AddedAt is when the bridge first connected to the device.
	AddedAt time.Time `json:"added_at"`

	// LastSeenAt is when the device was last connected.
	LastSeenAt time.Time `json:"last_seen_at,omitempty"`
}

// Find returns the record for a device ID, or nil.
func (s *BridgeState) Find(deviceID string) *DeviceRecord {
	for i := range s.Devices {
		if s.Devices[i].DeviceID == deviceID {
			return &s.Devices[i]
		}
	}
	return nil
}

// Upsert inserts or updates a device record, matching on DeviceID.
// The original AddedAt is preserved on update.
func (s *BridgeState) Upsert(rec DeviceRecord) {
	if existing := s.Find(rec.DeviceID); existing != nil {
		rec.AddedAt = existing.AddedAt
		*existing = rec
		return
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = time.Now()
	}
	s.Devices = append(s.Devices, rec)
}

// BridgeStateStore manages persistence of bridge state to a JSON file.
type BridgeStateStore struct {
	mu   sync.Mutex
	path string
}

// NewBridgeStateStore creates a new bridge state store.
func NewBridgeStateStore(path string) *BridgeStateStore {
	return &BridgeStateStore{path: path}
}

// Save persists the bridge state to disk.
func (s *BridgeStateStore) Save(state *BridgeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the bridge state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *BridgeStateStore) Load() (*BridgeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &BridgeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *BridgeStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
