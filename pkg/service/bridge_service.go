package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/krac-home/krac-go/pkg/climate"
	"github.com/krac-home/krac-go/pkg/connection"
	"github.com/krac-home/krac-go/pkg/discovery"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/mqtt"
	"github.com/krac-home/krac-go/pkg/persistence"
)

// errDuplicateDevice stops the reconnect loop for an address that
// turned out to reach a device another link already owns.
var errDuplicateDevice = errors.New("device already linked at another address")

// BridgeService discovers devices, mirrors their state over the wire
// protocol, and exposes each supported device as a Home Assistant
// climate entity over MQTT.
type BridgeService struct {
	mu     sync.RWMutex
	config BridgeConfig
	state  ServiceState

	// links is keyed by device ID once the handshake identifies the
	// peer; dialing tracks in-flight addresses so mDNS and static
	// configuration do not race each other to the same device.
	links   map[string]*deviceLink
	dialing map[string]bool

	roster        *persistence.BridgeState
	eventHandlers []EventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBridgeService creates a bridge with the given configuration.
// Zero fields fall back to defaults.
func NewBridgeService(config BridgeConfig) (*BridgeService, error) {
	defaults := DefaultBridgeConfig()
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	if config.SubscriptionMinInterval == 0 {
		config.SubscriptionMinInterval = defaults.SubscriptionMinInterval
	}
	if config.SubscriptionMaxInterval == 0 {
		config.SubscriptionMaxInterval = defaults.SubscriptionMaxInterval
	}
	if config.ReconnectMinDelay == 0 {
		config.ReconnectMinDelay = defaults.ReconnectMinDelay
	}
	if config.ReconnectMaxDelay == 0 {
		config.ReconnectMaxDelay = defaults.ReconnectMaxDelay
	}
	if config.TopicPrefix == "" {
		config.TopicPrefix = defaults.TopicPrefix
	}
	if config.DiscoveryPrefix == "" {
		config.DiscoveryPrefix = defaults.DiscoveryPrefix
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &BridgeService{
		config:  config,
		state:   StateIdle,
		links:   make(map[string]*deviceLink),
		dialing: make(map[string]bool),
		roster:  &persistence.BridgeState{},
	}, nil
}

// State returns the service lifecycle state.
func (s *BridgeService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnEvent registers a handler for bridge events. Handlers run on
// their own goroutines.
func (s *BridgeService) OnEvent(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventHandlers = append(s.eventHandlers, handler)
}

// Start connects to statically configured and previously seen devices
// and begins mDNS discovery. It returns once the bridge is running;
// device connections are established in the background.
func (s *BridgeService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.config.Publisher != nil {
		topic := mqtt.BridgeAvailabilityTopic(s.config.TopicPrefix)
		if err := s.config.Publisher.Publish(topic, []byte(mqtt.PayloadOnline), true); err != nil {
			s.debugLog("bridge availability publish failed", "error", err)
		}
	}

	s.loadRoster()

	for _, addr := range s.config.StaticAddresses {
		s.ensureLink(addr)
	}
	s.mu.RLock()
	records := slices.Clone(s.roster.Devices)
	s.mu.RUnlock()
	for _, rec := range records {
		if rec.Address != "" {
			s.ensureLink(rec.Address)
		}
	}

	if !s.config.DisableMDNS {
		browser := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		results, err := browser.Browse(s.ctx)
		if err != nil {
			s.debugLog("mDNS browse unavailable", "error", err)
		} else {
			s.wg.Add(1)
			go s.browseLoop(results)
		}
	}

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()
	return nil
}

// Stop disconnects all devices and marks the bridge unavailable.
func (s *BridgeService) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateStopping
	links := make([]*deviceLink, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link)
	}
	s.mu.Unlock()

	s.cancel()
	for _, link := range links {
		link.shutdown()
	}
	s.wg.Wait()

	if s.config.Publisher != nil {
		topic := mqtt.BridgeAvailabilityTopic(s.config.TopicPrefix)
		if err := s.config.Publisher.Publish(topic, []byte(mqtt.PayloadOffline), true); err != nil {
			s.debugLog("bridge availability publish failed", "error", err)
		}
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	return nil
}

// Devices returns a snapshot of every device the bridge is managing,
// ordered by device ID.
func (s *BridgeService) Devices() []ConnectedDevice {
	s.mu.RLock()
	links := make([]*deviceLink, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link)
	}
	s.mu.RUnlock()

	devices := make([]ConnectedDevice, 0, len(links))
	for _, link := range links {
		devices = append(devices, link.snapshot())
	}
	slices.SortFunc(devices, func(a, b ConnectedDevice) int {
		switch {
		case a.DeviceID < b.DeviceID:
			return -1
		case a.DeviceID > b.DeviceID:
			return 1
		default:
			return 0
		}
	})
	return devices
}

// Entity returns the climate entity for a linked device, or
// ErrDeviceNotFound if the device is unknown or carries no entity.
func (s *BridgeService) Entity(deviceID string) (*climate.AirConditioner, error) {
	s.mu.RLock()
	link := s.links[deviceID]
	s.mu.RUnlock()

	if link == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	ac := link.entity()
	if ac == nil {
		return nil, fmt.Errorf("%w: %s has no climate entity", ErrDeviceNotFound, deviceID)
	}
	return ac, nil
}

// Mirror returns the local copy of a linked device's capability tree.
// The mirror follows the device's notifications and survives reconnects.
func (s *BridgeService) Mirror(deviceID string) (*model.Device, error) {
	s.mu.RLock()
	link := s.links[deviceID]
	s.mu.RUnlock()

	if link == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	mirror := link.mirrorDevice()
	if mirror == nil {
		return nil, fmt.Errorf("%w: %s has not completed its handshake", ErrDeviceNotFound, deviceID)
	}
	return mirror, nil
}

// Commander returns a climate.Commander that sends capability commands
// to a linked device. Commands fail with ErrNotConnected while the
// device is offline.
func (s *BridgeService) Commander(deviceID string) (climate.Commander, error) {
	s.mu.RLock()
	link := s.links[deviceID]
	s.mu.RUnlock()

	if link == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	return &linkCommander{link: link}, nil
}

// browseLoop feeds mDNS results into link creation. Devices already
// linked by ID are skipped so address changes do not spawn duplicates.
func (s *BridgeService) browseLoop(results <-chan *discovery.Service) {
	defer s.wg.Done()
	for svc := range results {
		s.emitEvent(Event{
			Type:     EventDeviceDiscovered,
			DeviceID: svc.DeviceID,
			Address:  svc.Addr(),
		})
		if s.knownDevice(svc.DeviceID) {
			continue
		}
		s.ensureLink(svc.Addr())
	}
}

func (s *BridgeService) knownDevice(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[deviceID]
	return ok
}

// ensureLink starts a connection loop for an address unless one is
// already running.
func (s *BridgeService) ensureLink(addr string) {
	s.mu.Lock()
	if s.state == StateStopping || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	if s.dialing[addr] {
		s.mu.Unlock()
		return
	}
	s.dialing[addr] = true
	link := &deviceLink{svc: s, addr: addr}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runLink(link)
}

// runLink owns a device link for the bridge's lifetime: connect,
// serve until the connection drops, back off, reconnect.
func (s *BridgeService) runLink(link *deviceLink) {
	defer s.wg.Done()
	defer s.forgetAddress(link.addr)

	backoff := connection.NewBackoffWithConfig(connection.BackoffConfig{
		Initial: s.config.ReconnectMinDelay,
		Max:     s.config.ReconnectMaxDelay,
		Jitter:  connection.JitterFactor,
	})

	for {
		if s.ctx.Err() != nil {
			return
		}

		if err := link.connect(s.ctx); err != nil {
			if errors.Is(err, errDuplicateDevice) {
				s.debugLog("dropping duplicate link", "addr", link.addr)
				return
			}
			s.debugLog("connect failed", "addr", link.addr, "error", err)
			if !sleepCtx(s.ctx, backoff.Next()) {
				return
			}
			continue
		}
		backoff.Reset()

		<-link.down

		s.emitEvent(Event{
			Type:     EventDisconnected,
			DeviceID: link.deviceID,
			Address:  link.addr,
		})
		link.publishOffline()

		if s.ctx.Err() != nil {
			return
		}
		if !sleepCtx(s.ctx, backoff.Next()) {
			return
		}
	}
}

func (s *BridgeService) forgetAddress(addr string) {
	s.mu.Lock()
	delete(s.dialing, addr)
	s.mu.Unlock()
}

// adoptLink registers a link under the device ID its handshake
// reported. A second link reaching the same device is rejected.
func (s *BridgeService) adoptLink(link *deviceLink, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.links[deviceID]; ok && existing != link {
		return fmt.Errorf("%w: %s", errDuplicateDevice, deviceID)
	}
	s.links[deviceID] = link
	return nil
}

// rememberDevice records the device in the persistent roster so the
// bridge reconnects to it on the next start.
func (s *BridgeService) rememberDevice(rec persistence.DeviceRecord) {
	s.mu.Lock()
	s.roster.Upsert(rec)
	snapshot := &persistence.BridgeState{Devices: slices.Clone(s.roster.Devices)}
	store := s.config.StateStore
	s.mu.Unlock()

	if store == nil {
		return
	}
	if err := store.Save(snapshot); err != nil {
		s.debugLog("roster save failed", "error", err)
	}
}

func (s *BridgeService) loadRoster() {
	if s.config.StateStore == nil {
		return
	}
	roster, err := s.config.StateStore.Load()
	if err != nil {
		s.debugLog("roster load failed", "error", err)
		return
	}
	if roster == nil {
		return
	}
	s.mu.Lock()
	s.roster = roster
	s.mu.Unlock()
}

func (s *BridgeService) emitEvent(event Event) {
	s.mu.RLock()
	handlers := make([]EventHandler, len(s.eventHandlers))
	copy(handlers, s.eventHandlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
}

func (s *BridgeService) debugLog(msg string, args ...any) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Debug(msg, args...)
}

// sleepCtx sleeps for d unless the context ends first. It reports
// whether the full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
