package service

import (
	"context"
	"fmt"
	"math"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/discovery"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/persistence"
	"github.com/krac-home/krac-go/pkg/quirks"
	"github.com/krac-home/krac-go/pkg/transport"
	"github.com/krac-home/krac-go/pkg/wire"
)

// stateSaveDelay debounces attribute-triggered state saves so a burst
// of changes produces one write.
const stateSaveDelay = 2 * time.Second

// DeviceService hosts a device model behind a TCP listener. Every
// accepted connection gets its own session with its own subscriptions;
// the shared device model is the single source of truth underneath.
type DeviceService struct {
	mu sync.RWMutex

	config DeviceConfig
	device *model.Device
	state  ServiceState

	server     *transport.Server
	advertiser discovery.Advertiser

	// Sessions by connection ID
	sessions map[string]*deviceSession

	// Attribute taps for event emission and state saving
	taps []*serviceTap

	// Debounced state saving
	saveTimer *time.Timer

	// Event handlers
	eventHandlers []EventHandler

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDeviceService creates a device service for the given device model.
func NewDeviceService(device *model.Device, config DeviceConfig) (*DeviceService, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: device required", ErrInvalidConfig)
	}
	if config.ListenAddress == "" {
		config.ListenAddress = DefaultDeviceConfig().ListenAddress
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &DeviceService{
		config:   config,
		device:   device,
		state:    StateIdle,
		sessions: make(map[string]*deviceSession),
	}, nil
}

// Device returns the hosted device model.
func (s *DeviceService) Device() *model.Device {
	return s.device
}

// State returns the current service state.
func (s *DeviceService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Addr returns the listener address, or nil when not running.
func (s *DeviceService) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return nil
	}
	return s.server.Addr()
}

// ConnectionCount returns the number of connected bridges.
func (s *DeviceService) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return 0
	}
	return s.server.ConnectionCount()
}

// OnEvent registers an event handler.
func (s *DeviceService) OnEvent(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventHandlers = append(s.eventHandlers, handler)
}

// Start restores persisted state, starts the TCP listener, and begins
// advertising over mDNS.
func (s *DeviceService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	// Restore before the taps attach so the replay of saved values
	// does not come back as change events.
	if err := s.restoreState(); err != nil {
		s.debugLog("state restore failed", "error", err)
	}
	s.attachTaps()

	server := transport.NewServer(transport.ServerConfig{
		Address:      s.config.ListenAddress,
		Logger:       s.config.ProtocolLogger,
		OnConnect:    s.handleConnect,
		OnDisconnect: s.handleDisconnect,
		OnMessage:    s.handleMessage,
		OnError:      s.handleConnError,
	})
	if err := server.Start(s.ctx); err != nil {
		s.detachTaps()
		s.cancel()
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	// mDNS failure is not fatal: statically configured bridges can
	// still connect.
	if !s.config.DisableMDNS {
		advertiser := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		if err := advertiser.Advertise(s.ctx, s.discoveryInfo(server.Addr())); err != nil {
			s.debugLog("mDNS advertise failed", "error", err)
		} else {
			s.mu.Lock()
			s.advertiser = advertiser
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	s.debugLog("device service started", "device", s.device.ID(), "addr", server.Addr())
	return nil
}

// Stop withdraws the mDNS advertisement, closes all sessions, stops
// the listener, and saves a final state snapshot.
func (s *DeviceService) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateStopping

	server := s.server
	s.server = nil
	advertiser := s.advertiser
	s.advertiser = nil
	saveTimer := s.saveTimer
	s.saveTimer = nil
	sessions := make([]*deviceSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*deviceSession)
	s.mu.Unlock()

	if saveTimer != nil {
		saveTimer.Stop()
	}
	if advertiser != nil {
		advertiser.Stop()
	}

	s.cancel()
	for _, sess := range sessions {
		sess.close()
	}
	if server != nil {
		server.Stop()
	}
	s.detachTaps()

	if err := s.SaveState(); err != nil {
		s.debugLog("final state save failed", "error", err)
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	s.debugLog("device service stopped", "device", s.device.ID())
	return nil
}

// SaveState writes a snapshot of all attribute values to the state
// store. A no-op without a store.
func (s *DeviceService) SaveState() error {
	if s.config.StateStore == nil {
		return nil
	}

	state := &persistence.DeviceState{
		Label:      s.device.Label(),
		Attributes: make(map[string]map[string]any),
	}
	for _, comp := range s.device.Components() {
		for _, cap := range comp.Capabilities() {
			values := cap.Values()
			if len(values) == 0 {
				continue
			}
			state.Attributes[wire.CapabilityKey(comp.ID(), cap.ID())] = values
		}
	}
	return s.config.StateStore.Save(state)
}

// restoreState loads the saved snapshot back into the device model.
// Attributes the profile no longer has, and values the profile no
// longer accepts, are skipped.
func (s *DeviceService) restoreState() error {
	if s.config.StateStore == nil {
		return nil
	}
	state, err := s.config.StateStore.Load()
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	if state.Label != "" {
		s.device.SetLabel(state.Label)
	}
	for key, attrs := range state.Attributes {
		component, capability, _ := strings.Cut(key, "/")
		cap, err := s.device.Capability(component, capability)
		if err != nil {
			continue
		}
		for name, value := range attrs {
			if err := cap.SetValue(name, restoredValue(cap, name, value)); err != nil {
				s.debugLog("skipping restored attribute",
					"capability", capability, "attribute", name, "error", err)
			}
		}
	}

	s.debugLog("state restored", "saved_at", state.SavedAt)
	return nil
}

// restoredValue converts JSON-decoded numbers back to the attribute's
// declared type. JSON decodes every number as float64; integer
// attributes reject those.
func restoredValue(cap *model.Capability, name string, value any) any {
	f, ok := value.(float64)
	if !ok {
		return value
	}
	attr, err := cap.Attribute(name)
	if err != nil {
		return value
	}
	if attr.Metadata().Type == model.DataTypeInteger && f == math.Trunc(f) {
		return int(f)
	}
	return value
}

// discoveryInfo builds the mDNS identity, using the actual bound port
// so ":0" listeners advertise correctly.
func (s *DeviceService) discoveryInfo(addr net.Addr) *discovery.Info {
	port := uint16(discovery.DefaultPort)
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = uint16(tcp.Port)
	}
	return &discovery.Info{
		DeviceID: s.device.ID(),
		Model:    quirks.Model(s.device),
		Label:    s.device.Label(),
		Firmware: s.device.Firmware(),
		Port:     port,
	}
}

// handleExecute routes raw resource writes into the profile's execute
// capability, which applies the vendor semantics.
func (s *DeviceService) handleExecute(ctx context.Context, href string, args map[string]any) (map[string]any, error) {
	exec, err := caps.ExecuteOf(s.device)
	if err != nil {
		return nil, err
	}
	cmdArgs := []any{href}
	if args != nil {
		cmdArgs = append(cmdArgs, args)
	}
	return exec.Invoke(ctx, caps.CmdExecute, cmdArgs)
}

func (s *DeviceService) handleConnect(conn *transport.ServerConn) {
	session := newDeviceSession(s, conn)

	s.mu.Lock()
	s.sessions[conn.ConnID()] = session
	s.mu.Unlock()

	s.debugLog("bridge connected", "conn", conn.ConnID(), "remote", conn.RemoteAddr())
	s.emitEvent(Event{
		Type:     EventConnected,
		DeviceID: s.device.ID(),
		ConnID:   conn.ConnID(),
		Address:  conn.RemoteAddr().String(),
	})
}

func (s *DeviceService) handleDisconnect(conn *transport.ServerConn) {
	s.mu.Lock()
	session := s.sessions[conn.ConnID()]
	delete(s.sessions, conn.ConnID())
	s.mu.Unlock()

	if session == nil {
		return
	}
	session.close()

	s.debugLog("bridge disconnected", "conn", conn.ConnID())
	s.emitEvent(Event{
		Type:     EventDisconnected,
		DeviceID: s.device.ID(),
		ConnID:   conn.ConnID(),
		Address:  conn.RemoteAddr().String(),
	})
}

func (s *DeviceService) handleMessage(conn *transport.ServerConn, msg []byte) {
	s.mu.RLock()
	session := s.sessions[conn.ConnID()]
	s.mu.RUnlock()

	if session == nil {
		return
	}
	session.handleFrame(msg)
}

func (s *DeviceService) handleConnError(conn *transport.ServerConn, err error) {
	s.debugLog("connection error", "conn", conn.ConnID(), "error", err)
}

// attachTaps subscribes to every capability so attribute changes reach
// the event handlers with their component context attached.
func (s *DeviceService) attachTaps() {
	for _, comp := range s.device.Components() {
		for _, cap := range comp.Capabilities() {
			tap := &serviceTap{svc: s, component: comp.ID(), capability: cap}
			cap.Subscribe(tap)
			s.taps = append(s.taps, tap)
		}
	}
}

func (s *DeviceService) detachTaps() {
	for _, tap := range s.taps {
		tap.capability.Unsubscribe(tap)
	}
	s.taps = nil
}

func (s *DeviceService) handleAttributeChanged(component, capability, attribute string, value any) {
	s.emitEvent(Event{
		Type:       EventValueChanged,
		DeviceID:   s.device.ID(),
		Component:  component,
		Capability: capability,
		Attribute:  attribute,
		Value:      value,
	})
	s.scheduleSave()
}

// scheduleSave arms the debounced save timer.
func (s *DeviceService) scheduleSave() {
	if s.config.StateStore == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStarting && s.state != StateRunning {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Reset(stateSaveDelay)
		return
	}
	s.saveTimer = time.AfterFunc(stateSaveDelay, func() {
		if err := s.SaveState(); err != nil {
			s.debugLog("state save failed", "error", err)
		}
	})
}

// emitEvent notifies all registered handlers asynchronously.
func (s *DeviceService) emitEvent(event Event) {
	s.mu.RLock()
	handlers := make([]EventHandler, len(s.eventHandlers))
	copy(handlers, s.eventHandlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
}

// debugLog logs if a logger is configured.
func (s *DeviceService) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

// serviceTap forwards attribute changes from one capability to the
// service, restoring the component context the model callback does
// not carry.
type serviceTap struct {
	svc        *DeviceService
	component  string
	capability *model.Capability
}

func (t *serviceTap) OnAttributeChanged(capabilityID, attribute string, value any) {
	t.svc.handleAttributeChanged(t.component, capabilityID, attribute, value)
}
