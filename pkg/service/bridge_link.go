package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/krac-home/krac-go/pkg/climate"
	"github.com/krac-home/krac-go/pkg/interaction"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/mqtt"
	"github.com/krac-home/krac-go/pkg/persistence"
	"github.com/krac-home/krac-go/pkg/transport"
	"github.com/krac-home/krac-go/pkg/wire"
)

// deviceLink maintains the bridge's relationship with one device: the
// connection, the local mirror, and the climate entity built over it.
// The mirror and entity survive reconnects; the connection does not.
type deviceLink struct {
	svc  *BridgeService
	addr string

	mu        sync.Mutex
	conn      *transport.Connection
	client    *interaction.Client
	keepalive *transport.KeepAlive
	connected bool
	lastSeen  time.Time

	// Identity and entity, set by the first successful handshake.
	deviceID string
	label    string
	model    string
	mirror   *model.Device
	ac       *climate.AirConditioner
	binding  *mqtt.ClimateBinding

	// down is closed when the current connection drops.
	down     chan struct{}
	downOnce sync.Once
}

// connect dials the device and runs the handshake: Info to learn the
// device shape, then a subscription whose priming report brings the
// mirror current in the same round trip.
func (l *deviceLink) connect(ctx context.Context) error {
	l.downOnce = sync.Once{}
	l.down = make(chan struct{})

	conn := transport.NewConnection(transport.ConnectionConfig{
		Logger: l.svc.config.ProtocolLogger,
	}, l)

	dialCtx, cancel := context.WithTimeout(ctx, l.svc.config.ConnectTimeout)
	err := conn.Connect(dialCtx, l.addr)
	cancel()
	if err != nil {
		return err
	}

	client := interaction.NewClient(conn)
	client.SetTimeout(l.svc.config.RequestTimeout)
	client.SetNotificationHandler(l.handleNotification)

	l.mu.Lock()
	l.conn = conn
	l.client = client
	l.mu.Unlock()

	if err := l.handshake(ctx, client); err != nil {
		conn.Close()
		return err
	}

	// Subscription heartbeats cover a healthy link; the prober is what
	// notices a peer that vanished without closing the socket.
	ka := transport.NewKeepAlive(l.svc.config.KeepAlive,
		func(ctx context.Context) (time.Duration, error) {
			return client.Ping(ctx)
		},
		func() {
			l.svc.debugLog("device stopped answering pings", "addr", l.addr)
			conn.Close()
		})
	ka.SetProbeCallback(func(latency time.Duration) {
		l.mu.Lock()
		l.lastSeen = time.Now()
		l.mu.Unlock()
	})

	l.mu.Lock()
	l.connected = true
	l.lastSeen = time.Now()
	l.keepalive = ka
	deviceID := l.deviceID
	l.mu.Unlock()

	ka.Start(ctx)

	l.svc.debugLog("device connected", "device", deviceID, "addr", l.addr)
	l.svc.emitEvent(Event{Type: EventConnected, DeviceID: deviceID, Address: l.addr})
	l.publishOnline()
	return nil
}

func (l *deviceLink) handshake(ctx context.Context, client *interaction.Client) error {
	infoCtx, cancel := context.WithTimeout(ctx, l.svc.config.RequestTimeout)
	info, err := client.Info(infoCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("info request failed: %w", err)
	}
	if info == nil || info.DeviceID == "" {
		return fmt.Errorf("device at %s returned no identity", l.addr)
	}

	if err := l.svc.adoptLink(l, info.DeviceID); err != nil {
		return err
	}

	l.mu.Lock()
	l.deviceID = info.DeviceID
	l.label = info.Label
	l.model = info.Model
	first := l.mirror == nil
	if first {
		l.mirror = buildMirror(info)
	}
	mirror := l.mirror
	l.mu.Unlock()

	subCtx, cancel := context.WithTimeout(ctx, l.svc.config.RequestTimeout)
	_, priming, err := client.Subscribe(subCtx, &interaction.SubscribeOptions{
		MinInterval: l.svc.config.SubscriptionMinInterval,
		MaxInterval: l.svc.config.SubscriptionMaxInterval,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	applyPriming(mirror, priming)

	if first {
		l.buildEntity()
	}

	l.svc.rememberDevice(persistence.DeviceRecord{
		DeviceID:   info.DeviceID,
		Model:      info.Model,
		Label:      info.Label,
		Address:    l.addr,
		LastSeenAt: time.Now(),
	})
	return nil
}

// buildEntity creates the climate entity and its MQTT binding for
// devices that carry the air conditioner profile. Other devices stay
// connected without an entity.
func (l *deviceLink) buildEntity() {
	if !climate.Supports(l.mirror) {
		l.svc.debugLog("device has no climate profile", "device", l.deviceID)
		return
	}

	ac, err := climate.NewAirConditioner(l.mirror, &linkCommander{link: l})
	if err != nil {
		l.svc.debugLog("climate entity rejected", "device", l.deviceID, "error", err)
		return
	}
	l.mu.Lock()
	l.ac = ac
	l.mu.Unlock()

	pub := l.svc.config.Publisher
	if pub == nil {
		return
	}

	binding := mqtt.NewClimateBinding(ac, pub, mqtt.BindingConfig{
		Topics:             mqtt.NewTopics(l.svc.config.TopicPrefix, l.deviceID),
		DiscoveryPrefix:    l.svc.config.DiscoveryPrefix,
		BridgeAvailability: mqtt.BridgeAvailabilityTopic(l.svc.config.TopicPrefix),
		Logger:             l.svc.config.Logger,
	})
	if err := binding.Start(l.svc.ctx); err != nil {
		l.svc.debugLog("binding start failed", "device", l.deviceID, "error", err)
		return
	}
	if err := binding.PublishDiscovery(); err != nil {
		l.svc.debugLog("discovery publish failed", "device", l.deviceID, "error", err)
	}

	l.mu.Lock()
	l.binding = binding
	l.mu.Unlock()
}

// OnMessage routes device frames to the interaction client.
func (l *deviceLink) OnMessage(msg []byte) {
	client := l.currentClient()
	if client == nil {
		return
	}

	msgType, err := wire.PeekMessageType(msg)
	if err != nil {
		l.svc.debugLog("dropping unreadable frame", "addr", l.addr, "error", err)
		return
	}

	switch msgType {
	case wire.MessageTypeResponse:
		resp, err := wire.DecodeResponse(msg)
		if err != nil {
			l.svc.debugLog("dropping malformed response", "addr", l.addr, "error", err)
			return
		}
		if err := client.HandleResponse(resp); err != nil {
			l.svc.debugLog("unmatched response", "addr", l.addr, "error", err)
		}
	case wire.MessageTypeNotification:
		notif, err := wire.DecodeNotification(msg)
		if err != nil {
			l.svc.debugLog("dropping malformed notification", "addr", l.addr, "error", err)
			return
		}
		client.HandleNotification(notif)
	default:
		l.svc.debugLog("dropping unexpected message", "addr", l.addr, "type", msgType)
	}
}

// OnStateChange watches for the connection dropping.
func (l *deviceLink) OnStateChange(oldState, newState transport.ConnectionState) {
	if newState == transport.StateDisconnected && oldState != transport.StateDisconnected {
		l.signalDown()
	}
}

func (l *deviceLink) OnError(err error) {
	l.svc.debugLog("connection error", "addr", l.addr, "error", err)
}

// handleNotification applies attribute changes to the mirror and
// republishes the entity state. Heartbeats carry no component.
func (l *deviceLink) handleNotification(n *wire.Notification) {
	l.mu.Lock()
	mirror := l.mirror
	binding := l.binding
	deviceID := l.deviceID
	l.lastSeen = time.Now()
	l.mu.Unlock()

	if mirror == nil || n.Component == "" {
		return
	}

	cap, err := mirror.Capability(n.Component, n.Capability)
	if err != nil {
		l.svc.debugLog("notification for unknown capability",
			"device", deviceID, "capability", n.Capability)
		return
	}

	for attr, value := range n.Changes {
		if err := cap.SetValue(attr, value); err != nil {
			l.svc.debugLog("rejected notified value",
				"device", deviceID, "attribute", attr, "error", err)
		}
	}

	// Full heartbeats repeat current values; only real changes get
	// events and a republish.
	changed := cap.DirtyValues()
	for attr, value := range changed {
		l.svc.emitEvent(Event{
			Type:       EventValueChanged,
			DeviceID:   deviceID,
			Component:  n.Component,
			Capability: n.Capability,
			Attribute:  attr,
			Value:      value,
		})
	}

	if len(changed) > 0 && binding != nil {
		if err := binding.PublishState(); err != nil {
			l.svc.debugLog("state publish failed", "device", deviceID, "error", err)
		}
	}
}

// signalDown marks the link disconnected and wakes the reconnect loop.
func (l *deviceLink) signalDown() {
	l.downOnce.Do(func() {
		l.mu.Lock()
		l.connected = false
		l.conn = nil
		client := l.client
		l.client = nil
		ka := l.keepalive
		l.keepalive = nil
		l.mu.Unlock()

		if ka != nil {
			ka.Stop()
		}
		if client != nil {
			client.Close()
		}
		close(l.down)
	})
}

// shutdown takes the entity offline and closes the connection.
func (l *deviceLink) shutdown() {
	l.mu.Lock()
	conn := l.conn
	binding := l.binding
	l.binding = nil
	l.mu.Unlock()

	if binding != nil {
		if err := binding.PublishAvailability(false); err != nil {
			l.svc.debugLog("availability publish failed", "device", l.deviceID, "error", err)
		}
		binding.Stop()
	}
	if conn != nil {
		conn.Close()
	}
}

func (l *deviceLink) publishOnline() {
	l.mu.Lock()
	binding := l.binding
	deviceID := l.deviceID
	l.mu.Unlock()

	if binding == nil {
		return
	}
	if err := binding.PublishAvailability(true); err != nil {
		l.svc.debugLog("availability publish failed", "device", deviceID, "error", err)
	}
	if err := binding.PublishState(); err != nil {
		l.svc.debugLog("state publish failed", "device", deviceID, "error", err)
	}
}

func (l *deviceLink) publishOffline() {
	l.mu.Lock()
	binding := l.binding
	deviceID := l.deviceID
	l.mu.Unlock()

	if binding == nil {
		return
	}
	if err := binding.PublishAvailability(false); err != nil {
		l.svc.debugLog("availability publish failed", "device", deviceID, "error", err)
	}
}

func (l *deviceLink) currentClient() *interaction.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client
}

func (l *deviceLink) entity() *climate.AirConditioner {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ac
}

func (l *deviceLink) mirrorDevice() *model.Device {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mirror
}

func (l *deviceLink) snapshot() ConnectedDevice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ConnectedDevice{
		DeviceID:  l.deviceID,
		Label:     l.label,
		Model:     l.model,
		Address:   l.addr,
		Connected: l.connected,
		HasEntity: l.ac != nil,
		LastSeen:  l.lastSeen,
	}
}

// buildMirror constructs a local device model from the wire handshake.
// Attribute types are not carried on the wire, so mirror attributes
// accept whatever the device reports.
func buildMirror(info *wire.DeviceInfoPayload) *model.Device {
	mirror := model.NewDevice(info.DeviceID, info.Label, "", info.Model, "")
	for _, ci := range info.Components {
		comp := mirror.MainComponent()
		if ci.ID != model.MainComponentID {
			added, err := mirror.AddComponent(ci.ID)
			if err != nil {
				continue
			}
			comp = added
		}
		for _, capInfo := range ci.Capabilities {
			cap := model.NewCapability(capInfo.ID, 1)
			for _, name := range capInfo.Attributes {
				_ = cap.AddAttribute(&model.AttributeMetadata{
					Name:     name,
					Type:     model.DataTypeUnknown,
					Nullable: true,
				})
			}
			_ = comp.AddCapability(cap)
		}
	}
	return mirror
}

// applyPriming loads the subscription priming report into the mirror.
// Dirty flags are drained so the initial sync does not count as change.
func applyPriming(mirror *model.Device, values map[string]map[string]any) {
	for key, attrs := range values {
		component, capability, _ := strings.Cut(key, "/")
		cap, err := mirror.Capability(component, capability)
		if err != nil {
			continue
		}
		for name, value := range attrs {
			_ = cap.SetValue(name, value)
		}
		cap.DirtyValues()
	}
}

// linkCommander sends entity writes to the device over the current
// interaction client.
type linkCommander struct {
	link *deviceLink
}

func (c *linkCommander) Command(ctx context.Context, component, capability, command string, args []any) error {
	client := c.link.currentClient()
	if client == nil {
		return ErrNotConnected
	}
	_, err := client.Command(ctx, component, capability, command, args)
	return err
}

func (c *linkCommander) Execute(ctx context.Context, href string, args map[string]any) error {
	client := c.link.currentClient()
	if client == nil {
		return ErrNotConnected
	}
	_, err := client.Execute(ctx, href, args)
	return err
}

var (
	_ transport.ConnectionHandler = (*deviceLink)(nil)
	_ climate.Commander           = (*linkCommander)(nil)
)
