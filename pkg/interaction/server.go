package interaction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/subscription"
	"github.com/krac-home/krac-go/pkg/wire"
)

// NotificationHandler is called when a subscription produces a
// notification that must be delivered to the peer.
type NotificationHandler func(*wire.Notification)

// ExecuteHandler services raw resource writes (OpExecute). Devices
// that expose vendor-specific resources install one; without a
// handler the operation is rejected as unsupported.
type ExecuteHandler func(ctx context.Context, href string, args map[string]any) (map[string]any, error)

// Server handles incoming requests against a device model. One server
// serves one connection; subscriptions live and die with it.
type Server struct {
	mu sync.RWMutex

	device *model.Device
	subs   *subscription.Manager
	taps   []*componentTap

	notifyHandler  NotificationHandler
	executeHandler ExecuteHandler
}

// NewServer creates a server for the given device.
func NewServer(device *model.Device) *Server {
	return NewServerWithConfig(device, subscription.DefaultConfig())
}

// NewServerWithConfig creates a server with explicit subscription
// limits and heartbeat behavior.
func NewServerWithConfig(device *model.Device, config subscription.Config) *Server {
	s := &Server{
		device: device,
		subs:   subscription.NewManagerWithConfig(config),
	}

	// Tap every capability so attribute changes reach the
	// subscription manager with their component context attached.
	for _, comp := range device.Components() {
		for _, cap := range comp.Capabilities() {
			tap := &componentTap{
				component:  comp.ID(),
				capability: cap,
				subs:       s.subs,
			}
			cap.Subscribe(tap)
			s.taps = append(s.taps, tap)
		}
	}

	s.subs.OnNotification(s.emitNotification)
	return s
}

// Device returns the device this server fronts.
func (s *Server) Device() *model.Device {
	return s.device
}

// SetNotificationHandler sets the callback for outgoing notifications.
func (s *Server) SetNotificationHandler(handler NotificationHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyHandler = handler
}

// SetExecuteHandler sets the callback for raw resource writes.
func (s *Server) SetExecuteHandler(handler ExecuteHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executeHandler = handler
}

// HandleRequest processes a request and returns the response.
func (s *Server) HandleRequest(ctx context.Context, req *wire.Request) *wire.Response {
	switch req.Operation {
	case wire.OpStatus:
		return s.handleStatus(req)
	case wire.OpCommand:
		return s.handleCommand(ctx, req)
	case wire.OpSubscribe:
		return s.handleSubscribe(req)
	case wire.OpExecute:
		return s.handleExecute(ctx, req)
	case wire.OpInfo:
		return s.handleInfo(req)
	case wire.OpPing:
		return &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess}
	default:
		return errorResponse(req.MessageID, wire.StatusUnsupportedOperation, "unknown operation")
	}
}

// resolveCapability finds the capability a request addresses. An empty
// component defaults to the main component.
func (s *Server) resolveCapability(req *wire.Request) (*model.Capability, *wire.Response) {
	componentID := req.Component
	if componentID == "" {
		componentID = model.MainComponentID
	}
	if req.Capability == "" {
		return nil, errorResponse(req.MessageID, wire.StatusUnsupportedCapability, "capability required")
	}

	comp, err := s.device.Component(componentID)
	if err != nil {
		return nil, errorResponse(req.MessageID, wire.StatusUnsupportedComponent, "unknown component: "+componentID)
	}

	cap, err := comp.Capability(req.Capability)
	if err != nil {
		return nil, errorResponse(req.MessageID, wire.StatusUnsupportedCapability, "unknown capability: "+req.Capability)
	}

	return cap, nil
}

func (s *Server) handleStatus(req *wire.Request) *wire.Response {
	cap, errResp := s.resolveCapability(req)
	if errResp != nil {
		return errResp
	}

	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
		Payload:   wire.StatusResponsePayload(cap.Values()),
	}
}

func (s *Server) handleCommand(ctx context.Context, req *wire.Request) *wire.Response {
	cap, errResp := s.resolveCapability(req)
	if errResp != nil {
		return errResp
	}

	cmd := wire.ExtractCommandPayload(req.Payload)
	if cmd == nil || cmd.Name == "" {
		return errorResponse(req.MessageID, wire.StatusInvalidArguments, "invalid command payload")
	}

	result, err := cap.Invoke(ctx, cmd.Name, cmd.Arguments)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommandNotFound):
			return errorResponse(req.MessageID, wire.StatusUnsupportedCommand, "unknown command: "+cmd.Name)
		case errors.Is(err, model.ErrMissingArgument),
			errors.Is(err, model.ErrInvalidArgument),
			errors.Is(err, model.ErrTooManyArguments):
			return errorResponse(req.MessageID, wire.StatusInvalidArguments, err.Error())
		default:
			return errorResponse(req.MessageID, wire.StatusDeviceError, err.Error())
		}
	}

	resp := &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess}
	if len(result) > 0 {
		resp.Payload = wire.CommandResponsePayload(result)
	}
	return resp
}

// handleSubscribe services both subscribe and unsubscribe, which share
// an operation code and are told apart by payload shape.
func (s *Server) handleSubscribe(req *wire.Request) *wire.Response {
	if up := wire.ExtractUnsubscribePayload(req.Payload); up != nil {
		return s.handleUnsubscribe(req, up)
	}

	sp := wire.ExtractSubscribePayload(req.Payload)
	if sp == nil {
		// No payload means subscribe to everything with defaults.
		sp = &wire.SubscribePayload{}
	}

	minInterval := subscription.DefaultMinInterval
	if sp.MinInterval > 0 {
		minInterval = time.Duration(sp.MinInterval) * time.Millisecond
	}
	maxInterval := subscription.DefaultMaxInterval
	if sp.MaxInterval > 0 {
		maxInterval = time.Duration(sp.MaxInterval) * time.Millisecond
	}

	// Gather the priming report. Every requested key must resolve;
	// an empty key list covers all capabilities on the device.
	currentValues := make(map[string]map[string]any)
	if len(sp.Capabilities) == 0 {
		for _, comp := range s.device.Components() {
			for _, cap := range comp.Capabilities() {
				currentValues[wire.CapabilityKey(comp.ID(), cap.ID())] = cap.Values()
			}
		}
	} else {
		for _, key := range sp.Capabilities {
			componentID, capabilityID, ok := strings.Cut(key, "/")
			if !ok || componentID == "" || capabilityID == "" {
				return errorResponse(req.MessageID, wire.StatusInvalidArguments, "invalid capability key: "+key)
			}
			comp, err := s.device.Component(componentID)
			if err != nil {
				return errorResponse(req.MessageID, wire.StatusUnsupportedComponent, "unknown component: "+componentID)
			}
			cap, err := comp.Capability(capabilityID)
			if err != nil {
				return errorResponse(req.MessageID, wire.StatusUnsupportedCapability, "unknown capability: "+capabilityID)
			}
			currentValues[key] = cap.Values()
		}
	}

	id, err := s.subs.Subscribe(sp.Capabilities, minInterval, maxInterval, currentValues)
	if err != nil {
		if errors.Is(err, subscription.ErrResourceExhausted) {
			return errorResponse(req.MessageID, wire.StatusBusy, err.Error())
		}
		return errorResponse(req.MessageID, wire.StatusInvalidArguments, err.Error())
	}

	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
		Payload: &wire.SubscribeResponsePayload{
			SubscriptionID: id,
			CurrentValues:  currentValues,
		},
	}
}

func (s *Server) handleUnsubscribe(req *wire.Request, up *wire.UnsubscribePayload) *wire.Response {
	if err := s.subs.Unsubscribe(up.SubscriptionID); err != nil {
		return errorResponse(req.MessageID, wire.StatusInvalidArguments, "subscription not found")
	}
	return &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess}
}

func (s *Server) handleExecute(ctx context.Context, req *wire.Request) *wire.Response {
	ep := wire.ExtractExecutePayload(req.Payload)
	if ep == nil || ep.Href == "" {
		return errorResponse(req.MessageID, wire.StatusInvalidArguments, "invalid execute payload")
	}

	s.mu.RLock()
	handler := s.executeHandler
	s.mu.RUnlock()

	if handler == nil {
		return errorResponse(req.MessageID, wire.StatusUnsupportedOperation, "execute not supported")
	}

	result, err := handler(ctx, ep.Href, ep.Arguments)
	if err != nil {
		return errorResponse(req.MessageID, wire.StatusDeviceError, err.Error())
	}

	resp := &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess}
	if len(result) > 0 {
		resp.Payload = wire.CommandResponsePayload(result)
	}
	return resp
}

func (s *Server) handleInfo(req *wire.Request) *wire.Response {
	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
		Payload:   s.buildDeviceInfo(),
	}
}

// buildDeviceInfo flattens the device model into the wire handshake
// shape: identity plus capability names, no attribute metadata.
func (s *Server) buildDeviceInfo() *wire.DeviceInfoPayload {
	info := &wire.DeviceInfoPayload{
		DeviceID: s.device.ID(),
		Model:    s.device.Model(),
		Label:    s.device.Label(),
	}

	for _, comp := range s.device.Components() {
		ci := wire.ComponentInfo{ID: comp.ID()}
		for _, cap := range comp.Capabilities() {
			ci.Capabilities = append(ci.Capabilities, wire.CapabilityInfo{
				ID:         cap.ID(),
				Attributes: cap.AttributeNames(),
				Commands:   cap.CommandNames(),
			})
		}
		info.Components = append(info.Components, ci)
	}

	return info
}

// emitNotification converts a manager notification to its wire form
// and hands it to the registered handler.
func (s *Server) emitNotification(n subscription.Notification) {
	s.mu.RLock()
	handler := s.notifyHandler
	s.mu.RUnlock()

	if handler == nil {
		return
	}

	component, capability, _ := strings.Cut(n.Key, "/")
	handler(&wire.Notification{
		SubscriptionID: n.SubscriptionID,
		Component:      component,
		Capability:     capability,
		Changes:        n.Attributes,
	})
}

// Run drives notification delivery until the context is cancelled.
// A tick of 0 uses the default interval.
func (s *Server) Run(ctx context.Context, tick time.Duration) {
	s.subs.Run(ctx, tick)
}

// ProcessNotifications performs a single delivery pass. Useful for
// tests and callers that drive their own clock.
func (s *Server) ProcessNotifications() {
	s.subs.ProcessNotifications()
}

// CancelAllSubscriptions removes all active subscriptions.
func (s *Server) CancelAllSubscriptions() {
	s.subs.ClearAll()
}

// SubscriptionCount returns the number of active subscriptions.
func (s *Server) SubscriptionCount() int {
	return s.subs.Count()
}

// Close detaches the server from the device model and drops all
// subscriptions. The server must not be used afterwards.
func (s *Server) Close() {
	for _, tap := range s.taps {
		tap.capability.Unsubscribe(tap)
	}
	s.subs.ClearAll()
}

// componentTap forwards attribute changes from one capability into the
// subscription manager, restoring the component context the model
// callback does not carry.
type componentTap struct {
	component  string
	capability *model.Capability
	subs       *subscription.Manager
}

func (t *componentTap) OnAttributeChanged(capabilityID, attribute string, value any) {
	t.subs.NotifyChange(wire.CapabilityKey(t.component, capabilityID), attribute, value)
}

// errorResponse builds an error response with a human-readable message.
func errorResponse(messageID uint32, status wire.Status, message string) *wire.Response {
	return &wire.Response{
		MessageID: messageID,
		Status:    status,
		Payload:   &wire.ErrorPayload{Message: message},
	}
}
