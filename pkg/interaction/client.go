package interaction

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krac-home/krac-go/pkg/wire"
)

// DefaultRequestTimeout is how long a request waits for its response
// before giving up. The link is a home LAN; anything slower than this
// means the device is gone.
const DefaultRequestTimeout = 10 * time.Second

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// RequestSender is the interface for sending encoded requests over a
// connection.
type RequestSender interface {
	Send(data []byte) error
}

// Client provides a high-level API for making KRAC requests.
type Client struct {
	mu sync.RWMutex

	sender  RequestSender
	timeout time.Duration

	// Message ID generator
	nextMsgID uint32

	// Pending requests awaiting responses
	pending   map[uint32]chan *wire.Response
	pendingMu sync.RWMutex

	// Notification handler
	notifyHandler func(*wire.Notification)

	closed bool
}

// NewClient creates a new interaction client.
func NewClient(sender RequestSender) *Client {
	return &Client{
		sender:  sender,
		timeout: DefaultRequestTimeout,
		pending: make(map[uint32]chan *wire.Response),
	}
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// SetNotificationHandler sets the handler for incoming notifications.
func (c *Client) SetNotificationHandler(handler func(*wire.Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyHandler = handler
}

// Close closes the client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	// Cancel all pending requests
	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[uint32]chan *wire.Response)
	c.pendingMu.Unlock()

	return nil
}

// nextMessageID generates the next unique message ID, skipping zero
// which is reserved for notifications.
func (c *Client) nextMessageID() uint32 {
	id := atomic.AddUint32(&c.nextMsgID, 1)
	if id == wire.NotificationMessageID {
		id = atomic.AddUint32(&c.nextMsgID, 1)
	}
	return id
}

// sendRequest sends a request and waits for the response.
func (c *Client) sendRequest(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClientClosed
	}
	timeout := c.timeout
	c.mu.RUnlock()

	respCh := make(chan *wire.Response, 1)

	c.pendingMu.Lock()
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.sender.Send(data); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, ErrRequestTimeout
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrClientClosed
		}
		return resp, nil
	}
}

// HandleResponse should be called when a response is received.
func (c *Client) HandleResponse(resp *wire.Response) error {
	c.pendingMu.RLock()
	ch, exists := c.pending[resp.MessageID]
	c.pendingMu.RUnlock()

	if !exists {
		return ErrUnexpectedReply
	}

	select {
	case ch <- resp:
	default:
		// Channel full or abandoned
	}
	return nil
}

// HandleNotification should be called when a notification is received.
func (c *Client) HandleNotification(notif *wire.Notification) {
	c.mu.RLock()
	handler := c.notifyHandler
	c.mu.RUnlock()

	if handler != nil {
		handler(notif)
	}
}

// Status reads the current attribute values of a capability.
func (c *Client) Status(ctx context.Context, component, capability string) (map[string]any, error) {
	req := &wire.Request{
		MessageID:  c.nextMessageID(),
		Operation:  wire.OpStatus,
		Component:  component,
		Capability: capability,
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.Status.IsSuccess() {
		return nil, statusError(resp.Status, resp.Payload)
	}

	return valueMap(resp.Payload)
}

// Command invokes a capability command with positional arguments and
// returns the result map, if any.
func (c *Client) Command(ctx context.Context, component, capability, name string, args []any) (map[string]any, error) {
	req := &wire.Request{
		MessageID:  c.nextMessageID(),
		Operation:  wire.OpCommand,
		Component:  component,
		Capability: capability,
		Payload: &wire.CommandPayload{
			Name:      name,
			Arguments: args,
		},
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.Status.IsSuccess() {
		return nil, statusError(resp.Status, resp.Payload)
	}

	return valueMap(resp.Payload)
}

// Execute performs a raw OCF resource write against the device.
func (c *Client) Execute(ctx context.Context, href string, args map[string]any) (map[string]any, error) {
	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Operation: wire.OpExecute,
		Payload: &wire.ExecutePayload{
			Href:      href,
			Arguments: args,
		},
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.Status.IsSuccess() {
		return nil, statusError(resp.Status, resp.Payload)
	}

	return valueMap(resp.Payload)
}

// Subscribe registers for change notifications. Returns the
// subscription ID and the priming report: current values keyed by
// "component/capability", then attribute name.
func (c *Client) Subscribe(ctx context.Context, opts *SubscribeOptions) (uint32, map[string]map[string]any, error) {
	payload := &wire.SubscribePayload{}
	if opts != nil {
		payload.Capabilities = opts.Capabilities
		payload.MinInterval = uint32(opts.MinInterval.Milliseconds())
		payload.MaxInterval = uint32(opts.MaxInterval.Milliseconds())
	}

	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Operation: wire.OpSubscribe,
		Payload:   payload,
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return 0, nil, err
	}

	if !resp.Status.IsSuccess() {
		return 0, nil, statusError(resp.Status, resp.Payload)
	}

	sp := wire.ExtractSubscribeResponsePayload(resp.Payload)
	if sp == nil || sp.SubscriptionID == 0 {
		return 0, nil, ErrUnexpectedReply
	}
	return sp.SubscriptionID, sp.CurrentValues, nil
}

// Unsubscribe cancels a subscription.
func (c *Client) Unsubscribe(ctx context.Context, subscriptionID uint32) error {
	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Operation: wire.OpSubscribe,
		Payload:   &wire.UnsubscribePayload{SubscriptionID: subscriptionID},
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}

	if !resp.Status.IsSuccess() {
		return statusError(resp.Status, resp.Payload)
	}

	return nil
}

// Info reads the device identity and its component/capability tree.
func (c *Client) Info(ctx context.Context) (*wire.DeviceInfoPayload, error) {
	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Operation: wire.OpInfo,
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.Status.IsSuccess() {
		return nil, statusError(resp.Status, resp.Payload)
	}

	info := wire.ExtractDeviceInfoPayload(resp.Payload)
	if info == nil {
		return nil, ErrUnexpectedReply
	}
	return info, nil
}

// Ping checks connection liveness and returns the round-trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Operation: wire.OpPing,
	}

	start := time.Now()
	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return 0, err
	}

	if !resp.Status.IsSuccess() {
		return 0, statusError(resp.Status, resp.Payload)
	}

	return time.Since(start), nil
}

// valueMap normalizes a response payload into an attribute map.
// Payloads arrive as map[any]any after a wire round-trip and as typed
// maps from in-process handlers.
func valueMap(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return p, nil
	case wire.StatusResponsePayload:
		return p, nil
	case wire.CommandResponsePayload:
		return p, nil
	case map[any]any:
		return wire.ToStringMap(p), nil
	default:
		return nil, ErrUnexpectedReply
	}
}

// SubscribeOptions configures a subscription.
type SubscribeOptions struct {
	// Capabilities limits the subscription to specific
	// "component/capability" keys. Empty means all capabilities.
	Capabilities []string

	// MinInterval is the minimum time between notifications.
	MinInterval time.Duration

	// MaxInterval is the maximum time without a notification (heartbeat).
	MaxInterval time.Duration
}

// StatusError represents an error response from the device.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Status.String()
}

// statusError creates an error from a response status.
func statusError(status wire.Status, payload any) error {
	msg := ""
	if ep := wire.ExtractErrorPayload(payload); ep != nil {
		msg = ep.Message
	}
	return &StatusError{Status: status, Message: msg}
}
