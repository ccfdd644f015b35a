package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Availability payloads, matching the Home Assistant defaults.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// DefaultQoS is used for all publishes and subscriptions.
	DefaultQoS = 0
)

// Client errors.
var (
	ErrNotConnected   = errors.New("not connected to broker")
	ErrPublishTimeout = errors.New("publish timed out")
)

// MessageHandler receives messages for a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Options configures the broker connection.
type Options struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string

	// ClientID identifies this client to the broker.
	ClientID string

	// Username and Password are optional broker credentials.
	Username string
	Password string

	// WillTopic carries the retained last-will message the broker
	// publishes if the connection dies. Empty disables the will.
	WillTopic   string
	WillPayload string

	// Logger receives connection events. Nil disables logging.
	Logger *slog.Logger
}

// Client wraps the paho MQTT client. Subscriptions are tracked so they
// survive an automatic reconnect.
type Client struct {
	opts Options

	mu     sync.Mutex
	client paho.Client
	subs   map[string]MessageHandler
}

// NewClient creates a client. Connect must be called before use.
func NewClient(opts Options) *Client {
	return &Client{
		opts: opts,
		subs: make(map[string]MessageHandler),
	}
}

// Connect establishes the broker connection.
func (c *Client) Connect() error {
	popts := paho.NewClientOptions().AddBroker(c.opts.Broker)
	popts.SetClientID(c.opts.ClientID)
	popts.SetConnectTimeout(connectTimeout)
	popts.SetAutoReconnect(true)

	if c.opts.Username != "" {
		popts.SetUsername(c.opts.Username)
		popts.SetPassword(c.opts.Password)
	}
	if c.opts.WillTopic != "" {
		popts.SetWill(c.opts.WillTopic, c.opts.WillPayload, DefaultQoS, true)
	}

	popts.SetOnConnectHandler(func(paho.Client) {
		c.logInfo("connected to broker", "broker", c.opts.Broker)
		c.resubscribe()
	})
	popts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.logInfo("broker connection lost", "error", err)
	})

	client := paho.NewClient(popts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.opts.Broker, token.Error())
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
	}
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && c.client.IsConnected()
}

// Publish sends a payload to a topic.
func (c *Client) Publish(topic string, payload []byte, retain bool) error {
	client := c.paho()
	if client == nil {
		return ErrNotConnected
	}

	token := client.Publish(topic, DefaultQoS, retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic. The subscription is
// restored after a reconnect.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	client := c.paho()
	if client == nil {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()

	return c.subscribe(client, topic, handler)
}

// Unsubscribe removes a topic subscription.
func (c *Client) Unsubscribe(topic string) error {
	c.mu.Lock()
	delete(c.subs, topic)
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return ErrNotConnected
	}
	if token := client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", topic, token.Error())
	}
	return nil
}

func (c *Client) subscribe(client paho.Client, topic string, handler MessageHandler) error {
	cb := func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	}
	if token := client.Subscribe(topic, DefaultQoS, cb); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

// resubscribe restores tracked subscriptions after a reconnect.
func (c *Client) resubscribe() {
	c.mu.Lock()
	client := c.client
	subs := make(map[string]MessageHandler, len(c.subs))
	for topic, handler := range c.subs {
		subs[topic] = handler
	}
	c.mu.Unlock()

	if client == nil {
		return
	}
	for topic, handler := range subs {
		if err := c.subscribe(client, topic, handler); err != nil {
			c.logInfo("resubscribe failed", "topic", topic, "error", err)
		}
	}
}

func (c *Client) paho() paho.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *Client) logInfo(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Info(msg, args...)
	}
}
