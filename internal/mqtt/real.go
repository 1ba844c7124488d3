package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Options configures a RealTransport.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string

	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	KeepAlive      time.Duration

	// WillTopic, if set, receives WillPayload when the broker loses us.
	WillTopic   string
	WillPayload string
}

// quiesce is how long Disconnect waits for in-flight work, in milliseconds.
const quiesce = 250

// RealTransport talks to an actual MQTT broker.
// paho's own reconnect logic is disabled; a fresh client is built on every
// Connect after a loss.
type RealTransport struct {
	opts   Options
	client paho.Client
}

// NewRealTransport creates a transport. It does not connect.
func NewRealTransport(opts Options) *RealTransport {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	return &RealTransport{opts: opts}
}

// Connect opens a new session with the broker.
func (t *RealTransport) Connect() error {
	if t.client != nil && t.client.IsConnectionOpen() {
		return nil
	}
	t.Disconnect()

	opts := paho.NewClientOptions().
		AddBroker(t.opts.Broker).
		SetClientID(t.opts.ClientID).
		SetUsername(t.opts.Username).
		SetPassword(t.opts.Password).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(t.opts.ConnectTimeout).
		SetWriteTimeout(t.opts.PublishTimeout).
		SetKeepAlive(t.opts.KeepAlive).
		SetPingTimeout(t.opts.PublishTimeout)
	if t.opts.WillTopic != "" {
		opts.SetWill(t.opts.WillTopic, t.opts.WillPayload, 1, false)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(t.opts.ConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("connect to %s: %w", t.opts.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", t.opts.Broker, err)
	}

	t.client = client
	return nil
}

// Ping reports whether the session is still open. paho's keep-alive pings
// the broker in the background and closes the session when they go
// unanswered, so an open session is a live one.
func (t *RealTransport) Ping() error {
	if t.client == nil || !t.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	return nil
}

// Publish sends payload at QoS 0, not retained.
func (t *RealTransport) Publish(topic string, payload []byte) error {
	if t.client == nil || !t.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := t.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(t.opts.PublishTimeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Disconnect closes the session and drops the client.
func (t *RealTransport) Disconnect() {
	if t.client == nil {
		return
	}
	t.client.Disconnect(quiesce)
	t.client = nil
}
