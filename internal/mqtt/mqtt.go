// Package mqtt provides the MQTT link to the telemetry collector with
// abstraction for testing. It owns no retry policy: callers decide when to
// connect, probe and publish.
package mqtt

import "errors"

// DefaultTopic is the collector topic for telemetry samples.
const DefaultTopic = "/v1.6/devices/smart-greenhouse"

// DefaultSystemTopic is the topic for lifecycle status events.
const DefaultSystemTopic = DefaultTopic + "/system"

var (
	// ErrNotConnected is returned when an operation needs an open connection.
	ErrNotConnected = errors.New("mqtt: not connected")
	// ErrTimeout is returned when the broker does not answer in time.
	ErrTimeout = errors.New("mqtt: timeout")
)

// Transport is a reconnect-on-demand connection to a broker.
// Every method returns within its configured timeout.
type Transport interface {
	// Connect opens a connection. It is a no-op when already connected.
	Connect() error

	// Ping checks that the connection is still alive. Implementations whose
	// client already pings the broker on a keep-alive timer may report
	// whether that session is still open instead of sending a ping of their
	// own; RealTransport does this.
	Ping() error

	// Publish sends payload to topic.
	Publish(topic string, payload []byte) error

	// Disconnect closes the connection, if any.
	Disconnect()
}
