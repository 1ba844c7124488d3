// Package telemetry forwards samples to the remote collector over a lossy
// link. The Publisher is a two-state machine (Disconnected, Connected) driven
// by the scheduler's health-check and publish gates; it never retries inline.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweeney/greenhouse-sensor/internal/clock"
	"github.com/sweeney/greenhouse-sensor/internal/logger"
	"github.com/sweeney/greenhouse-sensor/internal/logic"
	"github.com/sweeney/greenhouse-sensor/internal/mqtt"
)

// ErrDisconnected is returned by publish operations while Disconnected.
var ErrDisconnected = errors.New("telemetry: disconnected")

// Sample is one publish cycle's view of the environment.
type Sample struct {
	Temperature float64
	Humidity    float64
	Motion      bool
	Status      logic.EnvironmentStatus
}

// PestDetected returns 1 when motion was seen, else 0.
func (s Sample) PestDetected() int {
	if s.Motion {
		return 1
	}
	return 0
}

// StatusCode returns 1 for an optimal environment, 0 for any anomaly.
func (s Sample) StatusCode() int {
	if s.Status.IsOptimal() {
		return 1
	}
	return 0
}

type payload struct {
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	PestDetected int     `json:"pest_detected"`
	Status       int     `json:"status"`
}

// Encode returns the collector payload for s.
func (s Sample) Encode() ([]byte, error) {
	return json.Marshal(payload{
		Temperature:  s.Temperature,
		Humidity:     s.Humidity,
		PestDetected: s.PestDetected(),
		Status:       s.StatusCode(),
	})
}

// Sink is an optional secondary destination for samples.
type Sink interface {
	Send(ctx context.Context, s Sample) error
}

// Health is the publisher's connection state.
type Health struct {
	Connected   bool
	LastCheck   clock.Ticks
	LastPublish clock.Ticks
}

// Config names the topics the publisher writes to.
type Config struct {
	Topic       string
	SystemTopic string
}

// Publisher owns the transport and its Health.
type Publisher struct {
	transport   mqtt.Transport
	topic       string
	systemTopic string
	sink        Sink
	health      Health
}

// NewPublisher creates a Disconnected publisher. Empty topics take the
// mqtt package defaults.
func NewPublisher(transport mqtt.Transport, cfg Config) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = mqtt.DefaultTopic
	}
	if cfg.SystemTopic == "" {
		cfg.SystemTopic = mqtt.DefaultSystemTopic
	}
	return &Publisher{
		transport:   transport,
		topic:       cfg.Topic,
		systemTopic: cfg.SystemTopic,
	}
}

// SetSink attaches a secondary sink. A nil sink detaches it.
func (p *Publisher) SetSink(s Sink) {
	p.sink = s
}

// Connected reports whether the publisher is in the Connected state.
func (p *Publisher) Connected() bool {
	return p.health.Connected
}

// Connect attempts the initial connection. No-op when Connected.
func (p *Publisher) Connect(ctx context.Context, now clock.Ticks) error {
	if p.health.Connected {
		return nil
	}
	p.health.LastCheck = now
	if err := p.transport.Connect(); err != nil {
		return fmt.Errorf("telemetry connect: %w", err)
	}
	p.health.Connected = true
	logger.Infof(ctx, "telemetry: connected")
	return nil
}

// HealthCheck probes a live connection or re-establishes a lost one.
func (p *Publisher) HealthCheck(ctx context.Context, now clock.Ticks) error {
	p.health.LastCheck = now

	if p.health.Connected {
		if err := p.transport.Ping(); err != nil {
			p.health.Connected = false
			logger.WarnKV(ctx, "telemetry: link lost", "error", err)
			return fmt.Errorf("telemetry ping: %w", err)
		}
		return nil
	}

	if err := p.transport.Connect(); err != nil {
		logger.DebugKV(ctx, "telemetry: reconnect failed", "error", err)
		return fmt.Errorf("telemetry reconnect: %w", err)
	}
	p.health.Connected = true
	logger.Infof(ctx, "telemetry: reconnected")
	return nil
}

// Publish hands s to the sink, then to the transport if Connected.
// The sink sees every sample regardless of the transport state and its
// failures are only logged.
func (p *Publisher) Publish(ctx context.Context, now clock.Ticks, s Sample) error {
	if p.sink != nil {
		if err := p.sink.Send(ctx, s); err != nil {
			logger.WarnKV(ctx, "telemetry: sink send failed", "error", err)
		}
	}

	if !p.health.Connected {
		return ErrDisconnected
	}

	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}

	if err := p.transport.Publish(p.topic, data); err != nil {
		p.health.Connected = false
		logger.WarnKV(ctx, "telemetry: publish failed", "topic", p.topic, "error", err)
		return fmt.Errorf("telemetry publish: %w", err)
	}
	p.health.LastPublish = now
	return nil
}

// PublishSystem sends a lifecycle event on the system topic.
func (p *Publisher) PublishSystem(ctx context.Context, data []byte) error {
	if !p.health.Connected {
		return ErrDisconnected
	}
	if err := p.transport.Publish(p.systemTopic, data); err != nil {
		p.health.Connected = false
		logger.WarnKV(ctx, "telemetry: system event failed", "topic", p.systemTopic, "error", err)
		return fmt.Errorf("telemetry system event: %w", err)
	}
	return nil
}

// Close disconnects the transport.
func (p *Publisher) Close() {
	p.transport.Disconnect()
	p.health.Connected = false
}
