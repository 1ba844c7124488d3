package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse-sensor/internal/clock"
	"github.com/sweeney/greenhouse-sensor/internal/logic"
	"github.com/sweeney/greenhouse-sensor/internal/mqtt"
)

var errRefused = errors.New("connection refused")

type recordingSink struct {
	samples []Sample
	err     error
}

func (r *recordingSink) Send(_ context.Context, s Sample) error {
	r.samples = append(r.samples, s)
	return r.err
}

func optimalSample() Sample {
	return Sample{Temperature: 25, Humidity: 70, Status: logic.Optimal}
}

func TestSampleEncode(t *testing.T) {
	data, err := Sample{
		Temperature: 31.5,
		Humidity:    55,
		Motion:      true,
		Status:      logic.PestDetected,
	}.Encode()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, map[string]any{
		"temperature":   31.5,
		"humidity":      55.0,
		"pest_detected": 1.0,
		"status":        0.0,
	}, got)
}

func TestSampleCodes(t *testing.T) {
	s := optimalSample()
	require.Equal(t, 0, s.PestDetected())
	require.Equal(t, 1, s.StatusCode())

	s.Status = logic.Combined(logic.LevelHigh, logic.LevelLow)
	require.Equal(t, 0, s.StatusCode())
}

func TestConnectIsIdempotent(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})

	require.NoError(t, p.Connect(context.Background(), 0))
	require.NoError(t, p.Connect(context.Background(), 10))
	require.True(t, p.Connected())
	require.Equal(t, 1, tr.ConnectCalls)
}

func TestConnectFailureStaysDisconnected(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	tr.ConnectError = errRefused
	p := NewPublisher(tr, Config{})

	err := p.Connect(context.Background(), 0)
	require.ErrorIs(t, err, errRefused)
	require.False(t, p.Connected())
}

func TestPublishWhileDisconnectedNeverTouchesTransport(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})

	for i := 0; i < 5; i++ {
		err := p.Publish(context.Background(), clock.Ticks(i*5000), optimalSample())
		require.ErrorIs(t, err, ErrDisconnected)
	}
	require.ErrorIs(t, p.PublishSystem(context.Background(), []byte("{}")), ErrDisconnected)
	require.Zero(t, tr.PublishCalls)
}

func TestPublishSendsPayloadOnTopic(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{Topic: "/v1.6/devices/test"})
	require.NoError(t, p.Connect(context.Background(), 0))

	require.NoError(t, p.Publish(context.Background(), 5000, optimalSample()))
	require.Len(t, tr.Messages, 1)
	require.Equal(t, "/v1.6/devices/test", tr.Messages[0].Topic)
	require.JSONEq(t,
		`{"temperature":25,"humidity":70,"pest_detected":0,"status":1}`,
		string(tr.Messages[0].Payload))
	require.Equal(t, clock.Ticks(5000), p.health.LastPublish)
}

func TestPublishFailureDisconnectsWithoutRetry(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})
	require.NoError(t, p.Connect(context.Background(), 0))
	tr.PublishScript = []error{errors.New("broken pipe")}

	err := p.Publish(context.Background(), 5000, optimalSample())
	require.Error(t, err)
	require.False(t, p.Connected())
	require.Equal(t, 1, tr.PublishCalls)
	require.Equal(t, clock.Ticks(0), p.health.LastPublish)

	// Subsequent publishes are skipped until a health check reconnects.
	require.ErrorIs(t, p.Publish(context.Background(), 10000, optimalSample()), ErrDisconnected)
	require.Equal(t, 1, tr.PublishCalls)
}

func TestHealthCheckPingFailureDisconnects(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})
	require.NoError(t, p.Connect(context.Background(), 0))
	tr.PingScript = []error{errors.New("keepalive timeout")}

	require.Error(t, p.HealthCheck(context.Background(), 30000))
	require.False(t, p.Connected())
	require.Equal(t, clock.Ticks(30000), p.health.LastCheck)
}

func TestHealthCheckRecoversAfterFailures(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	tr.ConnectScript = []error{errRefused, errRefused, errRefused, errRefused}
	p := NewPublisher(tr, Config{})
	ctx := context.Background()

	require.Error(t, p.Connect(ctx, 0))
	for i := 1; i <= 3; i++ {
		require.Error(t, p.HealthCheck(ctx, clock.Ticks(i*30000)))
		require.False(t, p.Connected())
	}

	require.NoError(t, p.HealthCheck(ctx, 120000))
	require.True(t, p.Connected())

	require.NoError(t, p.Publish(ctx, 125000, optimalSample()))
	require.Len(t, tr.Messages, 1)
}

func TestHealthCheckConnectedPings(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})
	require.NoError(t, p.Connect(context.Background(), 0))

	require.NoError(t, p.HealthCheck(context.Background(), 30000))
	require.True(t, p.Connected())
	require.Equal(t, 1, tr.PingCalls)
	require.Equal(t, 1, tr.ConnectCalls)
}

func TestSinkReceivesSamplesIndependently(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	sink := &recordingSink{err: errors.New("webhook down")}
	p := NewPublisher(tr, Config{})
	p.SetSink(sink)

	require.ErrorIs(t, p.Publish(context.Background(), 0, optimalSample()), ErrDisconnected)
	require.Len(t, sink.samples, 1)

	require.NoError(t, p.Connect(context.Background(), 0))
	require.NoError(t, p.Publish(context.Background(), 5000, optimalSample()))
	require.Len(t, sink.samples, 2)
	require.True(t, p.Connected())
}

func TestPublishSystemUsesSystemTopic(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})
	require.NoError(t, p.Connect(context.Background(), 0))

	require.NoError(t, p.PublishSystem(context.Background(), []byte(`{"status":{}}`)))
	require.Len(t, tr.OnTopic(mqtt.DefaultSystemTopic), 1)
}

func TestClose(t *testing.T) {
	tr := mqtt.NewFakeTransport()
	p := NewPublisher(tr, Config{})
	require.NoError(t, p.Connect(context.Background(), 0))

	p.Close()
	require.False(t, p.Connected())
	require.False(t, tr.Connected)
	require.Equal(t, 1, tr.DisconnectCalls)
}
