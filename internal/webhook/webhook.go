// Package webhook exports samples to an HTTP endpoint such as a spreadsheet
// script. Rows that fail to send are kept in a bounded buffer and replayed
// with the next successful request.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/sweeney/greenhouse-sensor/internal/logger"
	"github.com/sweeney/greenhouse-sensor/internal/telemetry"
)

// ErrStatus is returned when the endpoint answers with a non-2xx status.
var ErrStatus = errors.New("webhook: unexpected status")

// Defaults for Config.
const (
	DefaultTimeout = 300 * time.Millisecond
	DefaultBuffer  = 64
	DefaultBackoff = 6
)

// MaxTimeout caps a single request so a slow endpoint cannot stall the loop.
const MaxTimeout = time.Second

// Row is one exported sample.
type Row struct {
	Timestamp    string  `json:"timestamp"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	PestDetected int     `json:"pest_detected"`
	Status       int     `json:"status"`
}

type request struct {
	Rows []Row `json:"rows"`
}

// Config for a Sink.
type Config struct {
	URL     string
	Timeout time.Duration
	Buffer  int
	// Backoff is the number of Send calls that only buffer after a failed
	// request. Zero selects DefaultBackoff; a negative value disables it.
	Backoff int
}

// Sink posts rows to a URL. It implements telemetry.Sink.
type Sink struct {
	url     string
	timeout time.Duration
	client  *http.Client
	pending *ringBuffer
	now     func() time.Time

	backoff int
	skip    int
}

// New creates a Sink with an HTTP/2-capable client.
func New(cfg Config) (*Sink, error) {
	cfg = withDefaults(cfg)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	return NewWithClient(cfg, &http.Client{Transport: transport, Timeout: cfg.Timeout}), nil
}

// NewWithClient creates a Sink that sends through client.
func NewWithClient(cfg Config, client *http.Client) *Sink {
	cfg = withDefaults(cfg)
	return &Sink{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  client,
		pending: newRingBuffer(cfg.Buffer),
		now:     time.Now,
		backoff: cfg.Backoff,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout > MaxTimeout {
		cfg.Timeout = MaxTimeout
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	switch {
	case cfg.Backoff == 0:
		cfg.Backoff = DefaultBackoff
	case cfg.Backoff < 0:
		cfg.Backoff = 0
	}
	return cfg
}

// Pending returns the number of rows waiting for replay.
func (s *Sink) Pending() int {
	return s.pending.len()
}

// Send posts s together with any buffered rows. On failure every row,
// including s, is kept and the next Backoff calls only buffer.
func (s *Sink) Send(ctx context.Context, sample telemetry.Sample) error {
	s.push(ctx, Row{
		Timestamp:    s.now().UTC().Format(time.RFC3339),
		Temperature:  sample.Temperature,
		Humidity:     sample.Humidity,
		PestDetected: sample.PestDetected(),
		Status:       sample.StatusCode(),
	})

	if s.skip > 0 {
		s.skip--
		logger.DebugKV(ctx, "webhook: backing off", "pending", s.pending.len(), "skips_left", s.skip)
		return nil
	}

	rows := s.pending.drainAll()
	if err := s.post(ctx, rows); err != nil {
		for _, r := range rows {
			s.push(ctx, r)
		}
		s.skip = s.backoff
		return err
	}

	if len(rows) > 1 {
		logger.DebugKV(ctx, "webhook: replayed buffered rows", "count", len(rows)-1)
	}
	return nil
}

func (s *Sink) push(ctx context.Context, r Row) {
	if s.pending.push(r) && s.pending.dropped == 1 {
		logger.WarnKV(ctx, "webhook: buffer full, dropping oldest", "capacity", s.pending.capacity)
	}
}

func (s *Sink) post(ctx context.Context, rows []Row) error {
	body, err := json.Marshal(request{Rows: rows})
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}
