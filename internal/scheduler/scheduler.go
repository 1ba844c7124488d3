// Package scheduler runs the controller's cooperative loop. A single Tick
// samples motion, drives the indicators and then runs each periodic activity
// whose gate is due. Nothing in a tick waits on a timer; the only bounded
// blocking calls are the climate retries and the transport operations.
package scheduler

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/sweeney/greenhouse-sensor/internal/climate"
	"github.com/sweeney/greenhouse-sensor/internal/clock"
	"github.com/sweeney/greenhouse-sensor/internal/display"
	"github.com/sweeney/greenhouse-sensor/internal/gpio"
	"github.com/sweeney/greenhouse-sensor/internal/logger"
	"github.com/sweeney/greenhouse-sensor/internal/logic"
	"github.com/sweeney/greenhouse-sensor/internal/status"
	"github.com/sweeney/greenhouse-sensor/internal/telemetry"
)

// DefaultCooldown is the pause after a tick panicked.
const DefaultCooldown = time.Second

// StopSignal is a context cancellation cause naming the signal that stopped
// the loop. It becomes the reason of the SHUTDOWN event.
type StopSignal string

func (s StopSignal) Error() string {
	return "received " + string(s)
}

// Components are the collaborators the scheduler drives.
// Display may be nil when no screen is fitted.
type Components struct {
	Motion    gpio.MotionReader
	LED       gpio.Output
	Buzzer    gpio.Output
	Climate   *climate.Reader
	Display   display.Device
	Renderer  *display.Renderer
	Telemetry *telemetry.Publisher
	Clock     clock.Source

	// Network, if set, is consulted for lifecycle events.
	Network func() *status.NetworkInfo
}

// Config holds the gate intervals and policies. A zero Heartbeat disables
// heartbeat events.
type Config struct {
	Thresholds logic.Thresholds

	Climate     clock.Duration
	Display     clock.Duration
	HealthCheck clock.Duration
	Publish     clock.Duration
	Heartbeat   clock.Duration

	LEDBlink       clock.Duration
	BuzzerInterval clock.Duration
	BuzzerBeep     clock.Duration

	MaxClimateFaults int
	Cooldown         time.Duration

	// Status is echoed in lifecycle events.
	Status status.Config
}

// Scheduler owns every piece of controller state.
type Scheduler struct {
	cfg Config

	motion    gpio.MotionReader
	led       gpio.Output
	buzzer    gpio.Output
	climate   *climate.Reader
	device    display.Device
	renderer  *display.Renderer
	telemetry *telemetry.Publisher
	clock     clock.Source
	network   func() *status.NetworkInfo

	climateGate   Gate
	displayGate   Gate
	healthGate    Gate
	publishGate   Gate
	heartbeatGate Gate

	ledIndicator    *logic.Indicator
	buzzerIndicator *logic.Indicator

	reading  logic.Reading
	moving   bool
	current  logic.EnvironmentStatus
	degraded bool

	startTime time.Time
	wallNow   func() time.Time
	after     func(time.Duration) <-chan time.Time
}

// New creates a scheduler. Nothing is touched until Run or Tick.
func New(c Components, cfg Config) *Scheduler {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if c.Renderer == nil {
		c.Renderer = display.NewRenderer(display.DefaultColumns)
	}
	if c.Clock == nil {
		c.Clock = clock.NewMonotonic()
	}

	return &Scheduler{
		cfg:       cfg,
		motion:    c.Motion,
		led:       c.LED,
		buzzer:    c.Buzzer,
		climate:   c.Climate,
		device:    c.Display,
		renderer:  c.Renderer,
		telemetry: c.Telemetry,
		clock:     c.Clock,
		network:   c.Network,

		climateGate:   Gate{Interval: cfg.Climate},
		displayGate:   Gate{Interval: cfg.Display},
		healthGate:    Gate{Interval: cfg.HealthCheck},
		publishGate:   Gate{Interval: cfg.Publish},
		heartbeatGate: Gate{Interval: cfg.Heartbeat},

		ledIndicator:    logic.NewIndicator(cfg.LEDBlink),
		buzzerIndicator: logic.NewPulseIndicator(cfg.BuzzerInterval, cfg.BuzzerBeep),

		current:   logic.Optimal,
		startTime: time.Now(),
		wallNow:   time.Now,
		after:     time.After,
	}
}

// Reading returns the latest climate reading.
func (s *Scheduler) Reading() logic.Reading { return s.reading }

// Motion returns the motion state sampled by the latest tick.
func (s *Scheduler) Motion() bool { return s.moving }

// Status returns the latest classification.
func (s *Scheduler) Status() logic.EnvironmentStatus { return s.current }

// Snapshot returns a point-in-time view for status events.
func (s *Scheduler) Snapshot() status.Snapshot {
	snap := status.Snapshot{
		Reading:   s.reading,
		Motion:    s.moving,
		Status:    s.current,
		Connected: s.telemetry.Connected(),
		StartTime: s.startTime,
		Now:       s.wallNow(),
		Config:    s.cfg.Status,
	}
	if s.climate != nil {
		snap.ClimateFaults = s.climate.Faults()
	}
	if s.network != nil {
		snap.Network = s.network()
	}
	return snap
}

// Start draws the splash screen, connects the telemetry link and announces
// STARTUP. A failed connection is left to the health check.
func (s *Scheduler) Start(ctx context.Context) {
	now := s.clock.Now()
	s.startTime = s.wallNow()

	if s.device != nil {
		if err := s.renderer.Splash(s.device); err != nil {
			logger.WarnKV(ctx, "splash failed", "error", err)
		}
	}

	if err := s.telemetry.Connect(ctx, now); err != nil {
		logger.WarnKV(ctx, "initial connect failed, will retry on health check", "error", err)
	}
	s.healthGate.Fire(now)
	s.heartbeatGate.Fire(now)

	s.publishEvent(ctx, status.EventStartup, "")
}

// Tick performs one pass of the loop at now.
func (s *Scheduler) Tick(ctx context.Context, now clock.Ticks) {
	s.readMotion(ctx)
	s.driveIndicators(ctx, now)

	if s.climateGate.Try(now) {
		s.readClimate(ctx)
	}

	s.classify(ctx)

	if s.device != nil && s.displayGate.Try(now) {
		s.render(ctx)
	}

	if s.healthGate.Try(now) {
		// Errors are logged by the publisher; state is all we need.
		_ = s.telemetry.HealthCheck(ctx, now)
	}

	if s.publishGate.Try(now) {
		s.publish(ctx, now)
	}

	if s.cfg.Heartbeat > 0 && s.heartbeatGate.Try(now) {
		s.publishEvent(ctx, status.EventHeartbeat, "")
	}
}

func (s *Scheduler) readMotion(ctx context.Context) {
	moving, err := s.motion.Read()
	if err != nil {
		logger.DebugKV(ctx, "motion read failed", "error", err)
		moving = false
	}
	s.moving = moving
}

func (s *Scheduler) driveIndicators(ctx context.Context, now clock.Ticks) {
	alerting := !s.current.IsOptimal()

	if on, changed := s.ledIndicator.Update(now, alerting); changed {
		if err := s.led.Set(on); err != nil {
			logger.WarnKV(ctx, "led write failed", "error", err)
		}
	}
	if on, changed := s.buzzerIndicator.Update(now, alerting); changed {
		if err := s.buzzer.Set(on); err != nil {
			logger.WarnKV(ctx, "buzzer write failed", "error", err)
		}
	}
}

func (s *Scheduler) readClimate(ctx context.Context) {
	s.reading = s.climate.Read(ctx)

	degraded := s.climate.Degraded(s.cfg.MaxClimateFaults)
	switch {
	case degraded:
		logger.WarnKV(ctx, "climate sensor degraded",
			"faults", s.climate.Faults(),
			"temperature", s.reading.Temperature,
			"humidity", s.reading.Humidity,
			"error", s.climate.Err())
	case s.degraded:
		logger.Infof(ctx, "climate sensor recovered")
	}
	s.degraded = degraded
}

func (s *Scheduler) classify(ctx context.Context) {
	next := logic.Classify(s.reading, s.moving, s.cfg.Thresholds)
	if next != s.current {
		logger.InfoKV(ctx, "environment changed",
			"from", s.current.String(),
			"to", next.String(),
			"temperature", s.reading.Temperature,
			"humidity", s.reading.Humidity)
	}
	s.current = next
}

func (s *Scheduler) render(ctx context.Context) {
	err := s.renderer.Render(s.device, display.View{
		Reading: s.reading,
		Motion:  s.moving,
		Status:  s.current,
	})
	if err != nil {
		logger.DebugKV(ctx, "display render failed", "error", err)
	}
}

func (s *Scheduler) publish(ctx context.Context, now clock.Ticks) {
	err := s.telemetry.Publish(ctx, now, telemetry.Sample{
		Temperature: s.reading.Temperature,
		Humidity:    s.reading.Humidity,
		Motion:      s.moving,
		Status:      s.current,
	})
	switch {
	case errors.Is(err, telemetry.ErrDisconnected):
		logger.DebugKV(ctx, "publish skipped while disconnected")
	case err != nil:
		// Logged by the publisher; the next health check reconnects.
	default:
		logger.DebugKV(ctx, "published",
			"temperature", s.reading.Temperature,
			"humidity", s.reading.Humidity,
			"status", s.current.String())
	}
}

func (s *Scheduler) publishEvent(ctx context.Context, event, reason string) {
	if !s.telemetry.Connected() {
		logger.DebugKV(ctx, "status event skipped while disconnected", "event", event)
		return
	}

	snap := s.Snapshot()
	if err := s.telemetry.PublishSystem(ctx, status.FormatStatusEvent(snap, event, reason)); err != nil {
		return
	}
	logger.InfoKV(ctx, "published status event",
		"event", event,
		"uptime", snap.Uptime().Truncate(time.Second).String())
}

// Run starts the controller and ticks it on every value from tick until ctx
// is cancelled, then shuts down. Cancellation is observed between ticks.
func (s *Scheduler) Run(ctx context.Context, tick <-chan time.Time) error {
	ctx = logger.WithName(ctx, "scheduler")
	s.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Shutdown(context.WithoutCancel(ctx), stopReason(ctx))
			return nil

		case <-tick:
			if ctx.Err() != nil {
				continue
			}
			if s.safeTick(ctx, s.clock.Now()) {
				s.cooldown(ctx)
			}
		}
	}
}

// safeTick runs Tick and reports whether it panicked.
func (s *Scheduler) safeTick(ctx context.Context, now clock.Ticks) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "tick panicked",
				"panic", r,
				"cooldown", s.cfg.Cooldown.String(),
				"stack", string(debug.Stack()))
			panicked = true
		}
	}()

	s.Tick(ctx, now)
	return false
}

func (s *Scheduler) cooldown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.after(s.cfg.Cooldown):
	}
}

func stopReason(ctx context.Context) string {
	var sig StopSignal
	if errors.As(context.Cause(ctx), &sig) {
		return string(sig)
	}
	return "CANCELLED"
}

// Shutdown announces SHUTDOWN, silences the outputs, clears the display to a
// stopped notice and closes the telemetry link. Failures are logged and do not stop the sequence.
func (s *Scheduler) Shutdown(ctx context.Context, reason string) {
	logger.InfoKV(ctx, "shutting down", "reason", reason)

	s.publishEvent(ctx, status.EventShutdown, reason)

	if err := s.led.Set(false); err != nil {
		logger.WarnKV(ctx, "led off failed", "error", err)
	}
	if err := s.buzzer.Set(false); err != nil {
		logger.WarnKV(ctx, "buzzer off failed", "error", err)
	}

	if s.device != nil {
		if err := s.renderer.Stopped(s.device); err != nil {
			logger.WarnKV(ctx, "display clear failed", "error", err)
		}
	}

	s.telemetry.Close()
}
