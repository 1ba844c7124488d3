// Command greenhouse-sensor samples climate and motion sensors, drives the
// local alerts and display, and forwards telemetry to an MQTT collector.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/greenhouse-sensor/internal/climate"
	"github.com/sweeney/greenhouse-sensor/internal/clock"
	"github.com/sweeney/greenhouse-sensor/internal/config"
	"github.com/sweeney/greenhouse-sensor/internal/display"
	"github.com/sweeney/greenhouse-sensor/internal/gpio"
	"github.com/sweeney/greenhouse-sensor/internal/i2c"
	"github.com/sweeney/greenhouse-sensor/internal/logger"
	"github.com/sweeney/greenhouse-sensor/internal/logic"
	"github.com/sweeney/greenhouse-sensor/internal/mqtt"
	"github.com/sweeney/greenhouse-sensor/internal/oled"
	"github.com/sweeney/greenhouse-sensor/internal/scheduler"
	"github.com/sweeney/greenhouse-sensor/internal/status"
	"github.com/sweeney/greenhouse-sensor/internal/telemetry"
	"github.com/sweeney/greenhouse-sensor/internal/webhook"
)

// eventOffline is the last-will event the broker publishes when it loses us.
const eventOffline = "OFFLINE"

func main() {
	ctx := context.Background()
	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		logger.Errorf(ctx, "fatal: %v", err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		printState bool
	)

	cmd := &cobra.Command{
		Use:           "greenhouse-sensor",
		Short:         "Greenhouse climate and pest monitor",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			level, ok := logger.ParseLogLevel(cfg.LogLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", cfg.LogLevel)
			}
			logger.SetLevel(level)

			ctx := logger.WithName(cmd.Context(), "greenhouse-sensor")

			hw, err := openHardware(cfg)
			if err != nil {
				return err
			}
			defer hw.Close(ctx)

			if printState {
				return printStatus(ctx, cmd.OutOrStdout(), cfg, hw)
			}

			ctx, stop := notifyContext(ctx)
			defer stop()

			ticker := time.NewTicker(cfg.Intervals.Tick)
			defer ticker.Stop()

			return run(ctx, cfg, hw, newTransport(cfg), ticker.C)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultPath+")")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&printState, "print-state", false, "print current sensor state and exit")

	return cmd
}

// hardware bundles the device handles opened for one run.
type hardware struct {
	motion  gpio.MotionReader
	led     gpio.Output
	buzzer  gpio.Output
	climate climate.Bus
	display display.Device // nil when disabled

	closers []func() error
}

// Close releases handles in reverse order of opening.
func (h *hardware) Close(ctx context.Context) {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			logger.WarnKV(ctx, "release hardware", "error", err)
		}
	}
	h.closers = nil
}

func openHardware(cfg *config.Config) (_ *hardware, err error) {
	hw := &hardware{}
	defer func() {
		if err != nil {
			hw.Close(context.Background())
		}
	}()

	chip, err := gpio.OpenChip(cfg.GPIO.Chip)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	hw.closers = append(hw.closers, chip.Close)

	motion, err := chip.Motion(cfg.GPIO.PIRPin)
	if err != nil {
		return nil, fmt.Errorf("init pir: %w", err)
	}
	hw.motion = motion
	hw.closers = append(hw.closers, motion.Close)

	led, err := chip.Output(cfg.GPIO.LEDPin, "greenhouse-led")
	if err != nil {
		return nil, fmt.Errorf("init led: %w", err)
	}
	hw.led = led
	hw.closers = append(hw.closers, led.Close)

	buzzer, err := chip.Output(cfg.GPIO.BuzzerPin, "greenhouse-buzzer")
	if err != nil {
		return nil, fmt.Errorf("init buzzer: %w", err)
	}
	hw.buzzer = buzzer
	hw.closers = append(hw.closers, buzzer.Close)

	bus, err := i2c.Open(cfg.Climate.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("init i2c: %w", err)
	}
	hw.closers = append(hw.closers, bus.Close)

	hw.climate = climate.NewAHT20(bus, cfg.Climate.AHT20Addr)
	if cfg.Display.Enabled {
		panel, err := oled.New(bus, cfg.Display.I2CAddr)
		if err != nil {
			return nil, fmt.Errorf("init display: %w", err)
		}
		hw.display = panel
	}

	return hw, nil
}

func newTransport(cfg *config.Config) *mqtt.RealTransport {
	return mqtt.NewRealTransport(mqtt.Options{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.MQTT.ClientID,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
		PublishTimeout: cfg.MQTT.PublishTimeout,
		KeepAlive:      cfg.MQTT.KeepAlive,
		WillTopic:      cfg.MQTT.SystemTopic,
		WillPayload:    fmt.Sprintf(`{"status":{"event":%q}}`, eventOffline),
	})
}

func run(ctx context.Context, cfg *config.Config, hw *hardware, transport mqtt.Transport, tick <-chan time.Time) error {
	reader := climate.NewReader(hw.climate, climate.Config{
		Attempts:   cfg.Climate.Attempts,
		RetryDelay: cfg.Climate.RetryDelay,
	})

	publisher := telemetry.NewPublisher(transport, telemetry.Config{
		Topic:       cfg.MQTT.Topic,
		SystemTopic: cfg.MQTT.SystemTopic,
	})
	if cfg.Webhook.URL != "" {
		backoff := cfg.Webhook.Backoff
		if backoff == 0 {
			backoff = -1
		}
		sink, err := webhook.New(webhook.Config{
			URL:     cfg.Webhook.URL,
			Timeout: cfg.Webhook.Timeout,
			Buffer:  cfg.Webhook.Buffer,
			Backoff: backoff,
		})
		if err != nil {
			return fmt.Errorf("init webhook: %w", err)
		}
		publisher.SetSink(sink)
	}

	sched := scheduler.New(scheduler.Components{
		Motion:    hw.motion,
		LED:       hw.led,
		Buzzer:    hw.buzzer,
		Climate:   reader,
		Display:   hw.display,
		Renderer:  display.NewRenderer(cfg.Display.Columns),
		Telemetry: publisher,
		Clock:     clock.NewMonotonic(),
		Network:   readNetworkInfo,
	}, schedulerConfig(cfg))

	logger.InfoKV(ctx, "started",
		"tick", cfg.Intervals.Tick.String(),
		"climate", cfg.Intervals.Climate.String(),
		"publish", cfg.Intervals.Publish.String(),
		"broker", cfg.MQTT.Broker,
		"topic", cfg.MQTT.Topic,
		"webhook", cfg.Webhook.URL != "",
		"display", hw.display != nil)

	return sched.Run(ctx, tick)
}

func schedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{
		Thresholds:       cfg.Thresholds.Logic(),
		Climate:          clock.FromDuration(cfg.Intervals.Climate),
		Display:          clock.FromDuration(cfg.Intervals.Display),
		HealthCheck:      clock.FromDuration(cfg.Intervals.HealthCheck),
		Publish:          clock.FromDuration(cfg.Intervals.Publish),
		Heartbeat:        clock.FromDuration(cfg.Intervals.Heartbeat),
		LEDBlink:         clock.FromDuration(cfg.Indicators.LEDBlink),
		BuzzerInterval:   clock.FromDuration(cfg.Indicators.BuzzerInterval),
		BuzzerBeep:       clock.FromDuration(cfg.Indicators.BuzzerBeep),
		MaxClimateFaults: cfg.Climate.MaxFaults,
		Cooldown:         cfg.Cooldown,
		Status:           statusConfig(cfg),
	}
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Thresholds:  cfg.Thresholds.Logic(),
		ClimateMs:   cfg.Intervals.Climate.Milliseconds(),
		DisplayMs:   cfg.Intervals.Display.Milliseconds(),
		PublishMs:   cfg.Intervals.Publish.Milliseconds(),
		HealthMs:    cfg.Intervals.HealthCheck.Milliseconds(),
		HeartbeatMs: cfg.Intervals.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		Topic:       cfg.MQTT.Topic,
		Webhook:     cfg.Webhook.URL != "",
	}
}

// printStatus samples the sensors once and writes the status JSON to w.
func printStatus(ctx context.Context, w io.Writer, cfg *config.Config, hw *hardware) error {
	motion, err := hw.motion.Read()
	if err != nil {
		return fmt.Errorf("read pir: %w", err)
	}

	reader := climate.NewReader(hw.climate, climate.Config{
		Attempts:   cfg.Climate.Attempts,
		RetryDelay: cfg.Climate.RetryDelay,
	})
	reading := reader.Read(ctx)
	if !reading.Valid {
		return fmt.Errorf("read climate: %w", reader.Err())
	}

	now := time.Now()
	snap := status.Snapshot{
		Reading:   reading,
		Motion:    motion,
		Status:    logic.Classify(reading, motion, cfg.Thresholds.Logic()),
		StartTime: now,
		Now:       now,
		Network:   readNetworkInfo(),
		Config:    statusConfig(cfg),
	}

	_, err = fmt.Fprintf(w, "%s\n", status.FormatJSON(snap))
	return err
}

// notifyContext returns a context cancelled on SIGINT or SIGTERM, with the
// signal recorded as a scheduler.StopSignal cause.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case s := <-sigCh:
			logger.InfoKV(ctx, "received signal", "signal", s.String())
			cancel(scheduler.StopSignal(signalName(s)))
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(errors.New("stopped"))
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
