package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/greenhouse-sensor/internal/climate"
	"github.com/sweeney/greenhouse-sensor/internal/display"
	"github.com/sweeney/greenhouse-sensor/internal/gpio"
	"github.com/sweeney/greenhouse-sensor/internal/i2c"
	"github.com/sweeney/greenhouse-sensor/internal/logger"
	"github.com/sweeney/greenhouse-sensor/internal/logic"
	"github.com/sweeney/greenhouse-sensor/internal/mqtt"
	"github.com/sweeney/greenhouse-sensor/internal/oled"
	"github.com/sweeney/greenhouse-sensor/internal/webhook"
)

// DefaultPath is read when no --config flag is given. Its absence is not an error.
const DefaultPath = "/etc/greenhouse-sensor/config.yaml"

// maxInterval is the longest duration the tick counter can compare.
const maxInterval = 24 * time.Hour

// Config is the full configuration table.
type Config struct {
	Thresholds Thresholds    `yaml:"thresholds"`
	Intervals  Intervals     `yaml:"intervals"`
	Indicators Indicators    `yaml:"indicators"`
	Climate    Climate       `yaml:"climate"`
	Display    Display       `yaml:"display"`
	GPIO       GPIO          `yaml:"gpio"`
	MQTT       MQTT          `yaml:"mqtt"`
	Webhook    Webhook       `yaml:"webhook"`
	Cooldown   time.Duration `yaml:"cooldown"`
	LogLevel   string        `yaml:"log_level"`
}

// Thresholds bound the optimal climate, in °C and %RH.
type Thresholds struct {
	TempMin  float64 `yaml:"temp_min"`
	TempMax  float64 `yaml:"temp_max"`
	HumidMin float64 `yaml:"humid_min"`
	HumidMax float64 `yaml:"humid_max"`
}

// Logic converts t for the classifier.
func (t Thresholds) Logic() logic.Thresholds {
	return logic.Thresholds{
		TempMin:  t.TempMin,
		TempMax:  t.TempMax,
		HumidMin: t.HumidMin,
		HumidMax: t.HumidMax,
	}
}

// Intervals drive the scheduler gates. A zero Heartbeat disables it.
type Intervals struct {
	Tick        time.Duration `yaml:"tick"`
	Climate     time.Duration `yaml:"climate"`
	Display     time.Duration `yaml:"display"`
	HealthCheck time.Duration `yaml:"health_check"`
	Publish     time.Duration `yaml:"publish"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
}

// Indicators configure the LED blink and the buzzer beep.
type Indicators struct {
	LEDBlink       time.Duration `yaml:"led_blink"`
	BuzzerInterval time.Duration `yaml:"buzzer_interval"`
	BuzzerBeep     time.Duration `yaml:"buzzer_beep"`
}

// Climate configures the temperature/humidity sensor.
type Climate struct {
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	MaxFaults  int           `yaml:"max_faults"`
	I2CBus     string        `yaml:"i2c_bus"`
	AHT20Addr  uint16        `yaml:"aht20_addr"`
}

// Display configures the status screen.
type Display struct {
	Enabled bool   `yaml:"enabled"`
	I2CAddr uint16 `yaml:"i2c_addr"`
	Columns int    `yaml:"columns"`
}

// GPIO names the chip and line offsets.
type GPIO struct {
	Chip      string `yaml:"chip"`
	PIRPin    int    `yaml:"pir_pin"`
	LEDPin    int    `yaml:"led_pin"`
	BuzzerPin int    `yaml:"buzzer_pin"`
}

// MQTT configures the telemetry link.
type MQTT struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Topic          string        `yaml:"topic"`
	SystemTopic    string        `yaml:"system_topic"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
}

// Webhook configures the optional export sink. An empty URL disables it.
type Webhook struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Buffer  int           `yaml:"buffer"`
	// Backoff is the number of publish cycles skipped after a failed post.
	Backoff int `yaml:"backoff"`
}

var (
	errPositive  = errors.New("must be positive")
	errTooLong   = errors.New("exceeds 24h")
	errTooSlow   = errors.New("exceeds 1s")
	errRequired  = errors.New("must be set")
	errLogLevel  = errors.New("unknown log level")
	errNegative  = errors.New("must not be negative")
	errBeepSpan  = errors.New("beep must not exceed the buzzer interval")
	errDuplicate = errors.New("pins must be distinct")
)

// Default returns the compiled-in configuration table.
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{TempMin: 20, TempMax: 30, HumidMin: 60, HumidMax: 80},
		Intervals: Intervals{
			Tick:        20 * time.Millisecond,
			Climate:     2 * time.Second,
			Display:     500 * time.Millisecond,
			HealthCheck: 30 * time.Second,
			Publish:     5 * time.Second,
			Heartbeat:   15 * time.Minute,
		},
		Indicators: Indicators{
			LEDBlink:       200 * time.Millisecond,
			BuzzerInterval: 200 * time.Millisecond,
			BuzzerBeep:     100 * time.Millisecond,
		},
		Climate: Climate{
			Attempts:   climate.DefaultAttempts,
			RetryDelay: climate.DefaultRetryDelay,
			MaxFaults:  3,
			I2CBus:     i2c.DefaultBus,
			AHT20Addr:  climate.DefaultAHT20Address,
		},
		Display: Display{
			Enabled: true,
			I2CAddr: oled.DefaultAddress,
			Columns: display.DefaultColumns,
		},
		GPIO: GPIO{
			Chip:      gpio.DefaultChip,
			PIRPin:    gpio.DefaultPinPIR,
			LEDPin:    gpio.DefaultPinLED,
			BuzzerPin: gpio.DefaultPinBuzzer,
		},
		MQTT: MQTT{
			Broker:         "tcp://industrial.api.ubidots.com:1883",
			ClientID:       "greenhouse-sensor",
			Topic:          mqtt.DefaultTopic,
			SystemTopic:    mqtt.DefaultSystemTopic,
			ConnectTimeout: 5 * time.Second,
			PublishTimeout: 2 * time.Second,
			KeepAlive:      30 * time.Second,
		},
		Webhook: Webhook{
			Timeout: webhook.DefaultTimeout,
			Buffer:  webhook.DefaultBuffer,
			Backoff: webhook.DefaultBackoff,
		},
		Cooldown: time.Second,
		LogLevel: "info",
	}
}

// Load overlays the YAML file at path on the defaults and validates the
// result. An empty path means DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultPath
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the controller cannot run with.
func Validate(cfg *Config) error {
	if err := cfg.Thresholds.Logic().Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"intervals.tick", cfg.Intervals.Tick},
		{"intervals.climate", cfg.Intervals.Climate},
		{"intervals.display", cfg.Intervals.Display},
		{"intervals.health_check", cfg.Intervals.HealthCheck},
		{"intervals.publish", cfg.Intervals.Publish},
		{"indicators.led_blink", cfg.Indicators.LEDBlink},
		{"indicators.buzzer_interval", cfg.Indicators.BuzzerInterval},
		{"indicators.buzzer_beep", cfg.Indicators.BuzzerBeep},
		{"mqtt.connect_timeout", cfg.MQTT.ConnectTimeout},
		{"mqtt.publish_timeout", cfg.MQTT.PublishTimeout},
		{"mqtt.keep_alive", cfg.MQTT.KeepAlive},
		{"webhook.timeout", cfg.Webhook.Timeout},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s: %w", iv.name, errPositive)
		}
		if iv.d > maxInterval {
			return fmt.Errorf("%s: %w", iv.name, errTooLong)
		}
	}

	if cfg.Intervals.Heartbeat < 0 {
		return fmt.Errorf("intervals.heartbeat: %w", errNegative)
	}
	if cfg.Intervals.Heartbeat > maxInterval {
		return fmt.Errorf("intervals.heartbeat: %w", errTooLong)
	}
	if cfg.Indicators.BuzzerBeep > cfg.Indicators.BuzzerInterval {
		return fmt.Errorf("indicators.buzzer_beep: %w", errBeepSpan)
	}
	if cfg.Cooldown < 0 {
		return fmt.Errorf("cooldown: %w", errNegative)
	}

	if cfg.Climate.Attempts < 1 {
		return fmt.Errorf("climate.attempts: %w", errPositive)
	}
	if cfg.Climate.RetryDelay < 0 {
		return fmt.Errorf("climate.retry_delay: %w", errNegative)
	}
	if cfg.Climate.MaxFaults < 0 {
		return fmt.Errorf("climate.max_faults: %w", errNegative)
	}
	if cfg.Climate.I2CBus == "" {
		return fmt.Errorf("climate.i2c_bus: %w", errRequired)
	}
	if cfg.Display.Columns < 1 {
		return fmt.Errorf("display.columns: %w", errPositive)
	}

	if cfg.GPIO.Chip == "" {
		return fmt.Errorf("gpio.chip: %w", errRequired)
	}
	pins := []int{cfg.GPIO.PIRPin, cfg.GPIO.LEDPin, cfg.GPIO.BuzzerPin}
	for i, p := range pins {
		if p < 0 {
			return fmt.Errorf("gpio pin %d: %w", p, errNegative)
		}
		for _, q := range pins[i+1:] {
			if p == q {
				return fmt.Errorf("gpio pin %d: %w", p, errDuplicate)
			}
		}
	}

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker: %w", errRequired)
	}
	if _, err := url.Parse(cfg.MQTT.Broker); err != nil {
		return fmt.Errorf("invalid mqtt.broker: %w", err)
	}
	if cfg.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic: %w", errRequired)
	}
	if cfg.MQTT.SystemTopic == "" {
		return fmt.Errorf("mqtt.system_topic: %w", errRequired)
	}

	if cfg.Webhook.URL != "" {
		if _, err := url.ParseRequestURI(cfg.Webhook.URL); err != nil {
			return fmt.Errorf("invalid webhook.url: %w", err)
		}
	}
	if cfg.Webhook.Timeout > webhook.MaxTimeout {
		return fmt.Errorf("webhook.timeout: %w", errTooSlow)
	}
	if cfg.Webhook.Buffer < 1 {
		return fmt.Errorf("webhook.buffer: %w", errPositive)
	}
	if cfg.Webhook.Backoff < 0 {
		return fmt.Errorf("webhook.backoff: %w", errNegative)
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errLogLevel, cfg.LogLevel)
	}

	return nil
}
