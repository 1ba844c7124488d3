// Package status builds point-in-time views of the controller for the
// lifecycle events published on the system topic.
package status

import (
	"time"

	"github.com/sweeney/greenhouse-sensor/internal/logic"
)

// Lifecycle events.
const (
	EventStartup   = "STARTUP"
	EventShutdown  = "SHUTDOWN"
	EventHeartbeat = "HEARTBEAT"
)

// NetworkInfo contains network state as reported by the host's network
// helper. Any field may be empty.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains controller configuration for display.
type Config struct {
	Thresholds  logic.Thresholds
	ClimateMs   int64
	DisplayMs   int64
	PublishMs   int64
	HealthMs    int64
	HeartbeatMs int64
	Broker      string
	Topic       string
	Webhook     bool
}

// Snapshot is a point-in-time view of controller state.
type Snapshot struct {
	Reading       logic.Reading
	Motion        bool
	Status        logic.EnvironmentStatus
	ClimateFaults int
	Connected     bool
	StartTime     time.Time
	Now           time.Time
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}
