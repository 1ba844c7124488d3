package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Environment   string       `json:"environment"`
	Optimal       bool         `json:"optimal"`
	Climate       ClimateJSON  `json:"climate"`
	PestDetected  bool         `json:"pest_detected"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ClimateJSON reports the last reading and the sensor fault counter.
type ClimateJSON struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Valid       bool    `json:"valid"`
	Faults      int     `json:"faults"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Topic     string `json:"topic"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	HumidMin    float64 `json:"humid_min"`
	HumidMax    float64 `json:"humid_max"`
	ClimateMs   int64   `json:"climate_ms"`
	DisplayMs   int64   `json:"display_ms"`
	PublishMs   int64   `json:"publish_ms"`
	HealthMs    int64   `json:"health_check_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	Webhook     bool    `json:"webhook"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Environment: snap.Status.String(),
		Optimal:     snap.Status.IsOptimal(),
		Climate: ClimateJSON{
			Temperature: snap.Reading.Temperature,
			Humidity:    snap.Reading.Humidity,
			Valid:       snap.Reading.Valid,
			Faults:      snap.ClimateFaults,
		},
		PestDetected:  snap.Motion,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.Connected,
			Broker:    snap.Config.Broker,
			Topic:     snap.Config.Topic,
		},
		Config: ConfigJSON{
			TempMin:     snap.Config.Thresholds.TempMin,
			TempMax:     snap.Config.Thresholds.TempMax,
			HumidMin:    snap.Config.Thresholds.HumidMin,
			HumidMax:    snap.Config.Thresholds.HumidMax,
			ClimateMs:   snap.Config.ClimateMs,
			DisplayMs:   snap.Config.DisplayMs,
			PublishMs:   snap.Config.PublishMs,
			HealthMs:    snap.Config.HealthMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Webhook:     snap.Config.Webhook,
		},
	}

	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
