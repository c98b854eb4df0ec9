package types

import "time"

// Telemetry is the reading as published on stations/<id>/telemetry.
type Telemetry struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
	Pressure    *float64  `json:"pressure_hpa,omitempty"`
	Battery     *float64  `json:"battery_v,omitempty"`
	Sequence    *int      `json:"sequence,omitempty"`
}

// TelemetryTopic is the topic a station publishes its readings on.
func TelemetryTopic(stationID string) string {
	return "stations/" + stationID + "/telemetry"
}
