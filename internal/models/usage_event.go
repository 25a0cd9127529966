package models

import "time"

// DeviceStatus is an ON/OFF transition reported by the device bridge.
type DeviceStatus string

const (
	StatusOn  DeviceStatus = "ON"
	StatusOff DeviceStatus = "OFF"
)

// IsValid reports whether s is ON or OFF.
func (s DeviceStatus) IsValid() bool {
	return s == StatusOn || s == StatusOff
}

// EventLogCapacity bounds the per-device usage event log. When the log is at
// capacity the oldest event is evicted on append (FIFO).
const EventLogCapacity = 30

// UsageEvent is a single ON/OFF transition of a device. The hour is stored
// alongside the timestamp because pattern detection clusters by hour of day.
type UsageEvent struct {
	ID        string       `json:"id"`
	DeviceID  string       `json:"device_id"`
	Status    DeviceStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Hour      int          `json:"hour"`
}
