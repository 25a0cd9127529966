package models

import "time"

// DeviceLock is the building-wide lock flag for one device. It is owned by the
// bulk automation path (lockdown/eco/night modes); this service only records
// updates pushed by the bridge and reads the flag before switching a device ON.
type DeviceLock struct {
	DeviceID  string    `json:"device_id"`
	Locked    bool      `json:"locked"`
	Mode      string    `json:"mode,omitempty"` // building mode that set the flag
	UpdatedAt time.Time `json:"updated_at"`
}
