package device

import (
	"encoding/json"
	"time"
)

// OnlineWindow is how recently a device must have reported to count as online.
const OnlineWindow = 5 * time.Minute

// Device is a tracker or phone carried by one student.
type Device struct {
	ID                string
	StudentID         int64
	DeviceType        string
	DeviceName        string
	MACAddress        *string
	IMEI              *string
	BatteryLevel      *int
	IsActive          bool
	LastSeen          *time.Time
	CurrentLatitude   *float64
	CurrentLongitude  *float64
	LocationAccuracy  *float64
	CurrentAddress    *string
	TrackingSettings  json.RawMessage
	EmergencyContacts json.RawMessage
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CurrentLocation is the denormalized last fix kept on the device record.
type CurrentLocation struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Address   *string
	Timestamp time.Time
}

// HasFix reports whether the device has ever recorded a location.
func (d *Device) HasFix() bool {
	return d.CurrentLatitude != nil && d.CurrentLongitude != nil
}

// CurrentLocation returns nil until the first fix has been recorded.
func (d *Device) CurrentLocation() *CurrentLocation {
	if !d.HasFix() {
		return nil
	}

	loc := &CurrentLocation{
		Latitude:  *d.CurrentLatitude,
		Longitude: *d.CurrentLongitude,
		Address:   d.CurrentAddress,
	}
	if d.LocationAccuracy != nil {
		loc.Accuracy = *d.LocationAccuracy
	}
	if d.LastSeen != nil {
		loc.Timestamp = *d.LastSeen
	} else {
		loc.Timestamp = d.UpdatedAt
	}
	return loc
}

// IsOnline checks if the device reported within OnlineWindow.
func (d *Device) IsOnline() bool {
	if d.LastSeen == nil {
		return false
	}
	return time.Since(*d.LastSeen) < OnlineWindow
}

// Fix is a single location observation reported by a device.
type Fix struct {
	Latitude     float64
	Longitude    float64
	Accuracy     *float64
	Address      *string
	BatteryLevel *int
	Speed        *float64 // km/h
	Timestamp    time.Time
}

// Location is an immutable entry of the location history log.
type Location struct {
	ID           int64
	DeviceID     string
	Latitude     float64
	Longitude    float64
	Accuracy     *float64
	Address      *string
	BatteryLevel *int
	Speed        *float64
	Timestamp    time.Time
}

// NewLocation builds the history entry recorded for fix.
func NewLocation(deviceID string, fix Fix) *Location {
	return &Location{
		DeviceID:     deviceID,
		Latitude:     fix.Latitude,
		Longitude:    fix.Longitude,
		Accuracy:     fix.Accuracy,
		Address:      fix.Address,
		BatteryLevel: fix.BatteryLevel,
		Speed:        fix.Speed,
		Timestamp:    fix.Timestamp,
	}
}

// FixResult describes what a recorded fix changed.
type FixResult struct {
	// Previous is the device as it was before the fix was applied.
	Previous *Device
	Entry    *Location
	// CacheUpdated is false when a newer fix was already cached on the device.
	CacheUpdated bool
}
