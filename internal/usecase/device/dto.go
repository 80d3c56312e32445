package device

import (
	"encoding/json"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/usecase/zone"
)

type RegisterDeviceRequest struct {
	StudentID         *int64          `json:"studentId" validate:"required"`
	DeviceType        string          `json:"deviceType" validate:"trimmed_required,max=50"`
	DeviceName        string          `json:"deviceName" validate:"trimmed_required,max=255"`
	MACAddress        *string         `json:"macAddress" validate:"omitempty,max=64"`
	IMEI              *string         `json:"imei" validate:"omitempty,max=32"`
	BatteryLevel      *int            `json:"batteryLevel" validate:"omitempty,min=0,max=100"`
	IsActive          *bool           `json:"isActive"`
	TrackingSettings  json.RawMessage `json:"trackingSettings"`
	EmergencyContacts json.RawMessage `json:"emergencyContacts"`
}

// LocationRequest is a single fix. Timestamp defaults to the receive time.
type LocationRequest struct {
	Latitude     *float64   `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude    *float64   `json:"longitude" validate:"required,min=-180,max=180"`
	Accuracy     *float64   `json:"accuracy" validate:"omitempty,min=0"`
	Address      *string    `json:"address" validate:"omitempty,max=500"`
	BatteryLevel *int       `json:"batteryLevel" validate:"omitempty,min=0,max=100"`
	Speed        *float64   `json:"speed" validate:"omitempty,min=0"`
	Timestamp    *time.Time `json:"timestamp"`
}

// HistoryRequest bounds a history read. Zero times are open bounds.
type HistoryRequest struct {
	From  time.Time
	To    time.Time
	Limit int `validate:"omitempty,min=1,max=1000"`
}

type CurrentLocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Address   *string `json:"address"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

type DeviceResponse struct {
	ID                string                   `json:"id"`
	StudentID         int64                    `json:"studentId"`
	DeviceType        string                   `json:"deviceType"`
	DeviceName        string                   `json:"deviceName"`
	MACAddress        *string                  `json:"macAddress"`
	IMEI              *string                  `json:"imei"`
	CurrentLatitude   *float64                 `json:"currentLatitude"`
	CurrentLongitude  *float64                 `json:"currentLongitude"`
	LocationAccuracy  *float64                 `json:"locationAccuracy"`
	CurrentAddress    *string                  `json:"currentAddress"`
	BatteryLevel      *int                     `json:"batteryLevel"`
	IsActive          bool                     `json:"isActive"`
	IsOnline          bool                     `json:"isOnline"`
	LastSeen          *time.Time               `json:"lastSeen"`
	TrackingSettings  json.RawMessage          `json:"trackingSettings"`
	EmergencyContacts json.RawMessage          `json:"emergencyContacts"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	SafeZones         []zone.SafeZoneResponse  `json:"safeZones"`
	CurrentLocation   *CurrentLocationResponse `json:"currentLocation"`
}

type LocationResponse struct {
	ID           int64    `json:"id"`
	DeviceID     string   `json:"deviceId"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accuracy     float64  `json:"accuracy"`
	Address      *string  `json:"address"`
	BatteryLevel *int     `json:"batteryLevel"`
	Speed        *float64 `json:"speed"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

type UpdateLocationResponse struct {
	Success bool `json:"success"`
	// Stale is true when a newer fix was already cached; the fix is still in the history.
	Stale bool `json:"stale"`
}

func ToDeviceResponse(d *domainDevice.Device, zones []zone.SafeZoneResponse) *DeviceResponse {
	if d == nil {
		return nil
	}
	if zones == nil {
		zones = []zone.SafeZoneResponse{}
	}

	resp := &DeviceResponse{
		ID:                d.ID,
		StudentID:         d.StudentID,
		DeviceType:        d.DeviceType,
		DeviceName:        d.DeviceName,
		MACAddress:        d.MACAddress,
		IMEI:              d.IMEI,
		CurrentLatitude:   d.CurrentLatitude,
		CurrentLongitude:  d.CurrentLongitude,
		LocationAccuracy:  d.LocationAccuracy,
		CurrentAddress:    d.CurrentAddress,
		BatteryLevel:      d.BatteryLevel,
		IsActive:          d.IsActive,
		IsOnline:          d.IsOnline(),
		LastSeen:          d.LastSeen,
		TrackingSettings:  jsonOrNull(d.TrackingSettings),
		EmergencyContacts: jsonOrNull(d.EmergencyContacts),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		SafeZones:         zones,
	}

	if loc := d.CurrentLocation(); loc != nil {
		resp.CurrentLocation = &CurrentLocationResponse{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Accuracy:  loc.Accuracy,
			Address:   loc.Address,
			Timestamp: loc.Timestamp.UnixMilli(),
		}
	}

	return resp
}

func ToLocationResponse(l *domainDevice.Location) *LocationResponse {
	resp := &LocationResponse{
		ID:           l.ID,
		DeviceID:     l.DeviceID,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		Address:      l.Address,
		BatteryLevel: l.BatteryLevel,
		Speed:        l.Speed,
		Timestamp:    l.Timestamp.UnixMilli(),
	}
	if l.Accuracy != nil {
		resp.Accuracy = *l.Accuracy
	}
	return resp
}

func (r *LocationRequest) toFix(now time.Time) domainDevice.Fix {
	fix := domainDevice.Fix{
		Latitude:     *r.Latitude,
		Longitude:    *r.Longitude,
		Accuracy:     r.Accuracy,
		Address:      r.Address,
		BatteryLevel: r.BatteryLevel,
		Speed:        r.Speed,
		Timestamp:    now,
	}
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		fix.Timestamp = r.Timestamp.UTC()
	}
	return fix
}

func jsonOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
