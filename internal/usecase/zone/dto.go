package zone

import (
	"encoding/json"
	"time"

	domainZone "educafric-tracking/internal/domain/zone"
)

type CreateZoneRequest struct {
	Name              string          `json:"name" validate:"trimmed_required,max=255"`
	Type              string          `json:"type" validate:"trimmed_required,max=50"`
	Latitude          *float64        `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude         *float64        `json:"longitude" validate:"required,min=-180,max=180"`
	Radius            *int            `json:"radius" validate:"required,gt=0"`
	IsActive          *bool           `json:"isActive"`
	EntryNotification *bool           `json:"entryNotification"`
	ExitNotification  *bool           `json:"exitNotification"`
	TimeRestrictions  json.RawMessage `json:"timeRestrictions"`
}

type UpdateStatusRequest struct {
	IsInZone *bool `json:"isInZone" validate:"required"`
}

type SafeZoneResponse struct {
	ID                string          `json:"id"`
	DeviceID          string          `json:"deviceId"`
	Name              string          `json:"name"`
	Type              domainZone.Type `json:"type"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	Radius            int             `json:"radius"`
	IsActive          bool            `json:"isActive"`
	EntryNotification bool            `json:"entryNotification"`
	ExitNotification  bool            `json:"exitNotification"`
	TimeRestrictions  json.RawMessage `json:"timeRestrictions"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type StatusResponse struct {
	IsInZone bool `json:"isInZone"`
}

type TransitionResponse struct {
	Success  bool `json:"success"`
	IsInZone bool `json:"isInZone"`
	Changed  bool `json:"changed"`
}

type StatusEntryResponse struct {
	ID        int64      `json:"id"`
	DeviceID  string     `json:"deviceId"`
	ZoneID    string     `json:"zoneId"`
	IsInZone  bool       `json:"isInZone"`
	EnteredAt *time.Time `json:"enteredAt"`
	ExitedAt  *time.Time `json:"exitedAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func ToSafeZoneResponse(z *domainZone.SafeZone) SafeZoneResponse {
	restrictions := z.TimeRestrictions
	if len(restrictions) == 0 {
		restrictions = json.RawMessage("null")
	}
	return SafeZoneResponse{
		ID:                z.ID,
		DeviceID:          z.DeviceID,
		Name:              z.Name,
		Type:              z.Type,
		Latitude:          z.Latitude,
		Longitude:         z.Longitude,
		Radius:            z.Radius,
		IsActive:          z.IsActive,
		EntryNotification: z.EntryNotification,
		ExitNotification:  z.ExitNotification,
		TimeRestrictions:  restrictions,
		CreatedAt:         z.CreatedAt,
	}
}

func ToStatusEntryResponse(s *domainZone.Status) StatusEntryResponse {
	return StatusEntryResponse{
		ID:        s.ID,
		DeviceID:  s.DeviceID,
		ZoneID:    s.ZoneID,
		IsInZone:  s.IsInZone,
		EnteredAt: s.EnteredAt,
		ExitedAt:  s.ExitedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
