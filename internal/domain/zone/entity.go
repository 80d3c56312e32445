package zone

import (
	"encoding/json"
	"strings"
	"time"
)

// Type labels a safe zone. Callers may send values outside the known set.
type Type string

const (
	TypeHome     Type = "home"
	TypeSchool   Type = "school"
	TypeRelative Type = "relative"
	TypeActivity Type = "activity"
	TypeOther    Type = "other"
)

var knownTypes = map[Type]struct{}{
	TypeHome:     {},
	TypeSchool:   {},
	TypeRelative: {},
	TypeActivity: {},
}

// ParseType normalizes a caller-supplied zone type, keeping unknown values.
func ParseType(raw string) Type {
	return Type(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether t is one of the built-in zone types.
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Bucket maps unknown types to TypeOther.
func (t Type) Bucket() Type {
	if t.Known() {
		return t
	}
	return TypeOther
}

// SafeZone is a circular geofence attached to one device.
type SafeZone struct {
	ID                string
	DeviceID          string
	Name              string
	Type              Type
	Latitude          float64
	Longitude         float64
	Radius            int // meters
	IsActive          bool
	EntryNotification bool
	ExitNotification  bool
	TimeRestrictions  json.RawMessage
	CreatedAt         time.Time
}

// Status is one recorded membership state of a device relative to a zone.
type Status struct {
	ID        int64
	DeviceID  string
	ZoneID    string
	IsInZone  bool
	EnteredAt *time.Time
	ExitedAt  *time.Time
	UpdatedAt time.Time
}

// NewStatus builds the row written when membership changes to isInZone at at.
func NewStatus(deviceID, zoneID string, isInZone bool, at time.Time) *Status {
	s := &Status{
		DeviceID:  deviceID,
		ZoneID:    zoneID,
		IsInZone:  isInZone,
		UpdatedAt: at,
	}
	if isInZone {
		s.EnteredAt = &at
	} else {
		s.ExitedAt = &at
	}
	return s
}

// Transition is the outcome of reporting a membership value.
type Transition struct {
	Previous *Status // nil when the pair had never been reported
	Current  *Status
	Changed  bool
}

// Entered reports an OUTSIDE to INSIDE change.
func (t *Transition) Entered() bool {
	return t.Changed && t.Current.IsInZone
}

// Exited reports an INSIDE to OUTSIDE change. A first report of false is not an exit.
func (t *Transition) Exited() bool {
	return t.Changed && !t.Current.IsInZone && t.Previous != nil && t.Previous.IsInZone
}
