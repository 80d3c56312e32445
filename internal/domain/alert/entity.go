package alert

import (
	"strings"
	"time"
)

// Severity is kept as a free-form string; known values carry an ordering.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// ParseSeverity normalizes raw. Blank input becomes SeverityInfo.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return SeverityInfo
	}
	return s
}

// Known reports whether s is a built-in severity.
func (s Severity) Known() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank orders severities. Unknown values rank with SeverityInfo.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast lists the known severities ranked at or above min.
func AtLeast(min Severity) []Severity {
	out := make([]Severity, 0, len(severityRank))
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityCritical} {
		if s.Rank() >= min.Rank() {
			out = append(out, s)
		}
	}
	return out
}

// Type is the alert category. Callers may send values outside the known set.
type Type string

const (
	TypeZoneEnter        Type = "zone_enter"
	TypeZoneExit         Type = "zone_exit"
	TypeEmergency        Type = "emergency"
	TypeLowBattery       Type = "low_battery"
	TypeSpeed            Type = "speed_alert"
	TypeUnauthorizedTime Type = "unauthorized_time"
	TypeCustom           Type = "custom"
)

var knownTypes = map[Type]struct{}{
	TypeZoneEnter:        {},
	TypeZoneExit:         {},
	TypeEmergency:        {},
	TypeLowBattery:       {},
	TypeSpeed:            {},
	TypeUnauthorizedTime: {},
}

func ParseType(raw string) Type {
	return Type(strings.ToLower(strings.TrimSpace(raw)))
}

func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Bucket maps unknown types to TypeCustom.
func (t Type) Bucket() Type {
	if t.Known() {
		return t
	}
	return TypeCustom
}

// Alert is a notable event tied to a device.
type Alert struct {
	ID        string
	DeviceID  string
	Type      Type
	Message   string
	Latitude  *float64
	Longitude *float64
	Severity  Severity
	IsRead    bool
	Timestamp time.Time
}

// Filter narrows a device alert listing.
type Filter struct {
	Limit       int
	UnreadOnly  bool
	MinSeverity Severity
}
