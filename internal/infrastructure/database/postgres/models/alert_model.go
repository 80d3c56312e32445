package models

import "time"

// LocationAlertModel represents the database model for location alerts.
type LocationAlertModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	DeviceID  string    `gorm:"type:varchar(36);not null;index:idx_location_alerts_device_time,priority:1"`
	Type      string    `gorm:"type:varchar(50);not null"`
	Message   string    `gorm:"type:text;not null"`
	Latitude  *float64
	Longitude *float64
	Severity  string    `gorm:"type:varchar(20);not null"`
	IsRead    bool      `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index:idx_location_alerts_device_time,priority:2"`
}

func (LocationAlertModel) TableName() string {
	return "location_alerts"
}

// All lists every model managed by this service, in migration order.
func All() []interface{} {
	return []interface{}{
		&TrackedDeviceModel{},
		&LocationHistoryModel{},
		&SafeZoneModel{},
		&ZoneStatusModel{},
		&LocationAlertModel{},
		&ParentStudentRelationModel{},
	}
}
