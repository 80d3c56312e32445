package models

import (
	"time"

	"gorm.io/datatypes"
)

// TrackedDeviceModel represents the database model for tracked devices.
type TrackedDeviceModel struct {
	ID                string         `gorm:"type:varchar(36);primaryKey"`
	StudentID         int64          `gorm:"not null;index"`
	DeviceType        string         `gorm:"type:varchar(50);not null"`
	DeviceName        string         `gorm:"type:varchar(255);not null"`
	MACAddress        *string        `gorm:"column:mac_address;type:varchar(64)"`
	IMEI              *string        `gorm:"column:imei;type:varchar(32)"`
	BatteryLevel      *int           `gorm:"type:integer"`
	IsActive          bool           `gorm:"not null"`
	LastSeen          *time.Time     `gorm:"column:last_seen"`
	CurrentLatitude   *float64       `gorm:"column:current_latitude"`
	CurrentLongitude  *float64       `gorm:"column:current_longitude"`
	LocationAccuracy  *float64       `gorm:"column:location_accuracy"`
	CurrentAddress    *string        `gorm:"column:current_address;type:text"`
	TrackingSettings  datatypes.JSON `gorm:"column:tracking_settings"`
	EmergencyContacts datatypes.JSON `gorm:"column:emergency_contacts"`
	CreatedAt         time.Time      `gorm:"not null"`
	UpdatedAt         time.Time      `gorm:"not null"`
}

func (TrackedDeviceModel) TableName() string {
	return "tracked_devices"
}

// LocationHistoryModel is one append-only row of device_location_history.
type LocationHistoryModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	DeviceID     string    `gorm:"type:varchar(36);not null;index:idx_location_history_device_time,priority:1"`
	Latitude     float64   `gorm:"not null"`
	Longitude    float64   `gorm:"not null"`
	Accuracy     *float64
	Address      *string   `gorm:"type:text"`
	BatteryLevel *int      `gorm:"type:integer"`
	Speed        *float64
	Timestamp    time.Time `gorm:"not null;index:idx_location_history_device_time,priority:2"`
}

func (LocationHistoryModel) TableName() string {
	return "device_location_history"
}

// ParentStudentRelationModel links a parent account to a student it may monitor.
// The table is owned by the identity service; it is migrated here so the
// service can run standalone.
type ParentStudentRelationModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ParentID  int64 `gorm:"not null;index"`
	StudentID int64 `gorm:"not null"`
}

func (ParentStudentRelationModel) TableName() string {
	return "parent_student_relations"
}
