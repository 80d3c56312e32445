package models

import (
	"time"

	"gorm.io/datatypes"
)

// SafeZoneModel represents the database model for safe zones.
type SafeZoneModel struct {
	ID                string         `gorm:"type:varchar(36);primaryKey"`
	DeviceID          string         `gorm:"type:varchar(36);not null;index"`
	Name              string         `gorm:"type:varchar(255);not null"`
	Latitude          float64        `gorm:"not null"`
	Longitude         float64        `gorm:"not null"`
	Radius            int            `gorm:"not null"`
	Type              string         `gorm:"type:varchar(50);not null"`
	IsActive          bool           `gorm:"not null"`
	EntryNotification bool           `gorm:"not null"`
	ExitNotification  bool           `gorm:"not null"`
	TimeRestrictions  datatypes.JSON `gorm:"column:time_restrictions"`
	CreatedAt         time.Time      `gorm:"not null"`
}

func (SafeZoneModel) TableName() string {
	return "safe_zones"
}

// ZoneStatusModel is one membership transition for a device and zone.
type ZoneStatusModel struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	DeviceID  string     `gorm:"type:varchar(36);not null;index:idx_zone_status_pair,priority:1"`
	ZoneID    string     `gorm:"type:varchar(36);not null;index:idx_zone_status_pair,priority:2"`
	IsInZone  bool       `gorm:"not null"`
	EnteredAt *time.Time
	ExitedAt  *time.Time
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime:false"`
}

func (ZoneStatusModel) TableName() string {
	return "zone_status"
}
