package postgres

import (
	"context"
	"encoding/json"
	"errors"
	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/infrastructure/database/postgres/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeviceRepository implements domainDevice.Repository
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) domainDevice.Repository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	dbModel := toDeviceModel(d)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, deviceID string) (*domainDevice.Device, error) {
	var dbModel models.TrackedDeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", deviceID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) ListByStudents(ctx context.Context, studentIDs []int64) ([]*domainDevice.Device, error) {
	if len(studentIDs) == 0 {
		return []*domainDevice.Device{}, nil
	}

	var dbModels []models.TrackedDeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("student_id IN ?", studentIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*domainDevice.Device, len(dbModels))
	for i := range dbModels {
		devices[i] = toDeviceEntity(&dbModels[i])
	}

	return devices, nil
}

func (r *DeviceRepository) RecordFix(ctx context.Context, entry *domainDevice.Location) (*domainDevice.FixResult, error) {
	result := &domainDevice.FixResult{Entry: entry}

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.TrackedDeviceModel
		err := tx.Where("id = ?", entry.DeviceID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainDevice.ErrDeviceNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load device: %w", err)
		}
		result.Previous = toDeviceEntity(&current)

		history := toLocationModel(entry)
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to append location history: %w", err)
		}
		entry.ID = history.ID

		updates := map[string]interface{}{
			"current_latitude":  entry.Latitude,
			"current_longitude": entry.Longitude,
			"location_accuracy": entry.Accuracy,
			"current_address":   entry.Address,
			"last_seen":         entry.Timestamp,
			"updated_at":        time.Now().UTC(),
		}
		if entry.BatteryLevel != nil {
			updates["battery_level"] = *entry.BatteryLevel
		}

		// Out-of-order fixes still land in the history but never move the cache backwards.
		res := tx.Model(&models.TrackedDeviceModel{}).
			Where("id = ? AND (last_seen IS NULL OR last_seen < ?)", entry.DeviceID, entry.Timestamp).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update current location: %w", res.Error)
		}
		result.CacheUpdated = res.RowsAffected > 0

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *DeviceRepository) UpdateSettings(ctx context.Context, deviceID string, settings json.RawMessage) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.TrackedDeviceModel{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"tracking_settings": datatypes.JSON(settings),
			"updated_at":        time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update tracking settings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

// Helper functions to convert between domain entities and database models

func toDeviceModel(d *domainDevice.Device) *models.TrackedDeviceModel {
	return &models.TrackedDeviceModel{
		ID:                d.ID,
		StudentID:         d.StudentID,
		DeviceType:        d.DeviceType,
		DeviceName:        d.DeviceName,
		MACAddress:        d.MACAddress,
		IMEI:              d.IMEI,
		BatteryLevel:      d.BatteryLevel,
		IsActive:          d.IsActive,
		LastSeen:          d.LastSeen,
		CurrentLatitude:   d.CurrentLatitude,
		CurrentLongitude:  d.CurrentLongitude,
		LocationAccuracy:  d.LocationAccuracy,
		CurrentAddress:    d.CurrentAddress,
		TrackingSettings:  datatypes.JSON(d.TrackingSettings),
		EmergencyContacts: datatypes.JSON(d.EmergencyContacts),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func toDeviceEntity(m *models.TrackedDeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		ID:                m.ID,
		StudentID:         m.StudentID,
		DeviceType:        m.DeviceType,
		DeviceName:        m.DeviceName,
		MACAddress:        m.MACAddress,
		IMEI:              m.IMEI,
		BatteryLevel:      m.BatteryLevel,
		IsActive:          m.IsActive,
		LastSeen:          m.LastSeen,
		CurrentLatitude:   m.CurrentLatitude,
		CurrentLongitude:  m.CurrentLongitude,
		LocationAccuracy:  m.LocationAccuracy,
		CurrentAddress:    m.CurrentAddress,
		TrackingSettings:  json.RawMessage(m.TrackingSettings),
		EmergencyContacts: json.RawMessage(m.EmergencyContacts),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
