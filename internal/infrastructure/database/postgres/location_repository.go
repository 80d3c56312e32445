package postgres

import (
	"context"
	"errors"
	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/infrastructure/database/postgres/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const maxHistoryPage = 1000

// LocationRepository reads device_location_history. Writes go through
// DeviceRepository.RecordFix so the cache and history commit together.
type LocationRepository struct {
	db *DB
}

func NewLocationRepository(db *DB) domainDevice.LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Last(ctx context.Context, deviceID string) (*domainDevice.Location, error) {
	var dbModel models.LocationHistoryModel
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		Order("id DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last location: %w", err)
	}

	return toLocationEntity(&dbModel), nil
}

func (r *LocationRepository) History(ctx context.Context, deviceID string, filter *domainDevice.HistoryFilter) ([]*domainDevice.Location, error) {
	if filter == nil {
		filter = &domainDevice.HistoryFilter{}
	}

	db := r.db.DB.WithContext(ctx).Where("device_id = ?", deviceID)
	if !filter.From.IsZero() {
		db = db.Where("timestamp >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		db = db.Where("timestamp < ?", filter.To.UTC())
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxHistoryPage {
		limit = maxHistoryPage
	}

	var dbModels []models.LocationHistoryModel
	err := db.Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list location history: %w", err)
	}

	entries := make([]*domainDevice.Location, len(dbModels))
	for i := range dbModels {
		entries[i] = toLocationEntity(&dbModels[i])
	}

	return entries, nil
}

func toLocationModel(l *domainDevice.Location) *models.LocationHistoryModel {
	return &models.LocationHistoryModel{
		ID:           l.ID,
		DeviceID:     l.DeviceID,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		Accuracy:     l.Accuracy,
		Address:      l.Address,
		BatteryLevel: l.BatteryLevel,
		Speed:        l.Speed,
		Timestamp:    l.Timestamp,
	}
}

func toLocationEntity(m *models.LocationHistoryModel) *domainDevice.Location {
	return &domainDevice.Location{
		ID:           m.ID,
		DeviceID:     m.DeviceID,
		Latitude:     m.Latitude,
		Longitude:    m.Longitude,
		Accuracy:     m.Accuracy,
		Address:      m.Address,
		BatteryLevel: m.BatteryLevel,
		Speed:        m.Speed,
		Timestamp:    m.Timestamp,
	}
}

// keepNewestEntry matches rows that have a newer entry for the same device,
// in the same timestamp then id order Last uses.
const keepNewestEntry = `EXISTS (
	SELECT 1 FROM device_location_history newer
	WHERE newer.device_id = device_location_history.device_id
	AND (newer.timestamp > device_location_history.timestamp
		OR (newer.timestamp = device_location_history.timestamp AND newer.id > device_location_history.id))
)`

// DeleteBefore never removes a device's newest entry, so Last keeps agreeing
// with the cached current location of quiet devices.
func (r *LocationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("timestamp < ?", cutoff.UTC()).
		Where(keepNewestEntry).
		Delete(&models.LocationHistoryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune location history: %w", result.Error)
	}

	return result.RowsAffected, nil
}
