package postgres

import (
	"context"
	"errors"
	domainZone "educafric-tracking/internal/domain/zone"
	"educafric-tracking/internal/infrastructure/database/postgres/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const defaultStatusHistoryLimit = 100

// ZoneStatusRepository keeps one row per membership change of a device and zone.
type ZoneStatusRepository struct {
	db *DB
}

func NewZoneStatusRepository(db *DB) domainZone.StatusRepository {
	return &ZoneStatusRepository{db: db}
}

func (r *ZoneStatusRepository) Latest(ctx context.Context, deviceID, zoneID string) (*domainZone.Status, error) {
	return latestStatus(r.db.DB.WithContext(ctx), deviceID, zoneID)
}

func (r *ZoneStatusRepository) Transition(ctx context.Context, deviceID, zoneID string, isInZone bool, at time.Time) (*domainZone.Transition, error) {
	var result *domainZone.Transition

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		previous, err := latestStatus(tx, deviceID, zoneID)
		if err != nil {
			return err
		}

		if previous != nil && previous.IsInZone == isInZone {
			result = &domainZone.Transition{Previous: previous, Current: previous}
			return nil
		}

		current := domainZone.NewStatus(deviceID, zoneID, isInZone, at.UTC())
		dbModel := toStatusModel(current)
		if err := tx.Create(dbModel).Error; err != nil {
			return fmt.Errorf("failed to record zone status: %w", err)
		}
		current.ID = dbModel.ID

		result = &domainZone.Transition{Previous: previous, Current: current, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ZoneStatusRepository) History(ctx context.Context, deviceID, zoneID string, limit int) ([]*domainZone.Status, error) {
	if limit <= 0 {
		limit = defaultStatusHistoryLimit
	}

	var dbModels []models.ZoneStatusModel
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ? AND zone_id = ?", deviceID, zoneID).
		Order("id DESC").
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list zone status history: %w", err)
	}

	statuses := make([]*domainZone.Status, len(dbModels))
	for i := range dbModels {
		statuses[i] = toStatusEntity(&dbModels[i])
	}

	return statuses, nil
}

// latestStatus picks the last inserted row. The table is append-only, so id
// order is insertion order even when the clock steps back.
func latestStatus(db *gorm.DB, deviceID, zoneID string) (*domainZone.Status, error) {
	var dbModel models.ZoneStatusModel
	err := db.Where("device_id = ? AND zone_id = ?", deviceID, zoneID).
		Order("id DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get zone status: %w", err)
	}

	return toStatusEntity(&dbModel), nil
}

func toStatusModel(s *domainZone.Status) *models.ZoneStatusModel {
	return &models.ZoneStatusModel{
		ID:        s.ID,
		DeviceID:  s.DeviceID,
		ZoneID:    s.ZoneID,
		IsInZone:  s.IsInZone,
		EnteredAt: s.EnteredAt,
		ExitedAt:  s.ExitedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toStatusEntity(m *models.ZoneStatusModel) *domainZone.Status {
	return &domainZone.Status{
		ID:        m.ID,
		DeviceID:  m.DeviceID,
		ZoneID:    m.ZoneID,
		IsInZone:  m.IsInZone,
		EnteredAt: m.EnteredAt,
		ExitedAt:  m.ExitedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
