package postgres

import (
	"context"
	"encoding/json"
	"errors"
	domainZone "educafric-tracking/internal/domain/zone"
	"educafric-tracking/internal/infrastructure/database/postgres/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ZoneRepository implements domainZone.Repository
type ZoneRepository struct {
	db *DB
}

func NewZoneRepository(db *DB) domainZone.Repository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) Create(ctx context.Context, z *domainZone.SafeZone) error {
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	z.CreatedAt = time.Now().UTC()

	if err := r.db.DB.WithContext(ctx).Create(toZoneModel(z)).Error; err != nil {
		return fmt.Errorf("failed to create safe zone: %w", err)
	}

	return nil
}

func (r *ZoneRepository) GetByID(ctx context.Context, zoneID string) (*domainZone.SafeZone, error) {
	var dbModel models.SafeZoneModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", zoneID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainZone.ErrZoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get safe zone: %w", err)
	}

	return toZoneEntity(&dbModel), nil
}

func (r *ZoneRepository) ListByDevices(ctx context.Context, deviceIDs []string) ([]*domainZone.SafeZone, error) {
	if len(deviceIDs) == 0 {
		return []*domainZone.SafeZone{}, nil
	}

	var dbModels []models.SafeZoneModel
	err := r.db.DB.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list safe zones: %w", err)
	}

	zones := make([]*domainZone.SafeZone, len(dbModels))
	for i := range dbModels {
		zones[i] = toZoneEntity(&dbModels[i])
	}

	return zones, nil
}

func toZoneModel(z *domainZone.SafeZone) *models.SafeZoneModel {
	return &models.SafeZoneModel{
		ID:                z.ID,
		DeviceID:          z.DeviceID,
		Name:              z.Name,
		Latitude:          z.Latitude,
		Longitude:         z.Longitude,
		Radius:            z.Radius,
		Type:              string(z.Type),
		IsActive:          z.IsActive,
		EntryNotification: z.EntryNotification,
		ExitNotification:  z.ExitNotification,
		TimeRestrictions:  datatypes.JSON(z.TimeRestrictions),
		CreatedAt:         z.CreatedAt,
	}
}

func toZoneEntity(m *models.SafeZoneModel) *domainZone.SafeZone {
	return &domainZone.SafeZone{
		ID:                m.ID,
		DeviceID:          m.DeviceID,
		Name:              m.Name,
		Latitude:          m.Latitude,
		Longitude:         m.Longitude,
		Radius:            m.Radius,
		Type:              domainZone.Type(m.Type),
		IsActive:          m.IsActive,
		EntryNotification: m.EntryNotification,
		ExitNotification:  m.ExitNotification,
		TimeRestrictions:  json.RawMessage(m.TimeRestrictions),
		CreatedAt:         m.CreatedAt,
	}
}
