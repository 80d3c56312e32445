package postgres

import (
	"context"
	"errors"
	domainAlert "educafric-tracking/internal/domain/alert"
	"educafric-tracking/internal/infrastructure/database/postgres/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

// AlertRepository implements domainAlert.Repository
type AlertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) domainAlert.Repository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, a *domainAlert.Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	if err := r.db.DB.WithContext(ctx).Create(toAlertModel(a)).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, alertID string) (*domainAlert.Alert, error) {
	var dbModel models.LocationAlertModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", alertID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainAlert.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return toAlertEntity(&dbModel), nil
}

func (r *AlertRepository) ListByDevice(ctx context.Context, deviceID string, filter *domainAlert.Filter) ([]*domainAlert.Alert, error) {
	if filter == nil {
		filter = &domainAlert.Filter{}
	}

	db := r.db.DB.WithContext(ctx).Where("device_id = ?", deviceID)
	if filter.UnreadOnly {
		db = db.Where("is_read = ?", false)
	}
	if filter.MinSeverity.Rank() > 0 {
		db = db.Where("severity IN ?", severityStrings(domainAlert.AtLeast(filter.MinSeverity)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}

	var dbModels []models.LocationAlertModel
	err := db.Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]*domainAlert.Alert, len(dbModels))
	for i := range dbModels {
		alerts[i] = toAlertEntity(&dbModels[i])
	}

	return alerts, nil
}

func (r *AlertRepository) MarkRead(ctx context.Context, alertID string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.LocationAlertModel{}).
		Where("id = ?", alertID).
		Update("is_read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark alert read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// RowsAffected is 0 for an already-read alert on some drivers.
		if _, err := r.GetByID(ctx, alertID); err != nil {
			return err
		}
	}

	return nil
}

func severityStrings(in []domainAlert.Severity) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func toAlertModel(a *domainAlert.Alert) *models.LocationAlertModel {
	return &models.LocationAlertModel{
		ID:        a.ID,
		DeviceID:  a.DeviceID,
		Type:      string(a.Type),
		Message:   a.Message,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Severity:  string(a.Severity),
		IsRead:    a.IsRead,
		Timestamp: a.Timestamp,
	}
}

func toAlertEntity(m *models.LocationAlertModel) *domainAlert.Alert {
	return &domainAlert.Alert{
		ID:        m.ID,
		DeviceID:  m.DeviceID,
		Type:      domainAlert.Type(m.Type),
		Message:   m.Message,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Severity:  domainAlert.Severity(m.Severity),
		IsRead:    m.IsRead,
		Timestamp: m.Timestamp,
	}
}
