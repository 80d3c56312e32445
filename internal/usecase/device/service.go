package device

import (
	"context"
	"encoding/json"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"
	domainZone "educafric-tracking/internal/domain/zone"
	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/usecase/zone"
	appErrors "educafric-tracking/pkg/errors"
	"educafric-tracking/pkg/utils"

	"go.uber.org/zap"
)

// Service implements device registry and location use cases
type Service struct {
	deviceRepo   domainDevice.Repository
	locationRepo domainDevice.LocationRepository
	zoneRepo     domainZone.Repository
	students     domainDevice.StudentResolver
	listeners    []domainDevice.FixListener
	now          func() time.Time
}

// NewService creates a new device service
func NewService(
	deviceRepo domainDevice.Repository,
	locationRepo domainDevice.LocationRepository,
	zoneRepo domainZone.Repository,
	students domainDevice.StudentResolver,
) *Service {
	return &Service{
		deviceRepo:   deviceRepo,
		locationRepo: locationRepo,
		zoneRepo:     zoneRepo,
		students:     students,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// AddListener registers l to run after every committed fix.
func (s *Service) AddListener(l domainDevice.FixListener) {
	s.listeners = append(s.listeners, l)
}

func (s *Service) Register(ctx context.Context, req *RegisterDeviceRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid device", err)
	}
	if len(req.TrackingSettings) > 0 && string(req.TrackingSettings) != "null" {
		if err := ValidateSettings(req.TrackingSettings); err != nil {
			return nil, err
		}
	}
	if err := validateOptionalJSON(req.EmergencyContacts, "emergency contacts"); err != nil {
		return nil, err
	}

	d := &domainDevice.Device{
		StudentID:         *req.StudentID,
		DeviceType:        utils.SanitizeText(req.DeviceType),
		DeviceName:        utils.SanitizeText(req.DeviceName),
		MACAddress:        utils.SanitizeOptional(req.MACAddress),
		IMEI:              utils.SanitizeOptional(req.IMEI),
		BatteryLevel:      req.BatteryLevel,
		IsActive:          utils.BoolValue(req.IsActive, true),
		TrackingSettings:  req.TrackingSettings,
		EmergencyContacts: req.EmergencyContacts,
	}

	if err := s.deviceRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	logger.Info("Device registered",
		zap.String("device_id", d.ID),
		zap.Int64("student_id", d.StudentID),
		zap.String("device_type", d.DeviceType),
		zap.String("event", "device_registered"),
	)

	return ToDeviceResponse(d, nil), nil
}

func (s *Service) GetByID(ctx context.Context, deviceID string) (*DeviceResponse, error) {
	d, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	zones, err := s.zoneRepo.ListByDevices(ctx, []string{d.ID})
	if err != nil {
		return nil, err
	}

	return ToDeviceResponse(d, zoneResponses(zones)), nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID int64) ([]*DeviceResponse, error) {
	return s.listByStudents(ctx, []int64{studentID})
}

// ListByParent lists devices of every student the parent may monitor.
func (s *Service) ListByParent(ctx context.Context, parentID int64) ([]*DeviceResponse, error) {
	studentIDs, err := s.students.StudentsForParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	return s.listByStudents(ctx, studentIDs)
}

// listByStudents loads devices and their zones with one query each and joins
// them in memory.
func (s *Service) listByStudents(ctx context.Context, studentIDs []int64) ([]*DeviceResponse, error) {
	devices, err := s.deviceRepo.ListByStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return []*DeviceResponse{}, nil
	}

	deviceIDs := make([]string, len(devices))
	for i, d := range devices {
		deviceIDs[i] = d.ID
	}

	zones, err := s.zoneRepo.ListByDevices(ctx, deviceIDs)
	if err != nil {
		return nil, err
	}

	byDevice := make(map[string][]zone.SafeZoneResponse, len(devices))
	for _, z := range zones {
		byDevice[z.DeviceID] = append(byDevice[z.DeviceID], zone.ToSafeZoneResponse(z))
	}

	out := make([]*DeviceResponse, len(devices))
	for i, d := range devices {
		out[i] = ToDeviceResponse(d, byDevice[d.ID])
	}
	return out, nil
}

func (s *Service) UpdateLocation(ctx context.Context, deviceID string, req *LocationRequest) (*UpdateLocationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid location", err)
	}

	result, err := s.RecordFix(ctx, deviceID, req.toFix(s.now()))
	if err != nil {
		return nil, err
	}

	return &UpdateLocationResponse{Success: true, Stale: !result.CacheUpdated}, nil
}

// RecordFix stores fix for the device and notifies listeners once committed.
// It serves both the HTTP API and MQTT ingestion.
func (s *Service) RecordFix(ctx context.Context, deviceID string, fix domainDevice.Fix) (*domainDevice.FixResult, error) {
	if fix.Timestamp.IsZero() {
		fix.Timestamp = s.now()
	}
	fix.Timestamp = fix.Timestamp.UTC()
	fix.Address = utils.SanitizeOptional(fix.Address)

	if err := ValidateFix(fix, s.now()); err != nil {
		return nil, err
	}

	result, err := s.deviceRepo.RecordFix(ctx, domainDevice.NewLocation(deviceID, fix))
	if err != nil {
		return nil, err
	}

	if !result.CacheUpdated {
		logger.Debug("Out-of-order fix kept in history only",
			zap.String("device_id", deviceID),
			zap.Time("fix_time", fix.Timestamp),
		)
	}

	// Listeners must not be cut short by the caller going away.
	listenerCtx := context.WithoutCancel(ctx)
	for _, l := range s.listeners {
		l.FixRecorded(listenerCtx, result)
	}

	return result, nil
}

func (s *Service) UpdateSettings(ctx context.Context, deviceID string, settings json.RawMessage) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}

	if err := s.deviceRepo.UpdateSettings(ctx, deviceID, settings); err != nil {
		return err
	}

	logger.Info("Tracking settings replaced",
		zap.String("device_id", deviceID),
		zap.String("event", "tracking_settings_updated"),
	)
	return nil
}

// GetLastLocation reads the newest history entry, bypassing the cached location.
func (s *Service) GetLastLocation(ctx context.Context, deviceID string) (*LocationResponse, error) {
	entry, err := s.locationRepo.Last(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return ToLocationResponse(entry), nil
}

func (s *Service) History(ctx context.Context, deviceID string, req *HistoryRequest) ([]*LocationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid history range", err)
	}
	if !req.From.IsZero() && !req.To.IsZero() && !req.From.Before(req.To) {
		return nil, appErrors.NewValidationError("from must be before to", appErrors.ErrInvalidInput)
	}

	if _, err := s.deviceRepo.GetByID(ctx, deviceID); err != nil {
		return nil, err
	}

	entries, err := s.locationRepo.History(ctx, deviceID, &domainDevice.HistoryFilter{
		From:  req.From,
		To:    req.To,
		Limit: req.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*LocationResponse, len(entries))
	for i, e := range entries {
		out[i] = ToLocationResponse(e)
	}
	return out, nil
}

func zoneResponses(zones []*domainZone.SafeZone) []zone.SafeZoneResponse {
	out := make([]zone.SafeZoneResponse, len(zones))
	for i, z := range zones {
		out[i] = zone.ToSafeZoneResponse(z)
	}
	return out
}
