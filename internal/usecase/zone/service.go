package zone

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainAlert "educafric-tracking/internal/domain/alert"
	domainDevice "educafric-tracking/internal/domain/device"
	domainZone "educafric-tracking/internal/domain/zone"
	"educafric-tracking/internal/logger"
	appErrors "educafric-tracking/pkg/errors"
	"educafric-tracking/pkg/utils"

	"go.uber.org/zap"
)

const defaultHistoryLimit = 100

// Service implements safe zone and zone status use cases
type Service struct {
	zoneRepo   domainZone.Repository
	statusRepo domainZone.StatusRepository
	deviceRepo domainDevice.Repository
	alertRepo  domainAlert.Repository
	locks      *keyedMutex
	now        func() time.Time
}

func NewService(
	zoneRepo domainZone.Repository,
	statusRepo domainZone.StatusRepository,
	deviceRepo domainDevice.Repository,
	alertRepo domainAlert.Repository,
) *Service {
	return &Service{
		zoneRepo:   zoneRepo,
		statusRepo: statusRepo,
		deviceRepo: deviceRepo,
		alertRepo:  alertRepo,
		locks:      newKeyedMutex(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateZone(ctx context.Context, deviceID string, req *CreateZoneRequest) (*SafeZoneResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid safe zone", err)
	}
	if err := validateTimeRestrictions(req.TimeRestrictions); err != nil {
		return nil, err
	}

	if _, err := s.deviceRepo.GetByID(ctx, deviceID); err != nil {
		return nil, err
	}

	z := &domainZone.SafeZone{
		DeviceID:          deviceID,
		Name:              utils.SanitizeText(req.Name),
		Type:              domainZone.ParseType(req.Type),
		Latitude:          *req.Latitude,
		Longitude:         *req.Longitude,
		Radius:            *req.Radius,
		IsActive:          utils.BoolValue(req.IsActive, true),
		EntryNotification: utils.BoolValue(req.EntryNotification, true),
		ExitNotification:  utils.BoolValue(req.ExitNotification, true),
		TimeRestrictions:  req.TimeRestrictions,
	}

	if err := s.zoneRepo.Create(ctx, z); err != nil {
		return nil, err
	}

	logger.Info("Safe zone created",
		zap.String("zone_id", z.ID),
		zap.String("device_id", deviceID),
		zap.String("type", string(z.Type.Bucket())),
		zap.String("event", "safe_zone_created"),
	)

	resp := ToSafeZoneResponse(z)
	return &resp, nil
}

// GetStatus reports the latest membership, false when never reported.
func (s *Service) GetStatus(ctx context.Context, deviceID, zoneID string) (*StatusResponse, error) {
	latest, err := s.statusRepo.Latest(ctx, deviceID, zoneID)
	if err != nil {
		return nil, err
	}

	return &StatusResponse{IsInZone: latest != nil && latest.IsInZone}, nil
}

// SetStatus records a membership report. Repeated identical reports write no row.
func (s *Service) SetStatus(ctx context.Context, deviceID, zoneID string, req *UpdateStatusRequest) (*TransitionResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("isInZone is required", err)
	}

	at := s.now()
	unlock := s.locks.Lock(deviceID + "\x00" + zoneID)
	transition, err := s.statusRepo.Transition(ctx, deviceID, zoneID, *req.IsInZone, at)
	unlock()
	if err != nil {
		return nil, err
	}

	if transition.Changed {
		logger.Info("Zone status changed",
			zap.String("device_id", deviceID),
			zap.String("zone_id", zoneID),
			zap.Bool("is_in_zone", transition.Current.IsInZone),
			zap.String("event", "zone_status_changed"),
		)
	}
	s.raiseZoneAlerts(ctx, transition, at)

	return &TransitionResponse{
		Success:  true,
		IsInZone: transition.Current.IsInZone,
		Changed:  transition.Changed,
	}, nil
}

func (s *Service) StatusHistory(ctx context.Context, deviceID, zoneID string, limit int) ([]StatusEntryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	statuses, err := s.statusRepo.History(ctx, deviceID, zoneID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]StatusEntryResponse, len(statuses))
	for i, st := range statuses {
		out[i] = ToStatusEntryResponse(st)
	}
	return out, nil
}

// raiseZoneAlerts records zone_enter/zone_exit alerts for zones that asked
// for them, and unauthorized_time when an inside report falls outside the
// zone's schedule. Inactive zones raise nothing. Failures are logged; the
// status row is already committed.
func (s *Service) raiseZoneAlerts(ctx context.Context, t *domainZone.Transition, at time.Time) {
	entered, exited, inside := t.Entered(), t.Exited(), t.Current.IsInZone
	if !entered && !exited && !inside {
		return
	}

	z, err := s.zoneRepo.GetByID(ctx, t.Current.ZoneID)
	if err != nil {
		if !errors.Is(err, domainZone.ErrZoneNotFound) {
			logger.Error("Failed to load zone for transition alert",
				zap.String("zone_id", t.Current.ZoneID),
				zap.Error(err),
			)
		}
		return
	}
	if !z.IsActive {
		return
	}

	var alerts []*domainAlert.Alert
	newAlert := func(typ domainAlert.Type, severity domainAlert.Severity, message string) {
		alerts = append(alerts, &domainAlert.Alert{
			DeviceID:  t.Current.DeviceID,
			Type:      typ,
			Severity:  severity,
			Message:   message,
			Timestamp: at,
		})
	}

	switch {
	case entered && z.EntryNotification:
		newAlert(domainAlert.TypeZoneEnter, domainAlert.SeverityInfo, fmt.Sprintf("Entered safe zone %s", z.Name))
	case exited && z.ExitNotification:
		newAlert(domainAlert.TypeZoneExit, domainAlert.SeverityWarning, fmt.Sprintf("Left safe zone %s", z.Name))
	}

	if inside {
		window, err := domainZone.ParseTimeWindow(z.TimeRestrictions)
		if err != nil {
			logger.Warn("Ignoring unreadable zone time restrictions",
				zap.String("zone_id", z.ID),
				zap.Error(err),
			)
		} else if !window.Allows(at) {
			newAlert(domainAlert.TypeUnauthorizedTime, domainAlert.SeverityCritical,
				fmt.Sprintf("Present in safe zone %s outside allowed hours", z.Name))
		}
	}

	if len(alerts) == 0 {
		return
	}

	d, err := s.deviceRepo.GetByID(ctx, t.Current.DeviceID)
	hasFix := err == nil && d.HasFix()

	for _, a := range alerts {
		if hasFix {
			a.Latitude = d.CurrentLatitude
			a.Longitude = d.CurrentLongitude
		}
		if err := s.alertRepo.Create(ctx, a); err != nil {
			logger.Error("Failed to record zone alert",
				zap.String("device_id", a.DeviceID),
				zap.String("zone_id", z.ID),
				zap.String("type", string(a.Type)),
				zap.Error(err),
			)
		}
	}
}
