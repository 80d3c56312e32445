package alert

import (
	"context"
	"errors"
	"time"

	domainAlert "educafric-tracking/internal/domain/alert"
	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/notify"
	appErrors "educafric-tracking/pkg/errors"
	"educafric-tracking/pkg/utils"

	"go.uber.org/zap"
)

const defaultEmergencyMessage = "Emergency alert triggered"

// Service implements alert log use cases
type Service struct {
	alertRepo  domainAlert.Repository
	deviceRepo domainDevice.Repository
	notifier   notify.Notifier
	now        func() time.Time
}

func NewService(alertRepo domainAlert.Repository, deviceRepo domainDevice.Repository, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger.Named("notify"))
	}
	return &Service{
		alertRepo:  alertRepo,
		deviceRepo: deviceRepo,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateAlert(ctx context.Context, req *CreateAlertRequest) (*AlertResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid alert", err)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, appErrors.NewValidationError("Invalid alert location", appErrors.ErrInvalidLocation)
	}

	if _, err := s.deviceRepo.GetByID(ctx, req.DeviceID); err != nil {
		return nil, err
	}

	a := &domainAlert.Alert{
		DeviceID:  req.DeviceID,
		Type:      domainAlert.ParseType(req.Type),
		Message:   utils.SanitizeText(req.Message),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Severity:  domainAlert.ParseSeverity(req.Severity),
		IsRead:    utils.BoolValue(req.IsRead, false),
		Timestamp: s.now(),
	}
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		a.Timestamp = req.Timestamp.UTC()
	}

	if err := s.alertRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	logger.Info("Alert recorded",
		zap.String("alert_id", a.ID),
		zap.String("device_id", a.DeviceID),
		zap.String("type", string(a.Type.Bucket())),
		zap.String("severity", string(a.Severity)),
		zap.String("event", "alert_created"),
	)

	return ToAlertResponse(a), nil
}

func (s *Service) ListAlerts(ctx context.Context, deviceID string, req *ListAlertsRequest) ([]*AlertResponse, error) {
	if req == nil {
		req = &ListAlertsRequest{}
	}

	alerts, err := s.alertRepo.ListByDevice(ctx, deviceID, &domainAlert.Filter{
		Limit:       req.Limit,
		UnreadOnly:  req.UnreadOnly,
		MinSeverity: domainAlert.ParseSeverity(req.MinSeverity),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*AlertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = ToAlertResponse(a)
	}
	return out, nil
}

// RaiseEmergency stores a critical alert, then dispatches it. The record is
// never rolled back when dispatch fails.
func (s *Service) RaiseEmergency(ctx context.Context, req *EmergencyRequest) (*EmergencyResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid emergency alert", err)
	}

	message := utils.SanitizeText(req.Message)
	if message == "" {
		message = defaultEmergencyMessage
	}

	a := &domainAlert.Alert{
		DeviceID:  req.DeviceID,
		Type:      domainAlert.TypeEmergency,
		Message:   message,
		Severity:  domainAlert.SeverityCritical,
		IsRead:    false,
		Timestamp: s.now(),
	}
	if req.Location != nil {
		a.Latitude = req.Location.Latitude
		a.Longitude = req.Location.Longitude
	}

	if err := s.alertRepo.Create(ctx, a); err != nil {
		logger.Error("Failed to record emergency alert",
			zap.String("device_id", req.DeviceID),
			zap.String("contact_id", string(req.ContactID)),
			zap.String("message", message),
			zap.Error(err),
		)
		return nil, err
	}

	emergency := &notify.Emergency{
		AlertID:   a.ID,
		DeviceID:  a.DeviceID,
		ContactID: string(req.ContactID),
		Message:   a.Message,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Timestamp: a.Timestamp,
	}

	d, err := s.deviceRepo.GetByID(ctx, req.DeviceID)
	switch {
	case err == nil:
		emergency.StudentID = &d.StudentID
		emergency.Contacts = d.EmergencyContacts
	case errors.Is(err, domainDevice.ErrDeviceNotFound):
		logger.Warn("Emergency alert for unregistered device", zap.String("device_id", req.DeviceID))
	default:
		logger.Error("Failed to load device for emergency dispatch",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
	}

	resp := &EmergencyResponse{Success: true, AlertID: a.ID}
	if err := s.notifier.NotifyEmergency(context.WithoutCancel(ctx), emergency); err != nil {
		logger.Error("Failed to dispatch emergency alert",
			zap.String("alert_id", a.ID),
			zap.String("device_id", a.DeviceID),
			zap.String("contact_id", emergency.ContactID),
			zap.Error(err),
		)
		return resp, nil
	}
	resp.Dispatched = true

	logger.Info("Emergency alert raised",
		zap.String("alert_id", a.ID),
		zap.String("device_id", a.DeviceID),
		zap.String("event", "emergency_alert"),
	)
	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, alertID string) (*AlertResponse, error) {
	if err := s.alertRepo.MarkRead(ctx, alertID); err != nil {
		return nil, err
	}

	a, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	return ToAlertResponse(a), nil
}
