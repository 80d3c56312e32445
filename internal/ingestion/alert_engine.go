package ingestion

import (
	"context"
	"fmt"

	domainAlert "educafric-tracking/internal/domain/alert"
	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/logger"

	"go.uber.org/zap"
)

// Thresholds configure the fix monitor. Zero disables a check.
type Thresholds struct {
	LowBattery    int
	SpeedLimitKmh float64
}

// AlertEngine checks committed fixes against thresholds and records alerts.
type AlertEngine struct {
	alerts     domainAlert.Repository
	thresholds Thresholds
	metrics    *MetricsTracker
	log        *zap.Logger
}

func NewAlertEngine(alerts domainAlert.Repository, thresholds Thresholds, metrics *MetricsTracker) *AlertEngine {
	if metrics == nil {
		metrics = NewMetricsTracker()
	}
	return &AlertEngine{
		alerts:     alerts,
		thresholds: thresholds,
		metrics:    metrics,
		log:        logger.Named("monitor"),
	}
}

var _ domainDevice.FixListener = (*AlertEngine)(nil)

// Check returns the alerts a fix should raise.
func (e *AlertEngine) Check(result *domainDevice.FixResult) []*domainAlert.Alert {
	if result == nil || result.Entry == nil {
		return nil
	}
	entry := result.Entry
	alerts := []*domainAlert.Alert{}

	// Only a fix that became current can move the battery level.
	if e.thresholds.LowBattery > 0 && result.CacheUpdated && entry.BatteryLevel != nil &&
		*entry.BatteryLevel < e.thresholds.LowBattery && !wasLow(result.Previous, e.thresholds.LowBattery) {
		alerts = append(alerts, e.newAlert(entry, domainAlert.TypeLowBattery,
			fmt.Sprintf("Battery level is %d%%, below %d%%", *entry.BatteryLevel, e.thresholds.LowBattery)))
	}

	if e.thresholds.SpeedLimitKmh > 0 && entry.Speed != nil && *entry.Speed > e.thresholds.SpeedLimitKmh {
		alerts = append(alerts, e.newAlert(entry, domainAlert.TypeSpeed,
			fmt.Sprintf("Speed %.0f km/h exceeds limit of %.0f km/h", *entry.Speed, e.thresholds.SpeedLimitKmh)))
	}

	return alerts
}

// FixRecorded implements domainDevice.FixListener.
func (e *AlertEngine) FixRecorded(ctx context.Context, result *domainDevice.FixResult) {
	for _, a := range e.Check(result) {
		if err := e.alerts.Create(ctx, a); err != nil {
			e.log.Error("Failed to save monitor alert",
				zap.String("device_id", a.DeviceID),
				zap.String("type", string(a.Type)),
				zap.Error(err),
			)
			continue
		}

		e.metrics.Update(func(m *IngestMetrics) {
			m.AlertsGenerated++
		})
		e.log.Info("Monitor alert raised",
			zap.String("alert_id", a.ID),
			zap.String("device_id", a.DeviceID),
			zap.String("type", string(a.Type)),
		)
	}
}

func (e *AlertEngine) newAlert(entry *domainDevice.Location, t domainAlert.Type, message string) *domainAlert.Alert {
	lat, lng := entry.Latitude, entry.Longitude
	return &domainAlert.Alert{
		DeviceID:  entry.DeviceID,
		Type:      t,
		Message:   message,
		Latitude:  &lat,
		Longitude: &lng,
		Severity:  domainAlert.SeverityWarning,
		Timestamp: entry.Timestamp,
	}
}

func wasLow(previous *domainDevice.Device, threshold int) bool {
	return previous != nil && previous.BatteryLevel != nil && *previous.BatteryLevel < threshold
}
