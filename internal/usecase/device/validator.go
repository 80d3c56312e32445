package device

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"
	appErrors "educafric-tracking/pkg/errors"
)

// maxClockSkew bounds how far in the future a device clock may run.
const maxClockSkew = 5 * time.Minute

// ValidateSettings requires a JSON object, the only shape tracking settings take.
func ValidateSettings(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return appErrors.NewValidationError("Invalid tracking settings", appErrors.ErrInvalidSettings)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return appErrors.NewValidationError("Invalid tracking settings", appErrors.ErrInvalidSettings)
	}
	return nil
}

// ValidateFix rejects fixes the HTTP binding cannot catch, such as NaN
// coordinates from MQTT payloads or timestamps far in the future.
func ValidateFix(fix domainDevice.Fix, now time.Time) error {
	if math.IsNaN(fix.Latitude) || math.IsNaN(fix.Longitude) ||
		fix.Latitude < -90 || fix.Latitude > 90 ||
		fix.Longitude < -180 || fix.Longitude > 180 {
		return appErrors.NewValidationError("Coordinates out of range", appErrors.ErrInvalidLocation)
	}
	if fix.Accuracy != nil && *fix.Accuracy < 0 {
		return appErrors.NewValidationError("Accuracy must not be negative", appErrors.ErrInvalidInput)
	}
	if fix.BatteryLevel != nil && (*fix.BatteryLevel < 0 || *fix.BatteryLevel > 100) {
		return appErrors.NewValidationError("Battery level must be between 0 and 100", appErrors.ErrInvalidInput)
	}
	if fix.Speed != nil && *fix.Speed < 0 {
		return appErrors.NewValidationError("Speed must not be negative", appErrors.ErrInvalidInput)
	}
	if fix.Timestamp.IsZero() || fix.Timestamp.After(now.Add(maxClockSkew)) {
		return appErrors.NewValidationError("Invalid fix timestamp", appErrors.ErrInvalidInput)
	}
	return nil
}

func validateOptionalJSON(raw json.RawMessage, field string) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return appErrors.NewValidationError("Invalid "+field, appErrors.ErrInvalidInput)
	}
	return nil
}
