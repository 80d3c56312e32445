package ingestion

import (
	"fmt"
	"math"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateLocationMessage validates a location message before it is queued
func ValidateLocationMessage(msg *LocationMessage) error {
	if msg.DeviceID == "" {
		return &ValidationError{Field: "deviceId", Message: "deviceId is required"}
	}

	if msg.Latitude == nil || msg.Longitude == nil {
		return &ValidationError{Field: "latitude", Message: "latitude and longitude are required"}
	}
	if math.IsNaN(*msg.Latitude) || *msg.Latitude < -90 || *msg.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}
	if math.IsNaN(*msg.Longitude) || *msg.Longitude < -180 || *msg.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}

	if msg.Accuracy != nil && *msg.Accuracy < 0 {
		return &ValidationError{Field: "accuracy", Message: "accuracy must be non-negative"}
	}

	if msg.BatteryLevel != nil {
		if *msg.BatteryLevel < 0 || *msg.BatteryLevel > 100 {
			return &ValidationError{Field: "batteryLevel", Message: "batteryLevel must be between 0 and 100"}
		}
	}

	if msg.Speed != nil && *msg.Speed < 0 {
		return &ValidationError{Field: "speed", Message: "speed must be non-negative"}
	}

	return nil
}
