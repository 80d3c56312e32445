package zone

import (
	"encoding/json"

	domainZone "educafric-tracking/internal/domain/zone"
	appErrors "educafric-tracking/pkg/errors"
)

func validateTimeRestrictions(raw json.RawMessage) error {
	if _, err := domainZone.ParseTimeWindow(raw); err != nil {
		return appErrors.NewValidationError("Invalid timeRestrictions", err)
	}
	return nil
}
