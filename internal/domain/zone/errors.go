package zone

import "errors"

var (
	ErrZoneNotFound      = errors.New("safe zone not found")
	ErrInvalidTimeWindow = errors.New("timeRestrictions must be an object with HH:MM start and end and weekday names")
)
