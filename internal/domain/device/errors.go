package device

import "errors"

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrLocationNotFound = errors.New("no location history found")
)
