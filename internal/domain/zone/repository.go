package zone

import (
	"context"
	"time"
)

// Repository stores safe zones.
type Repository interface {
	Create(ctx context.Context, zone *SafeZone) error
	GetByID(ctx context.Context, zoneID string) (*SafeZone, error)
	ListByDevices(ctx context.Context, deviceIDs []string) ([]*SafeZone, error)
}

// StatusRepository stores zone membership transitions.
type StatusRepository interface {
	// Latest returns nil without error when the pair has no status yet.
	Latest(ctx context.Context, deviceID, zoneID string) (*Status, error)
	// Transition writes a new status row only if isInZone differs from the
	// latest one. Read and write happen in a single transaction.
	Transition(ctx context.Context, deviceID, zoneID string, isInZone bool, at time.Time) (*Transition, error)
	History(ctx context.Context, deviceID, zoneID string, limit int) ([]*Status, error)
}
