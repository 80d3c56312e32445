package alert

import "context"

// Repository stores location alerts.
type Repository interface {
	Create(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, alertID string) (*Alert, error)
	ListByDevice(ctx context.Context, deviceID string, filter *Filter) ([]*Alert, error)
	MarkRead(ctx context.Context, alertID string) error
}
