package device

import (
	"context"
	"encoding/json"
	"time"
)

// Repository defines the interface for device repository operations
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByID(ctx context.Context, deviceID string) (*Device, error)
	ListByStudents(ctx context.Context, studentIDs []int64) ([]*Device, error)
	// RecordFix appends entry to the history and refreshes the cached
	// location when entry is newer than the device's last seen time.
	RecordFix(ctx context.Context, entry *Location) (*FixResult, error)
	UpdateSettings(ctx context.Context, deviceID string, settings json.RawMessage) error
}

// LocationRepository reads the append-only location history.
type LocationRepository interface {
	Last(ctx context.Context, deviceID string) (*Location, error)
	History(ctx context.Context, deviceID string, filter *HistoryFilter) ([]*Location, error)
	// DeleteBefore prunes history entries timestamped before cutoff, keeping
	// each device's newest entry.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryFilter bounds a history query. Zero times are open bounds.
type HistoryFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// StudentResolver lists the students a parent may monitor.
type StudentResolver interface {
	StudentsForParent(ctx context.Context, parentID int64) ([]int64, error)
}

// FixListener is notified after a fix has been committed.
type FixListener interface {
	FixRecorded(ctx context.Context, result *FixResult)
}
