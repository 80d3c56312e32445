package device

import (
	"context"
	"testing"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneHistory(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	ctx := context.Background()

	d := f.register(t, 1)
	for _, age := range []time.Duration{40 * 24 * time.Hour, 10 * 24 * time.Hour, time.Hour} {
		_, err := f.svc.RecordFix(ctx, d.ID, domainDevice.Fix{Latitude: 1, Longitude: 2, Timestamp: now.Add(-age)})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), f.svc.pruneHistory(ctx, 30*24*time.Hour))

	history, err := f.svc.History(ctx, d.ID, &HistoryRequest{})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestStartRetentionJob_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.StartRetentionJob(ctx, time.Hour, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention job did not stop")
	}
}
