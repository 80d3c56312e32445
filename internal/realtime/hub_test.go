package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fix(deviceID string, lat float64) *domainDevice.FixResult {
	return &domainDevice.FixResult{
		Entry:        &domainDevice.Location{DeviceID: deviceID, Latitude: lat, Longitude: 9.7, Timestamp: time.Now().UTC()},
		CacheUpdated: true,
	}
}

func TestHub_DeliversToDeviceSubscribersOnly(t *testing.T) {
	hub := NewHub(4)
	a := hub.Subscribe("dev-a")
	b := hub.Subscribe("dev-b")
	defer a.Close()
	defer b.Close()

	hub.FixRecorded(context.Background(), fix("dev-a", 4.05))

	select {
	case e := <-a.C:
		assert.Equal(t, "dev-a", e.DeviceID)
		assert.Equal(t, 4.05, e.Latitude)
		assert.True(t, e.Current)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case <-b.C:
		t.Fatal("event leaked to another device")
	default:
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1)
	s := hub.Subscribe("dev")

	hub.FixRecorded(context.Background(), fix("dev", 1))
	hub.FixRecorded(context.Background(), fix("dev", 2))

	assert.Zero(t, hub.Subscribers("dev"))

	e, ok := <-s.C
	require.True(t, ok)
	assert.Equal(t, 1.0, e.Latitude)
	_, ok = <-s.C
	assert.False(t, ok)

	s.Close()
}

func TestHub_CloseIsIdempotentAndConcurrentSafe(t *testing.T) {
	hub := NewHub(8)
	s := hub.Subscribe("dev")
	assert.Equal(t, 1, hub.Subscribers("dev"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.FixRecorded(context.Background(), fix("dev", 1))
		}()
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()

	assert.Zero(t, hub.Subscribers("dev"))
}
