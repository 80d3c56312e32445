// Package realtime fans committed location fixes out to live subscribers.
package realtime

import (
	"context"
	"sync"

	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/logger"

	"go.uber.org/zap"
)

const defaultBuffer = 16

// Event is one fix as streamed to clients.
type Event struct {
	DeviceID     string   `json:"deviceId"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accuracy     *float64 `json:"accuracy"`
	Address      *string  `json:"address"`
	BatteryLevel *int     `json:"batteryLevel"`
	Speed        *float64 `json:"speed"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
	// Current is false for late fixes that only went to history.
	Current bool `json:"current"`
}

// Subscription receives events for one device until closed. C is closed when
// the subscription ends, including when the hub drops a slow reader.
type Subscription struct {
	C <-chan Event

	ch       chan Event
	hub      *Hub
	deviceID string
	once     sync.Once
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub keeps subscribers per device.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

var _ domainDevice.FixListener = (*Hub)(nil)

func (h *Hub) Subscribe(deviceID string) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, hub: h, deviceID: deviceID}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[deviceID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[deviceID] = set
	}
	set[s] = struct{}{}

	return s
}

// Subscribers counts live subscriptions for a device.
func (h *Hub) Subscribers(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[deviceID])
}

// FixRecorded publishes a committed fix. It never blocks: subscribers whose
// buffer is full are dropped.
func (h *Hub) FixRecorded(_ context.Context, result *domainDevice.FixResult) {
	if result == nil || result.Entry == nil {
		return
	}
	event := newEvent(result)

	var slow []*Subscription
	h.mu.RLock()
	for s := range h.subs[event.DeviceID] {
		select {
		case s.ch <- event:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		logger.Warn("Dropping slow live subscriber", zap.String("device_id", s.deviceID))
		h.remove(s)
	}
}

func (h *Hub) remove(s *Subscription) {
	s.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if set, ok := h.subs[s.deviceID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.deviceID)
			}
		}
		close(s.ch)
	})
}

func newEvent(result *domainDevice.FixResult) Event {
	e := result.Entry
	return Event{
		DeviceID:     e.DeviceID,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		Accuracy:     e.Accuracy,
		Address:      e.Address,
		BatteryLevel: e.BatteryLevel,
		Speed:        e.Speed,
		Timestamp:    e.Timestamp.UnixMilli(),
		Current:      result.CacheUpdated,
	}
}
