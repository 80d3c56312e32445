package ingestion

import (
	"sync"
	"time"
)

// IngestMetrics tracks ingestion performance
type IngestMetrics struct {
	MessagesReceived      int64         `json:"messagesReceived"`
	MessagesProcessed     int64         `json:"messagesProcessed"`
	MessagesFailed        int64         `json:"messagesFailed"`
	MessagesDropped       int64         `json:"messagesDropped"`
	AlertsGenerated       int64         `json:"alertsGenerated"`
	LastProcessedAt       time.Time     `json:"lastProcessedAt"`
	AverageProcessingTime time.Duration `json:"averageProcessingTimeNs"`
	BufferSize            int           `json:"bufferSize"`
}

// MetricsTracker provides a goroutine-safe wrapper around IngestMetrics.
type MetricsTracker struct {
	mu      sync.RWMutex
	metrics IngestMetrics
}

// NewMetricsTracker builds a new tracker with zeroed metrics.
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation in a thread-safe way.
func (t *MetricsTracker) Update(fn func(*IngestMetrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fn(&t.metrics)
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

func (m *IngestMetrics) observe(d time.Duration) {
	m.MessagesProcessed++
	m.LastProcessedAt = time.Now().UTC()
	if m.AverageProcessingTime == 0 {
		m.AverageProcessingTime = d
	} else {
		m.AverageProcessingTime = (m.AverageProcessingTime + d) / 2
	}
}
