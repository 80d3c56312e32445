package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/logger"

	"go.uber.org/zap"
)

// FixRecorder stores a fix for a device. The device service implements it.
type FixRecorder interface {
	RecordFix(ctx context.Context, deviceID string, fix domainDevice.Fix) (*domainDevice.FixResult, error)
}

// Processor fans queued location messages out to a pool of workers
type Processor struct {
	recorder FixRecorder

	workerCount int
	timeout     time.Duration

	messages chan *LocationMessage

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	metrics *MetricsTracker
	log     *zap.Logger
}

// NewProcessor creates a new location processor
func NewProcessor(recorder FixRecorder, workerCount, bufferSize int, timeout time.Duration, metrics *MetricsTracker) *Processor {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if metrics == nil {
		metrics = NewMetricsTracker()
	}

	return &Processor{
		recorder:    recorder,
		workerCount: workerCount,
		timeout:     timeout,
		messages:    make(chan *LocationMessage, bufferSize),
		metrics:     metrics,
		log:         logger.Named("ingestion"),
	}
}

// Start starts the processor workers
func (p *Processor) Start() {
	p.log.Info("Starting location processor",
		zap.Int("workers", p.workerCount),
		zap.Int("buffer", cap(p.messages)),
	)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops accepting messages and waits for queued ones to be written.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.messages)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("Location processor stopped")
}

// Submit validates msg and queues it without blocking. It reports whether
// the message was accepted.
func (p *Processor) Submit(msg *LocationMessage) bool {
	if err := ValidateLocationMessage(msg); err != nil {
		p.log.Warn("Invalid location message", zap.String("device_id", msg.DeviceID), zap.Error(err))
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.messages <- msg:
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
			m.BufferSize = len(p.messages)
		})
		return true
	default:
		p.log.Warn("Location buffer full, dropping message", zap.String("device_id", msg.DeviceID))
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesDropped++
		})
		return false
	}
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for msg := range p.messages {
		start := time.Now()

		if err := p.process(msg, start); err != nil {
			level := p.log.Error
			if errors.Is(err, domainDevice.ErrDeviceNotFound) {
				level = p.log.Warn
			}
			level("Failed to record fix",
				zap.Int("worker", id),
				zap.String("device_id", msg.DeviceID),
				zap.Error(err),
			)
			p.metrics.Update(func(m *IngestMetrics) {
				m.MessagesFailed++
				m.BufferSize = len(p.messages)
			})
			continue
		}

		elapsed := time.Since(start)
		p.metrics.Update(func(m *IngestMetrics) {
			m.observe(elapsed)
			m.BufferSize = len(p.messages)
		})
	}
}

func (p *Processor) process(msg *LocationMessage, received time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	_, err := p.recorder.RecordFix(ctx, msg.DeviceID, msg.Fix(received))
	return err
}

// Metrics returns current metrics
func (p *Processor) Metrics() IngestMetrics {
	return p.metrics.Snapshot()
}
