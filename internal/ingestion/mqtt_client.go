package ingestion

import (
	"errors"
	"fmt"
	"sync"

	"educafric-tracking/internal/logger"
	pkgmqtt "educafric-tracking/pkg/mqtt"

	"go.uber.org/zap"
)

// Subscriber is the subset of the MQTT client used for ingestion.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTIngestionConfig describes the topic and QoS to listen on.
type MQTTIngestionConfig struct {
	LocationTopic string
	QoS           byte
}

// MQTTIngestionClient wires MQTT messages into the ingestion processor.
type MQTTIngestionClient struct {
	cfg        *MQTTIngestionConfig
	subscriber Subscriber
	processor  *Processor
	log        *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewMQTTIngestionClient builds an ingestion client over an already connected subscriber.
func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, subscriber Subscriber, processor *Processor) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.LocationTopic == "" {
		return nil, errors.New("mqtt ingestion topic is not configured")
	}
	if subscriber == nil {
		return nil, errors.New("mqtt subscriber is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	return &MQTTIngestionClient{
		cfg:        cfg,
		subscriber: subscriber,
		processor:  processor,
		log:        logger.Named("ingestion.mqtt"),
	}, nil
}

// Start subscribes to the location topic.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := c.subscriber.Subscribe(c.cfg.LocationTopic, c.cfg.QoS, c.handleLocationMessage); err != nil {
		return fmt.Errorf("subscribe failed for topic %s: %w", c.cfg.LocationTopic, err)
	}

	c.log.Info("Listening for location fixes", zap.String("topic", c.cfg.LocationTopic))
	c.started = true
	return nil
}

// Stop unsubscribes from the broker. The connection is owned by the caller.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if err := c.subscriber.Unsubscribe(c.cfg.LocationTopic); err != nil {
		c.log.Warn("Failed to unsubscribe from location topic", zap.Error(err))
	}
	c.started = false
}

// handleLocationMessage decodes a fix and hands it to the processor.
func (c *MQTTIngestionClient) handleLocationMessage(topic string, payload []byte) {
	msg, err := ParseLocationMessage(c.cfg.LocationTopic, topic, payload)
	if err != nil {
		c.log.Warn("Invalid location payload", zap.String("topic", topic), zap.Error(err))
		c.processor.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	if !c.processor.Submit(msg) {
		c.log.Debug("Location message rejected", zap.String("device_id", msg.DeviceID))
	}
}
