// Package notify dispatches emergency alerts to the people watching a device.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Emergency is the payload handed to a Notifier once the alert is stored.
type Emergency struct {
	AlertID   string          `json:"alertId"`
	DeviceID  string          `json:"deviceId"`
	StudentID *int64          `json:"studentId,omitempty"`
	ContactID string          `json:"contactId,omitempty"`
	Message   string          `json:"message"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	Contacts  json.RawMessage `json:"emergencyContacts,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Notifier interface {
	NotifyEmergency(ctx context.Context, e *Emergency) error
}

// LogNotifier only logs emergencies. Used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyEmergency(_ context.Context, e *Emergency) error {
	n.log.Warn("Emergency alert raised without a delivery channel",
		zap.String("alert_id", e.AlertID),
		zap.String("device_id", e.DeviceID),
		zap.String("contact_id", e.ContactID),
		zap.String("message", e.Message),
	)
	return nil
}

// Publisher is the subset of the MQTT client used for dispatch.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier publishes emergencies as JSON for the notification gateway
// (SMS, WhatsApp, email) to fan out.
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	qos       byte
	log       *zap.Logger
}

func NewMQTTNotifier(publisher Publisher, topic string, qos byte, log *zap.Logger) *MQTTNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &MQTTNotifier{
		publisher: publisher,
		topic:     topic,
		qos:       qos,
		log:       log,
	}
}

func (n *MQTTNotifier) NotifyEmergency(ctx context.Context, e *Emergency) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode emergency: %w", err)
	}

	if err := n.publisher.Publish(n.topic, n.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish emergency to %s: %w", n.topic, err)
	}

	n.log.Info("Emergency dispatched",
		zap.String("alert_id", e.AlertID),
		zap.String("device_id", e.DeviceID),
		zap.String("topic", n.topic),
	)
	return nil
}
