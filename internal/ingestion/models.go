package ingestion

import (
	"encoding/json"
	"strings"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"
)

// LocationMessage is the JSON payload a device publishes for one fix.
type LocationMessage struct {
	DeviceID     string     `json:"deviceId"`
	Timestamp    *time.Time `json:"timestamp"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Accuracy     *float64   `json:"accuracy"`
	Address      *string    `json:"address"`
	BatteryLevel *int       `json:"batteryLevel"`
	Speed        *float64   `json:"speed"`
}

// ParseLocationMessage decodes payload. When the payload has no device id it
// is taken from the topic segment matching the single-level wildcard in pattern.
func ParseLocationMessage(pattern, topic string, payload []byte) (*LocationMessage, error) {
	var msg LocationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}

	msg.DeviceID = strings.TrimSpace(msg.DeviceID)
	if msg.DeviceID == "" {
		msg.DeviceID = deviceIDFromTopic(pattern, topic)
	}
	return &msg, nil
}

// Fix converts the message, stamping received when the device sent no time.
func (m *LocationMessage) Fix(received time.Time) domainDevice.Fix {
	fix := domainDevice.Fix{
		Accuracy:     m.Accuracy,
		Address:      m.Address,
		BatteryLevel: m.BatteryLevel,
		Speed:        m.Speed,
		Timestamp:    received.UTC(),
	}
	if m.Latitude != nil {
		fix.Latitude = *m.Latitude
	}
	if m.Longitude != nil {
		fix.Longitude = *m.Longitude
	}
	if m.Timestamp != nil && !m.Timestamp.IsZero() {
		fix.Timestamp = m.Timestamp.UTC()
	}
	return fix
}

func deviceIDFromTopic(pattern, topic string) string {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")
	if len(patternParts) != len(topicParts) {
		return ""
	}

	for i, part := range patternParts {
		if part == "+" {
			return topicParts[i]
		}
	}
	return ""
}
