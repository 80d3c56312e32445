package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	topic   string
	qos     byte
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload []byte) error {
	f.topic = topic
	f.qos = qos
	f.payload = payload
	return f.err
}

func TestMQTTNotifier_PublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTTNotifier(pub, "tracking/emergency", 1, nil)

	lat, lng := 4.05, 9.7
	err := n.NotifyEmergency(context.Background(), &Emergency{
		AlertID:   "a-1",
		DeviceID:  "d-1",
		ContactID: "c-9",
		Message:   "help",
		Latitude:  &lat,
		Longitude: &lng,
		Timestamp: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "tracking/emergency", pub.topic)
	assert.Equal(t, byte(1), pub.qos)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, "d-1", got["deviceId"])
	assert.Equal(t, "help", got["message"])
	assert.Equal(t, 4.05, got["latitude"])
}

func TestMQTTNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	n := NewMQTTNotifier(pub, "tracking/emergency", 1, nil)

	err := n.NotifyEmergency(context.Background(), &Emergency{DeviceID: "d-1"})
	assert.ErrorContains(t, err, "not connected")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(nil).NotifyEmergency(context.Background(), &Emergency{DeviceID: "d-1"}))
}
