package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"educafric-tracking/internal/config"
	"educafric-tracking/internal/notify"
	"educafric-tracking/internal/routes"
	"educafric-tracking/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "/api/v1/tracking"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notify.Emergency
}

func (n *recordingNotifier) NotifyEmergency(_ context.Context, e *notify.Emergency) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, e)
	return nil
}

type testServer struct {
	router   *gin.Engine
	services *routes.Services
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:  config.ServerConfig{Environment: "test", MaxRequestBytes: 1 << 20},
		Monitor: config.MonitorConfig{LowBatteryThreshold: 15, SpeedLimitKmh: 50},
	}
	db := testutil.NewTestDB(t)
	notifier := &recordingNotifier{}
	services := routes.NewServices(cfg, db, notifier)

	return &testServer{
		router:   routes.SetupRoutes(cfg, db, services),
		services: services,
		notifier: notifier,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, base+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func (s *testServer) registerDevice(t *testing.T, studentID int64) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/devices", map[string]interface{}{
		"studentId":  studentID,
		"deviceType": "smartwatch",
		"deviceName": "Amina's watch",
		"emergencyContacts": []map[string]string{
			{"name": "Mother", "phone": "+237600000000"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestDeviceLocationRoundTrip(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 42)

	w := s.do(t, http.MethodPost, "/devices/"+deviceID+"/location", map[string]interface{}{
		"latitude":     4.05,
		"longitude":    9.7,
		"accuracy":     10,
		"batteryLevel": 80,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/devices/"+deviceID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var device struct {
		ID              string `json:"id"`
		IsOnline        bool   `json:"isOnline"`
		CurrentLocation *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Accuracy  float64 `json:"accuracy"`
			Timestamp int64   `json:"timestamp"`
		} `json:"currentLocation"`
		SafeZones []json.RawMessage `json:"safeZones"`
	}
	decode(t, w, &device)

	require.NotNil(t, device.CurrentLocation)
	assert.Equal(t, 4.05, device.CurrentLocation.Latitude)
	assert.Equal(t, 9.7, device.CurrentLocation.Longitude)
	assert.Equal(t, 10.0, device.CurrentLocation.Accuracy)
	assert.Positive(t, device.CurrentLocation.Timestamp)
	assert.True(t, device.IsOnline)
	assert.NotNil(t, device.SafeZones)
}

func TestLastLocationAndHistory(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 7)

	w := s.do(t, http.MethodGet, "/devices/"+deviceID+"/last-location", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	first := time.Now().UTC().Add(-2 * time.Minute)
	second := first.Add(time.Minute)
	for _, fix := range []struct {
		lat float64
		at  time.Time
	}{{4.05, first}, {4.06, second}} {
		w := s.do(t, http.MethodPost, "/devices/"+deviceID+"/location", map[string]interface{}{
			"latitude":  fix.lat,
			"longitude": 9.7,
			"timestamp": fix.at.Format(time.RFC3339Nano),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/last-location", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var last struct {
		Latitude  float64 `json:"latitude"`
		Timestamp int64   `json:"timestamp"`
	}
	decode(t, w, &last)
	assert.Equal(t, 4.06, last.Latitude)
	assert.Equal(t, second.UnixMilli(), last.Timestamp)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/history?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	decode(t, w, &history)
	assert.Len(t, history, 2)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/history?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownDeviceReturnsJSON404(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/devices/missing",
		"/devices/missing/last-location",
		"/devices/missing/history",
		"/devices/missing/live",
	} {
		t.Run(path, func(t *testing.T) {
			w := s.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)

			var body map[string]string
			decode(t, w, &body)
			assert.NotEmpty(t, body["message"])
		})
	}

	w := s.do(t, http.MethodPost, "/devices/missing/location", map[string]float64{"latitude": 1, "longitude": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Alert listings are plain queries and stay empty for unknown devices.
	w = s.do(t, http.MethodGet, "/devices/missing/alerts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRegisterDevice_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/devices", map[string]interface{}{"deviceType": "phone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "studentId")

	w = s.do(t, http.MethodPost, "/devices", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateLocation_RejectsOutOfRange(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 1)

	w := s.do(t, http.MethodPost, "/devices/"+deviceID+"/location", map[string]float64{"latitude": 91, "longitude": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSettings(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 1)

	w := s.do(t, http.MethodPatch, "/devices/"+deviceID+"/settings", `{"interval":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPatch, "/devices/"+deviceID+"/settings", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID, nil)
	assert.Contains(t, w.Body.String(), `"interval":30`)
}

func TestListByStudentAndParent(t *testing.T) {
	s := newTestServer(t)
	s.registerDevice(t, 5)
	s.registerDevice(t, 5)

	w := s.do(t, http.MethodGet, "/students/5/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var devices []map[string]interface{}
	decode(t, w, &devices)
	assert.Len(t, devices, 2)

	w = s.do(t, http.MethodGet, "/students/abc/devices", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/parents/99/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestEmergencyAlertFlow(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 3)

	w := s.do(t, http.MethodPost, "/emergency-alert", map[string]interface{}{
		"deviceId":  deviceID,
		"contactId": 12,
		"message":   "Help",
		"location":  map[string]float64{"latitude": 4.05, "longitude": 9.7},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success    bool   `json:"success"`
		AlertID    string `json:"alertId"`
		Dispatched bool   `json:"dispatched"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.Dispatched)
	assert.NotEmpty(t, resp.AlertID)

	require.Len(t, s.notifier.sent, 1)
	assert.Equal(t, "12", s.notifier.sent[0].ContactID)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Severity string `json:"severity"`
		IsRead   bool   `json:"isRead"`
	}
	decode(t, w, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "emergency", alerts[0].Type)
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.False(t, alerts[0].IsRead)

	w = s.do(t, http.MethodPatch, "/alerts/"+alerts[0].ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/alerts?unread=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodPost, "/emergency-alert", `{"deviceId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAlertAndMarkReadUnknown(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 3)

	w := s.do(t, http.MethodPost, "/alerts", map[string]interface{}{
		"deviceId": deviceID,
		"type":     "custom",
		"message":  "Left without permission",
		"severity": "warning",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/alerts?minSeverity=critical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodPatch, "/alerts/does-not-exist/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSafeZoneAndStatusTransitions(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 8)

	w := s.do(t, http.MethodPost, "/devices/"+deviceID+"/safe-zones", map[string]interface{}{
		"name":      "School",
		"type":      "school",
		"latitude":  4.05,
		"longitude": 9.7,
		"radius":    150,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var zone struct {
		ID                string `json:"id"`
		IsActive          bool   `json:"isActive"`
		EntryNotification bool   `json:"entryNotification"`
	}
	decode(t, w, &zone)
	assert.True(t, zone.IsActive)
	assert.True(t, zone.EntryNotification)

	statusPath := "/devices/" + deviceID + "/zone-status/" + zone.ID

	w = s.do(t, http.MethodPost, statusPath, map[string]bool{"isInZone": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var transition struct {
		Success  bool `json:"success"`
		IsInZone bool `json:"isInZone"`
		Changed  bool `json:"changed"`
	}
	decode(t, w, &transition)
	assert.True(t, transition.Changed)

	w = s.do(t, http.MethodPost, statusPath, map[string]bool{"isInZone": true})
	decode(t, w, &transition)
	assert.False(t, transition.Changed)

	w = s.do(t, http.MethodPost, statusPath, map[string]bool{"isInZone": false})
	decode(t, w, &transition)
	assert.True(t, transition.Changed)

	w = s.do(t, http.MethodGet, statusPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isInZone":false`)

	w = s.do(t, http.MethodGet, statusPath+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	decode(t, w, &history)
	assert.Len(t, history, 2)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/alerts", nil)
	var alerts []struct {
		Type string `json:"type"`
	}
	decode(t, w, &alerts)
	types := make([]string, 0, len(alerts))
	for _, a := range alerts {
		types = append(types, a.Type)
	}
	assert.ElementsMatch(t, []string{"zone_enter", "zone_exit"}, types)

	w = s.do(t, http.MethodPost, statusPath, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID, nil)
	assert.Contains(t, w.Body.String(), `"name":"School"`)
}

func TestLowBatteryFixRaisesAlert(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 4)

	w := s.do(t, http.MethodPost, "/devices/"+deviceID+"/location", map[string]interface{}{
		"latitude": 4.05, "longitude": 9.7, "batteryLevel": 10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/devices/"+deviceID+"/alerts", nil)
	assert.Contains(t, w.Body.String(), `"type":"low_battery"`)
}

func TestRequestBodyTooLarge(t *testing.T) {
	s := newTestServer(t)

	big := `{"deviceType":"` + strings.Repeat("x", 2<<20) + `"}`
	w := s.do(t, http.MethodPost, "/devices", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestIngestionMetricsAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/ingestion/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "messagesReceived")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mqtt":"disabled"`)
}

func TestLiveStream(t *testing.T) {
	s := newTestServer(t)
	deviceID := s.registerDevice(t, 9)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + base + "/devices/" + deviceID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return s.services.Hub.Subscribers(deviceID) == 1
	}, time.Second, 10*time.Millisecond)

	w := s.do(t, http.MethodPost, "/devices/"+deviceID+"/location", map[string]float64{"latitude": 4.05, "longitude": 9.7})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event struct {
		DeviceID string  `json:"deviceId"`
		Latitude float64 `json:"latitude"`
		Current  bool    `json:"current"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, deviceID, event.DeviceID)
	assert.Equal(t, 4.05, event.Latitude)
	assert.True(t, event.Current)
}
