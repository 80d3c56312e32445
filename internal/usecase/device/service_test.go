package device

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	domainDevice "educafric-tracking/internal/domain/device"
	domainZone "educafric-tracking/internal/domain/zone"
	"educafric-tracking/internal/infrastructure/database/postgres"
	"educafric-tracking/internal/testutil"
	appErrors "educafric-tracking/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	mu      sync.Mutex
	results []*domainDevice.FixResult
}

func (l *recordingListener) FixRecorded(_ context.Context, r *domainDevice.FixResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

type fixture struct {
	svc       *Service
	zones     domainZone.Repository
	guardians *postgres.GuardianRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		zones:     postgres.NewZoneRepository(db),
		guardians: postgres.NewGuardianRepository(db),
	}
	f.svc = NewService(
		postgres.NewDeviceRepository(db),
		postgres.NewLocationRepository(db),
		f.zones,
		f.guardians,
	)
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) register(t *testing.T, studentID int64) *DeviceResponse {
	t.Helper()
	d, err := f.svc.Register(context.Background(), &RegisterDeviceRequest{
		StudentID:  ptr(studentID),
		DeviceType: "smartwatch",
		DeviceName: "Amina's watch",
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) addZone(t *testing.T, deviceID, name string) {
	t.Helper()
	require.NoError(t, f.zones.Create(context.Background(), &domainZone.SafeZone{
		DeviceID: deviceID, Name: name, Type: domainZone.TypeSchool,
		Latitude: 4.05, Longitude: 9.7, Radius: 100, IsActive: true,
	}))
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	d := f.register(t, 42)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, int64(42), d.StudentID)
	assert.True(t, d.IsActive)
	assert.Nil(t, d.CurrentLocation)
	assert.Nil(t, d.LastSeen)
	assert.Empty(t, d.SafeZones)
	assert.NotNil(t, d.SafeZones)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  *RegisterDeviceRequest
	}{
		{"missing student", &RegisterDeviceRequest{DeviceType: "phone", DeviceName: "P"}},
		{"blank name", &RegisterDeviceRequest{StudentID: ptr(int64(1)), DeviceType: "phone", DeviceName: " "}},
		{"battery above 100", &RegisterDeviceRequest{StudentID: ptr(int64(1)), DeviceType: "phone", DeviceName: "P", BatteryLevel: ptr(101)}},
		{"settings not an object", &RegisterDeviceRequest{StudentID: ptr(int64(1)), DeviceType: "phone", DeviceName: "P", TrackingSettings: json.RawMessage(`"x"`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.req)
			var appErr *appErrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.CodeValidation, appErr.Code)
		})
	}
}

func TestUpdateLocation_ThenReadBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listener := &recordingListener{}
	f.svc.AddListener(listener)

	d := f.register(t, 42)

	_, err := f.svc.UpdateLocation(ctx, d.ID, &LocationRequest{Latitude: ptr(4.05), Longitude: ptr(9.70), Accuracy: ptr(10.0)})
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLocation)
	assert.Equal(t, 4.05, got.CurrentLocation.Latitude)
	assert.Equal(t, 10.0, got.CurrentLocation.Accuracy)
	assert.True(t, got.IsOnline)

	f.svc.now = func() time.Time { return time.Now().UTC().Add(time.Second) }
	_, err = f.svc.UpdateLocation(ctx, d.ID, &LocationRequest{Latitude: ptr(4.06), Longitude: ptr(9.71)})
	require.NoError(t, err)

	last, err := f.svc.GetLastLocation(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.06, last.Latitude)
	assert.Equal(t, 9.71, last.Longitude)

	assert.Len(t, listener.results, 2)
}

func TestUpdateLocation_OutOfOrderFixKeepsNewerCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.register(t, 1)

	newer := time.Now().UTC().Add(-time.Minute)
	older := newer.Add(-time.Hour)

	_, err := f.svc.UpdateLocation(ctx, d.ID, &LocationRequest{Latitude: ptr(1.0), Longitude: ptr(1.0), Timestamp: &newer})
	require.NoError(t, err)
	resp, err := f.svc.UpdateLocation(ctx, d.ID, &LocationRequest{Latitude: ptr(2.0), Longitude: ptr(2.0), Timestamp: &older})
	require.NoError(t, err)
	assert.True(t, resp.Stale)

	got, err := f.svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.CurrentLocation.Latitude)

	history, err := f.svc.History(ctx, d.ID, &HistoryRequest{})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdateLocation_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.register(t, 1)

	_, err := f.svc.UpdateLocation(ctx, "missing", &LocationRequest{Latitude: ptr(1.0), Longitude: ptr(1.0)})
	assert.ErrorIs(t, err, domainDevice.ErrDeviceNotFound)

	_, err = f.svc.UpdateLocation(ctx, d.ID, &LocationRequest{Latitude: ptr(100.0), Longitude: ptr(1.0)})
	var appErr *appErrors.AppError
	assert.ErrorAs(t, err, &appErr)

	future := time.Now().Add(time.Hour)
	_, err = f.svc.UpdateLocation(ctx, d.ID, &LocationRequest{Latitude: ptr(1.0), Longitude: ptr(1.0), Timestamp: &future})
	assert.ErrorAs(t, err, &appErr)

	_, err = f.svc.GetLastLocation(ctx, d.ID)
	assert.ErrorIs(t, err, domainDevice.ErrLocationNotFound)
}

func TestListByStudent_ZonesDoNotLeak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.register(t, 7)
	b := f.register(t, 7)
	f.register(t, 8)
	f.addZone(t, a.ID, "School")
	f.addZone(t, a.ID, "Home")
	f.addZone(t, b.ID, "Grandma")

	devices, err := f.svc.ListByStudent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	for _, d := range devices {
		for _, z := range d.SafeZones {
			assert.Equal(t, d.ID, z.DeviceID)
		}
	}
	counts := map[string]int{devices[0].ID: len(devices[0].SafeZones), devices[1].ID: len(devices[1].SafeZones)}
	assert.Equal(t, 2, counts[a.ID])
	assert.Equal(t, 1, counts[b.ID])

	none, err := f.svc.ListByStudent(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListByParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, 1)
	f.register(t, 2)
	f.register(t, 3)
	require.NoError(t, f.guardians.Link(ctx, 50, 1))
	require.NoError(t, f.guardians.Link(ctx, 50, 3))

	devices, err := f.svc.ListByParent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.ElementsMatch(t, []int64{1, 3}, []int64{devices[0].StudentID, devices[1].StudentID})

	devices, err = f.svc.ListByParent(ctx, 51)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.register(t, 1)

	require.NoError(t, f.svc.UpdateSettings(ctx, d.ID, json.RawMessage(`{"interval":60,"geofencing":true}`)))
	require.NoError(t, f.svc.UpdateSettings(ctx, d.ID, json.RawMessage(`{"interval":30}`)))

	got, err := f.svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"interval":30}`, string(got.TrackingSettings))

	err = f.svc.UpdateSettings(ctx, d.ID, json.RawMessage(`[1]`))
	var appErr *appErrors.AppError
	assert.ErrorAs(t, err, &appErr)

	assert.ErrorIs(t, f.svc.UpdateSettings(ctx, "missing", json.RawMessage(`{}`)), domainDevice.ErrDeviceNotFound)
}

func TestHistory_RejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	d := f.register(t, 1)
	now := time.Now().UTC()

	_, err := f.svc.History(context.Background(), d.ID, &HistoryRequest{From: now, To: now.Add(-time.Hour)})
	var appErr *appErrors.AppError
	assert.ErrorAs(t, err, &appErr)

	_, err = f.svc.History(context.Background(), "missing", &HistoryRequest{})
	assert.ErrorIs(t, err, domainDevice.ErrDeviceNotFound)
}
