package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-mcs/homely/internal/homely"
)

// stubProvider is a test double for handlers.StatusProvider
type stubProvider struct {
	snapshot    *homely.Snapshot
	lastError   error
	lastSuccess time.Time
}

func (s *stubProvider) Snapshot() (*homely.Snapshot, bool) {
	return s.snapshot, s.snapshot != nil
}

func (s *stubProvider) LastError() error {
	return s.lastError
}

func (s *stubProvider) LastSuccess() time.Time {
	return s.lastSuccess
}

func newTestRouter(provider *stubProvider) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRouter(RouterConfig{Status: provider, Logger: logger})
}

func doRequest(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestGetHealth(t *testing.T) {
	router := newTestRouter(&stubProvider{})

	w, body := doRequest(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "homelyd", body["service"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetStatus_BeforeFirstPoll(t *testing.T) {
	router := newTestRouter(&stubProvider{})

	w, body := doRequest(t, router, "/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["updated"])
	assert.Equal(t, homely.AlarmStateUnknown, body["alarm_state"])
}

func TestGetStatus_WithSnapshot(t *testing.T) {
	fetched := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		snapshot: &homely.Snapshot{
			LocationID: "loc1",
			AlarmState: "ARMED_NIGHT",
			Devices:    []homely.Device{{ID: "d1"}, {ID: "d2"}},
			FetchedAt:  fetched,
		},
		lastSuccess: fetched,
	}
	router := newTestRouter(provider)

	w, body := doRequest(t, router, "/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["updated"])
	assert.Equal(t, "ARMED_NIGHT", body["alarm_state"])
	assert.Equal(t, "loc1", body["location_id"])
	assert.Equal(t, float64(2), body["device_count"])
}

func TestGetStatus_ReportsUpdateFailure(t *testing.T) {
	provider := &stubProvider{
		snapshot:  &homely.Snapshot{LocationID: "loc1", AlarmState: "DISARMED"},
		lastError: errors.New("server failure: location data returned status 502"),
	}
	router := newTestRouter(provider)

	w, body := doRequest(t, router, "/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["updated"], "last good snapshot keeps being served")
	assert.Contains(t, body["last_error"], "status 502")
	assert.Equal(t, "DISARMED", body["alarm_state"])
}

func TestListDevices(t *testing.T) {
	provider := &stubProvider{
		snapshot: &homely.Snapshot{
			LocationID: "loc1",
			Devices: []homely.Device{
				{
					ID:        "d1",
					Name:      "Entrance Sensor",
					ModelName: "Window Sensor",
					Online:    true,
					Features: map[string]homely.Feature{
						"temperature": {States: map[string]homely.State{
							"temperature": {Value: 21.5},
						}},
					},
				},
			},
		},
	}
	router := newTestRouter(provider)

	w, body := doRequest(t, router, "/v1/devices")
	assert.Equal(t, http.StatusOK, w.Code)

	devices, ok := body["devices"].([]any)
	require.True(t, ok)
	require.Len(t, devices, 1)

	dev := devices[0].(map[string]any)
	assert.Equal(t, "d1", dev["id"])
	assert.Equal(t, "Entrance Sensor", dev["name"])
	assert.Equal(t, true, dev["online"])

	features := dev["features"].(map[string]any)
	temp := features["temperature"].(map[string]any)
	assert.Equal(t, 21.5, temp["temperature"])
}

func TestListDevices_BeforeFirstPoll(t *testing.T) {
	router := newTestRouter(&stubProvider{})

	w, body := doRequest(t, router, "/v1/devices")
	assert.Equal(t, http.StatusOK, w.Code)

	devices, ok := body["devices"].([]any)
	require.True(t, ok)
	assert.Empty(t, devices)
}
