package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuskit/statuskit/internal/model"
)

const uptimeRobotFixture = `{
	"stat": "ok",
	"monitors": [
		{
			"id": 779548468,
			"friendly_name": "Main Site",
			"url": "https://example.com",
			"status": 2,
			"create_datetime": 1612345678,
			"custom_uptime_ratio": "99.98-99.50-99.10",
			"response_times": [
				{"datetime": 1700000300, "value": 142},
				{"datetime": 1700000000, "value": 120}
			],
			"logs": [
				{"type": 1, "datetime": 1699990000, "duration": 600, "reason": {"code": 500, "detail": "Internal Server Error"}},
				{"type": 2, "datetime": 1699990600, "duration": 9400}
			]
		},
		{
			"id": 779548469,
			"friendly_name": "Paused Check",
			"url": "https://paused.example.com",
			"status": 0,
			"custom_uptime_ratio": "0-0-0"
		}
	]
}`

func TestUptimeRobotFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("api_key"))
		assert.Equal(t, "json", r.PostForm.Get("format"))
		assert.Equal(t, "1-7-30", r.PostForm.Get("custom_uptime_ratios"))
		assert.Equal(t, "779548468-779548469", r.PostForm.Get("monitors"))
		assert.Equal(t, "1", r.PostForm.Get("response_times"))
		assert.Equal(t, "50", r.PostForm.Get("response_times_limit"))
		assert.Equal(t, "1", r.PostForm.Get("logs"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(uptimeRobotFixture))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	records, err := f.GetMonitors(context.Background(), model.ProviderUptimeRobot, "secret-key", model.FetchOptions{
		MonitorIDs:         []string{"779548468", "779548469"},
		ResponseTimes:      true,
		ResponseTimesLimit: 50,
		Logs:               true,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	main := records[0]
	assert.Equal(t, model.RealID("779548468"), main.ID)
	assert.Equal(t, "Main Site", main.FriendlyName)
	assert.Equal(t, "https://example.com", main.URL)
	assert.Equal(t, model.StatusUp, main.Status)
	assert.Equal(t, "99.98-99.50-99.10", main.CustomUptimeRatio)
	assert.Equal(t, int64(1612345678), main.CreateDatetime)
	require.Len(t, main.ResponseTimes, 2)
	assert.Equal(t, 142, main.ResponseTimes[0].Value)
	require.Len(t, main.Logs, 2)
	assert.Equal(t, model.LogTypeDown, main.Logs[0].Type)
	require.NotNil(t, main.Logs[0].Reason)
	assert.Equal(t, "500", main.Logs[0].Reason.Code)
	assert.Equal(t, "Internal Server Error", main.Logs[0].Reason.Detail)
	assert.Nil(t, main.Logs[1].Reason)

	assert.Equal(t, model.StatusPaused, records[1].Status)
}

func TestUptimeRobotStatusMapping(t *testing.T) {
	tests := []struct {
		native int
		want   model.Status
	}{
		{0, model.StatusPaused},
		{1, model.StatusPending},
		{2, model.StatusUp},
		{8, model.StatusDegraded},
		{9, model.StatusDown},
		{99, model.StatusPending}, // unknown native value defaults to pending
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapStatus(uptimeRobotStatus, tt.native), "native %d", tt.native)
	}
}

func TestUptimeRobotNonOKStat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"fail","error":{"type":"invalid_parameter","message":"api_key is wrong"}}`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := f.GetMonitors(context.Background(), model.ProviderUptimeRobot, "bad", model.FetchOptions{})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "api_key is wrong")
}

func TestUptimeRobotMissingMonitorsField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"ok"}`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := f.GetMonitors(context.Background(), model.ProviderUptimeRobot, "key", model.FetchOptions{})

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestUptimeRobotHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := f.GetMonitors(context.Background(), model.ProviderUptimeRobot, "key", model.FetchOptions{})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
}
