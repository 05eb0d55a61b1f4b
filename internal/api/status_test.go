package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/statuskit/statuskit/internal/config"
	"github.com/statuskit/statuskit/internal/model"
	"github.com/statuskit/statuskit/internal/notify"
	"github.com/statuskit/statuskit/internal/provider"
	"github.com/statuskit/statuskit/internal/store"
)

type statusResponse struct {
	Site struct {
		Subdomain string `json:"subdomain"`
		Name      string `json:"name"`
	} `json:"site"`
	Monitors []model.MonitorRecord `json:"monitors"`
	KPIs     struct {
		Uptime        string `json:"uptime"`
		TotalMonitors int    `json:"totalMonitors"`
		Incidents     int    `json:"incidents"`
		AvgResponse   int    `json:"avgResponse"`
	} `json:"kpis"`
	ProviderError string `json:"providerError"`
}

func newTestEnv(t *testing.T, providerHandler http.Handler) (http.Handler, store.Store) {
	t.Helper()

	st, err := store.NewJSONStore(filepath.Join(t.TempDir(), "sites.json"))
	require.NoError(t, err)

	providerURL := "http://127.0.0.1:0" // unroutable unless a handler is given
	if providerHandler != nil {
		srv := httptest.NewServer(providerHandler)
		t.Cleanup(srv.Close)
		providerURL = srv.URL
	}
	fetcher := provider.NewFetcher(provider.Options{
		CacheTTL:        -1,
		UptimeRobotURL:  providerURL,
		BetterStackURL:  providerURL,
		InstatusBaseURL: providerURL,
	})

	router := NewRouter(Deps{
		Logger:   zap.NewNop(),
		Store:    st,
		Fetcher:  fetcher,
		Notifier: notify.NewDispatcher(),
		Config:   &config.Config{AllowedCORSOrigin: "*"},
	})
	return router, st
}

func getStatus(t *testing.T, router http.Handler, subdomain string) (*httptest.ResponseRecorder, statusResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/status/"+subdomain, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body statusResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestPublicStatusDemoOnly(t *testing.T) {
	router, st := newTestEnv(t, nil)
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		Name:       "Acme Status",
		MonitorIDs: []string{"demo-1", "demo-2"},
		Published:  true,
	})
	require.NoError(t, err)

	rec, body := getStatus(t, router, "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body.ProviderError, "a page with no API key renders without error")
	require.Len(t, body.Monitors, 2)
	assert.Equal(t, "Acme Status", body.Site.Name)
	assert.Equal(t, 2, body.KPIs.TotalMonitors)
}

func TestPublicStatusDegradesOnProviderFailure(t *testing.T) {
	router, st := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusTooManyRequests)
	}))
	now := int64(1700000000)
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		Provider:   model.ProviderUptimeRobot,
		APIKey:     "key",
		MonitorIDs: []string{"demo-1", "779548468"},
		ManualLogs: map[string][]model.LogEntry{
			"demo-1": {{Type: model.LogTypeDown, Datetime: now, Duration: 120}},
		},
		Published: true,
	})
	require.NoError(t, err)

	rec, body := getStatus(t, router, "acme")
	require.Equal(t, http.StatusOK, rec.Code, "provider failure must not fail the page")
	assert.Contains(t, body.ProviderError, "rate limited")

	// Demo and manual data survive.
	require.Len(t, body.Monitors, 1)
	require.Len(t, body.Monitors[0].Logs, 1)
	assert.Equal(t, 1, body.KPIs.Incidents)
}

func TestPublicStatusMergesProviderAndManualData(t *testing.T) {
	router, st := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stat": "ok",
			"monitors": []any{map[string]any{
				"id":                  779548468,
				"friendly_name":       "Main Site",
				"status":              2,
				"custom_uptime_ratio": "99.00",
				"logs": []any{
					map[string]any{"type": 1, "datetime": 100, "duration": 60},
				},
			}},
		})
	}))
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		Provider:   model.ProviderUptimeRobot,
		APIKey:     "key",
		MonitorIDs: []string{"779548468"},
		ManualLogs: map[string][]model.LogEntry{
			"779548468": {{Type: model.LogTypeDown, Datetime: 200, Duration: 30}},
		},
		Published: true,
	})
	require.NoError(t, err)

	rec, body := getStatus(t, router, "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body.ProviderError)
	require.Len(t, body.Monitors, 1)

	logs := body.Monitors[0].Logs
	require.Len(t, logs, 2)
	assert.Equal(t, int64(200), logs[0].Datetime, "manual log sorts newest-first into provider logs")
	assert.Equal(t, int64(100), logs[1].Datetime)
	assert.Equal(t, 2, body.KPIs.Incidents)
}

func TestPublicStatusUnpublishedIs404(t *testing.T) {
	router, st := newTestEnv(t, nil)
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		MonitorIDs: []string{"demo-1"},
		Published:  false,
	})
	require.NoError(t, err)

	rec, _ := getStatus(t, router, "acme")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = getStatus(t, router, "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardMonitorsUnsupportedProvider(t *testing.T) {
	router, st := newTestEnv(t, nil)
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		Provider:   "pingdom",
		APIKey:     "key",
		MonitorIDs: []string{"123"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/sites/s1/monitors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualLogLifecycle(t *testing.T) {
	router, st := newTestEnv(t, nil)
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		MonitorIDs: []string{"demo-1"},
		Published:  true,
	})
	require.NoError(t, err)

	payload, _ := json.Marshal(map[string]any{
		"monitorId": "demo-1",
		"type":      model.LogTypeDown,
		"datetime":  1700000000,
		"duration":  300,
		"reason":    map[string]any{"detail": "planned maintenance"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/sites/s1/logs", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec2, body := getStatus(t, router, "acme")
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Len(t, body.Monitors, 1)
	require.Len(t, body.Monitors[0].Logs, 1)
	assert.Equal(t, "planned maintenance", body.Monitors[0].Logs[0].Reason.Detail)
	assert.Equal(t, 1, body.KPIs.Incidents)
}

func TestCreateSiteSubdomainConflict(t *testing.T) {
	router, st := newTestEnv(t, nil)
	_, err := st.UpsertSite(model.Site{ID: "s1", Subdomain: "acme"})
	require.NoError(t, err)

	payload, _ := json.Marshal(map[string]any{"subdomain": "acme", "name": "Copycat"})
	req := httptest.NewRequest(http.MethodPost, "/api/sites", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// Reproduces a race between manual-log writes and status-page reads over the
// same site; run with -race.
func TestManualLogsConcurrentWithStatusReads(t *testing.T) {
	router, st := newTestEnv(t, nil)
	_, err := st.UpsertSite(model.Site{
		ID:         "s1",
		Subdomain:  "acme",
		MonitorIDs: []string{"demo-1"},
		ManualLogs: map[string][]model.LogEntry{
			"demo-1": {{Type: model.LogTypeDown, Datetime: 1700000000, Duration: 60}},
		},
		Published: true,
	})
	require.NoError(t, err)

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			payload, _ := json.Marshal(map[string]any{
				"monitorId": "demo-1",
				"type":      model.LogTypeDown,
				"datetime":  1700000000 + i,
				"duration":  30,
			})
			req := httptest.NewRequest(http.MethodPost, "/api/sites/s1/logs", bytes.NewReader(payload))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/status/acme", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
		}
	}()
	wg.Wait()

	site, ok := st.GetSite("s1")
	require.True(t, ok)
	assert.Len(t, site.ManualLogs["demo-1"], 1+rounds)
}
