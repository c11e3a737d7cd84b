package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winspan/xraysync/internal/geodata"
	"github.com/winspan/xraysync/internal/history"
	"github.com/winspan/xraysync/pkg/config"
)

type apiFixture struct {
	srv   *httptest.Server
	mgr   *geodata.SyncManager
	store *history.Store
}

func newAPIFixture(t *testing.T, token string, checker func(ctx context.Context) error) *apiFixture {
	t.Helper()

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rules"))
	}))
	t.Cleanup(remote.Close)

	specs := []geodata.ArtifactSpec{{Name: "geoip.dat", URL: remote.URL + "/geoip.dat", Path: "geoip.dat"}}
	rec := geodata.NewReconciler(
		geodata.NewLocalTarget(t.TempDir()),
		geodata.NewFetcher(0),
		geodata.RestarterFunc(func(ctx context.Context) error { return nil }),
		nil,
	)
	mgr := geodata.NewSyncManager(rec, specs, time.Hour, nil)

	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), 50)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	mgr.SetRecorder(store)

	cfg := &config.Config{}
	cfg.Admin.Token = token
	cfg.Monitoring.Enabled = true
	cfg.Monitoring.Path = "/metrics"

	r := chi.NewRouter()
	BindRoutes(r, mgr, store, checker, cfg)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &apiFixture{srv: srv, mgr: mgr, store: store}
}

func (f *apiFixture) request(t *testing.T, method, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t, "", nil)

	resp, body := f.request(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthEndpoint_DegradedWhenCheckerFails(t *testing.T) {
	f := newAPIFixture(t, "", func(ctx context.Context) error {
		return errors.New("dns not answering")
	})

	resp, body := f.request(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "dns not answering", body["service"])
}

func TestAuth_RejectsMissingAndWrongToken(t *testing.T) {
	f := newAPIFixture(t, "s3cret", nil)

	resp, _ := f.request(t, http.MethodGet, "/api/sync/status", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.request(t, http.MethodGet, "/api/sync/status", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.request(t, http.MethodGet, "/api/sync/status", "s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_EmptyTokenDisablesCheck(t *testing.T) {
	f := newAPIFixture(t, "", nil)

	resp, _ := f.request(t, http.MethodGet, "/api/sync/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSyncNowEndpoint(t *testing.T) {
	f := newAPIFixture(t, "", nil)

	resp, body := f.request(t, http.MethodPost, "/api/sync/now", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	artifacts, ok := body["artifacts"].(map[string]interface{})
	require.True(t, ok)
	entry, ok := artifacts["geoip.dat"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(geodata.OutcomeApplied), entry["outcome"])
	assert.Equal(t, string(geodata.RestartSucceeded), body["restart"])
}

func TestSyncHistoryEndpoint(t *testing.T) {
	f := newAPIFixture(t, "", nil)

	_, err := f.mgr.SyncNow(context.Background())
	require.NoError(t, err)

	resp, body := f.request(t, http.MethodGet, "/api/sync/history?limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
}

func TestMetricsEndpointMounted(t *testing.T) {
	f := newAPIFixture(t, "", nil)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
