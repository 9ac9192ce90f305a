package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/recession-dashboard/internal/config"
	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/forecast/forecasttest"
)

func testConfig(dir string) config.Config {
	return config.Config{
		Port:           8080,
		PortAttempts:   1,
		PayloadPath:    filepath.Join(dir, "payload.json"),
		DatabasePath:   filepath.Join(dir, "views.db"),
		WatchDebounce:  50 * time.Millisecond,
		RateLimit:      100,
		RateBurst:      100,
		AllowedOrigins: []string{"*"},
		Version:        "test",
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()

	s, err := New(cfg, forecast.NewStore())
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop() })
	return s
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewLoadsPayload(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())

	s := newTestServer(t, cfg)

	w := do(s, "GET", "/api/dashboard")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, "GET", "/api/payload/status")
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, true, status["loaded"])
	assert.Equal(t, "2025-02-28", status["lastUpdated"])
	assert.Equal(t, cfg.PayloadPath, status["path"])
	assert.Equal(t, false, status["watching"])
}

func TestNewMissingPayloadWithoutWatchFails(t *testing.T) {
	_, err := New(testConfig(t.TempDir()), forecast.NewStore())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewInvalidPayloadFails(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Watch = true
	require.NoError(t, os.WriteFile(cfg.PayloadPath, []byte(`{"lastUpdated":"2025-02-28"}`), 0644))

	_, err := New(cfg, forecast.NewStore())
	assert.ErrorIs(t, err, forecast.ErrInvalidPayload)
}

func TestMissingPayloadServesLoadingState(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Watch = true

	s := newTestServer(t, cfg)

	w := do(s, "GET", "/api/projection/current")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(s, "GET", "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, "POST", "/api/payload/reload")
	assert.Equal(t, http.StatusNotFound, w.Code)

	forecasttest.WriteJSON(t, filepath.Dir(cfg.PayloadPath), "payload.json", forecasttest.Payload())
	w = do(s, "POST", "/api/payload/reload")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, "GET", "/api/projection/current")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReloadKeepsPayloadOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())
	s := newTestServer(t, cfg)

	require.NoError(t, os.WriteFile(cfg.PayloadPath, []byte(`{"models":[]}`), 0644))

	w := do(s, "POST", "/api/payload/reload")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(s, "GET", "/api/models")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSHeaders(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.AllowedOrigins = []string{"http://dashboard.test"}
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/api/models", nil)
	req.Header.Set("Origin", "http://dashboard.test")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://dashboard.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.RateLimit = 1
	cfg.RateBurst = 2
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())
	s := newTestServer(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(s, "GET", "/api/health").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecoversFromPanic(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())
	s := newTestServer(t, cfg)

	s.router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := do(s, "GET", "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStaticSPAFallback(t *testing.T) {
	dir := t.TempDir()
	static := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(static, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>dashboard</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log(1)"), 0644))

	cfg := testConfig(dir)
	cfg.StaticDir = static
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())
	s := newTestServer(t, cfg)

	w := do(s, "GET", "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = do(s, "GET", "/views/saved/123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard")

	w = do(s, "GET", "/api/health")
	assert.Contains(t, w.Body.String(), "ok")
}

func TestViewsDisabledWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.DatabasePath = ""
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())
	s := newTestServer(t, cfg)

	w := do(s, "GET", "/api/views")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStopWithoutStart(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Watch = true
	forecasttest.WriteJSON(t, dir, "payload.json", forecasttest.Payload())

	s, err := New(cfg, forecast.NewStore())
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}
