package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusCreated, map[string]int{"count": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, w.Body.String())
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondError(w, http.StatusBadRequest, "unknown horizon")

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown horizon", body["error"])
}

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// Other clients have their own bucket
	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	l := NewRateLimiter(5, 5)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Len(t, l.clients, 2)

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("c")
	assert.Len(t, l.clients, 1)
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter(0, 0)
	assert.False(t, l.Enabled())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := l.Middleware(next)
	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	l := NewRateLimiter(0.5, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := l.Middleware(next)

	req := httptest.NewRequest("GET", "/api/models", nil)
	req.RemoteAddr = "192.0.2.7:5000"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
