package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/diet-planner/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, method, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/v1/calculator", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_SecondRequestReturns429(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	require.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "1.2.3.4:12345").Code)

	rr := hit(handler, http.MethodGet, "1.2.3.4:12345")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error.Code)
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{}, okHandler())
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "1.2.3.4:12345").Code, "request %d", i)
	}
}

func TestRateLimit_DifferentIPsIndependent(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "1.2.3.4:1").Code)
	assert.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "5.6.7.8:1").Code)
}

func TestRateLimit_PreflightNotCounted(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, http.MethodOptions, "1.2.3.4:1").Code)
	}
	assert.Equal(t, http.StatusOK, hit(handler, http.MethodGet, "1.2.3.4:1").Code)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"remote addr", "", "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "10.0.0.1:5555", "203.0.113.7"},
		{"forwarded single", " 198.51.100.2 ", "10.0.0.1:5555", "198.51.100.2"},
		{"bad remote addr", "", "garbage", "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}

func TestRateLimiterStoreCleanupDropsIdle(t *testing.T) {
	store := newRateLimiterStore(1000, 5)
	for i := 0; i < cleanupEvery-1; i++ {
		store.getLimiter("1.1.1.1")
	}
	assert.Equal(t, 1, store.size())

	// the 1000th lookup triggers a sweep; a fresh limiter has a full bucket
	store.getLimiter("2.2.2.2")
	assert.Equal(t, 0, store.size())
}
