package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fdg312/diet-planner/internal/config"
)

func TestCORSMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name            string
		origins         []string
		credentials     bool
		method          string
		origin          string
		wantCode        int
		wantAllowOrigin string
		wantMethods     bool
		wantCredentials bool
	}{
		{
			name:            "preflight allowed origin",
			origins:         []string{"https://app.example.com"},
			method:          http.MethodOptions,
			origin:          "https://app.example.com",
			wantCode:        http.StatusNoContent,
			wantAllowOrigin: "https://app.example.com",
			wantMethods:     true,
		},
		{
			name:     "preflight disallowed origin",
			origins:  []string{"https://app.example.com"},
			method:   http.MethodOptions,
			origin:   "https://evil.com",
			wantCode: http.StatusNoContent,
		},
		{
			name:     "normal request disallowed origin",
			origins:  []string{"https://app.example.com"},
			method:   http.MethodGet,
			origin:   "https://evil.com",
			wantCode: http.StatusOK,
		},
		{
			name:            "normal request allowed origin with credentials",
			origins:         []string{"https://app.example.com"},
			credentials:     true,
			method:          http.MethodPut,
			origin:          "https://app.example.com",
			wantCode:        http.StatusOK,
			wantAllowOrigin: "https://app.example.com",
			wantCredentials: true,
		},
		{
			name:            "wildcard",
			origins:         []string{"*"},
			method:          http.MethodGet,
			origin:          "http://localhost:5173",
			wantCode:        http.StatusOK,
			wantAllowOrigin: "http://localhost:5173",
		},
		{
			name:     "no origin header",
			origins:  []string{"https://app.example.com"},
			method:   http.MethodGet,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{CORSAllowedOrigins: tt.origins, CORSAllowCredentials: tt.credentials}
			handler := CORSMiddleware(cfg, okHandler)

			req := httptest.NewRequest(tt.method, "/v1/plans/japan", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantAllowOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantMethods {
				assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PUT")
				assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
			}
			if tt.wantCredentials {
				assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}
