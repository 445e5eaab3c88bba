package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/cable-exports/internal/config"
)

func echoRemoteAddr() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.RemoteAddr))
	})
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted proxy keeps remote addr",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.7:5555",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "203.0.113.7:5555",
		},
		{
			name:    "trusted proxy uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5555",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "198.51.100.1",
		},
		{
			name:    "trusted bare IP uses first forwarded hop",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5555",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"},
			want:    "198.51.100.2",
		},
		{
			name:    "invalid header ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5555",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:5555",
		},
		{
			name:    "no trusted proxies",
			trusted: nil,
			remote:  "10.1.2.3:5555",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "10.1.2.3:5555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			TrustedRealIP(tt.trusted)(echoRemoteAddr()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name string
		cfg  config.SecurityConfig
		key  string
		want int
	}{
		{"auth disabled", config.SecurityConfig{}, "", http.StatusNoContent},
		{"missing key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "", http.StatusUnauthorized},
		{"wrong key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, "k2", http.StatusForbidden},
		{"valid key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, "k2", http.StatusNoContent},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "k1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cache/invalidate", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()

			APIKeyAuth(&tt.cfg)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestResponseWriter_CountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	ww.Write([]byte("abc"))
	ww.Write([]byte("de"))
	ww.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, 5, ww.bytes)
	assert.Equal(t, http.StatusOK, ww.status)
	assert.Equal(t, http.StatusOK, rec.Code)
}
