package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAPIKeyAuth_Middleware(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"secret-key", ""})
	protected := auth.Middleware(okHandler())

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "missing key",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong key",
			setup: func(r *http.Request) {
				r.Header.Set("X-API-Key", "nope")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "empty key never valid",
			setup: func(r *http.Request) {
				r.Header.Set("X-API-Key", "")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "header key",
			setup: func(r *http.Request) {
				r.Header.Set("X-API-Key", "secret-key")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bearer scheme",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer secret-key")
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAPIKeyAuth_KeyRotation(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"old-key"})
	require.True(t, auth.IsValid("old-key"))

	auth.AddKey("new-key")
	auth.RemoveKey("old-key")

	assert.False(t, auth.IsValid("old-key"))
	assert.True(t, auth.IsValid("new-key"))
}

func TestTimeoutMiddleware_SlowHandlerTimesOut(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	h := TimeoutMiddleware(20 * time.Millisecond)(slow)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/rescore", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}

func TestTimeoutMiddleware_FastHandlerPassesThrough(t *testing.T) {
	h := TimeoutMiddleware(time.Second)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var maxErr *http.MaxBytesError
		if _, err := io.ReadAll(r.Body); errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := RequestSizeLimitMiddleware(16)(echo)

	t.Run("declared length over limit rejected early", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("undeclared oversized body stopped at read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
		req.ContentLength = -1 // chunked upload, length unknown up front
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("small body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
