package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/middleware"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("listed origin is echoed", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://app.example", " https://admin.example "})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Origin", "https://admin.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "https://admin.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://app.example"})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no configuration allows any origin", func(t *testing.T) {
		handler := middleware.CORSMiddleware(nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anything.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		handler := middleware.CORSMiddleware(nil)(okHandler())

		req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := middleware.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestLoggingAndObservabilityPassThrough(t *testing.T) {
	handler := middleware.LoggingMiddleware(middleware.ObservabilityMiddleware(nil)(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := middleware.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	}))

	t.Run("mints an id when none is sent", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("echoes the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.Header.Set(middleware.RequestIDHeader, "miniapp-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "miniapp-42", seen)
		assert.Equal(t, "miniapp-42", w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Len(t, seen, 36)
	})
}

func TestObservabilityMiddleware_TagsRoutedResource(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = observability.NewLogger(&buf, "volunteer-api", "test")
	t.Cleanup(func() { log.Logger = prev })

	mux := http.NewServeMux()
	mux.Handle("PUT /api/sessions/{id}/end", middleware.ObservabilityMiddleware(nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			observability.LoggerFromContext(r.Context()).Warn().Msg("closing")
			w.WriteHeader(http.StatusConflict)
		}),
	))
	handler := middleware.RequestIDMiddleware(mux)

	req := httptest.NewRequest(http.MethodPut, "/api/sessions/session-7/end", nil)
	req.Header.Set(middleware.RequestIDHeader, "corr-7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session-7", line["session_id"])
	assert.Equal(t, "corr-7", line["correlation_id"])
}
