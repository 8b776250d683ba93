package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/pkg/logger"
	"github.com/wonny/sentinel/pkg/metrics"
)

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		health     HealthFunc
		wantCode   int
		wantStatus string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{
			"healthy",
			func(ctx context.Context) (map[string]any, error) {
				return map[string]any{"ml_enabled": true}, nil
			},
			http.StatusOK, "ok",
		},
		{
			"unhealthy",
			func(ctx context.Context) (map[string]any, error) {
				return nil, errors.New("database unreachable")
			},
			http.StatusServiceUnavailable, "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.health, nil, logger.Nop())
			rec, body := get(t, r, "/health")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.ScanStarted()

	r := NewRouter(nil, m.Handler(), logger.Nop())
	rec, _ := get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sentinel_active_scans 1")

	rec, _ = get(t, NewRouter(nil, nil, logger.Nop()), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	boom := func(ctx context.Context) (map[string]any, error) { panic("boom") }

	rec, body := get(t, NewRouter(boom, nil, logger.Nop()), "/health")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}
