package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func TestRegistry_Observe(t *testing.T) {
	m := New()

	m.ScanStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveScans))

	m.ObserveAssessment(&contracts.RiskAssessment{RiskScore: 83, RiskLevel: contracts.RiskExtreme}, false)
	m.ObserveAssessment(&contracts.RiskAssessment{RiskScore: 5, RiskLevel: contracts.RiskMinimal}, true)
	m.ObserveFailure()
	m.SetMLAvailable(true)
	m.StartStep("score").Stop("ok")
	m.ScanFinished(2 * time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveScans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues(OutcomeScored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues(OutcomeCached)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickers.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskLevels.WithLabelValues("EXTREME")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MLAvailable))

	m.SetMLAvailable(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MLAvailable))
}

func TestRegistry_Handler(t *testing.T) {
	m := New()
	m.ScanStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "sentinel_scans_total 1"))
	assert.Contains(t, body, "go_goroutines")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ScanStarted()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ScansTotal))
}
