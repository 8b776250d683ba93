// Package metrics holds the Prometheus instruments for scans and scoring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/sentinel/internal/contracts"
)

const namespace = "sentinel"

// Ticker outcome labels
const (
	OutcomeScored = "scored"
	OutcomeFailed = "failed"
	OutcomeCached = "cached"
)

// Registry holds all Prometheus metrics for sentinel
// ⭐ SSOT: 메트릭 정의는 여기서만
// Each Registry owns its prometheus.Registry so tests and commands never collide.
type Registry struct {
	reg *prometheus.Registry

	ScansTotal   prometheus.Counter
	ActiveScans  prometheus.Gauge
	ScanDuration prometheus.Histogram
	StepDuration *prometheus.HistogramVec

	Tickers     *prometheus.CounterVec
	RiskScores  prometheus.Histogram
	RiskLevels  *prometheus.CounterVec
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	MLAvailable prometheus.Gauge
}

// New creates a registry with all sentinel metrics plus Go runtime collectors
func New() *Registry {
	m := &Registry{
		reg: prometheus.NewRegistry(),

		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of batch scans started",
		}),
		ActiveScans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_scans",
			Help:      "Number of currently running scans",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a batch scan",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each per-ticker step",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"step", "result"}),

		Tickers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickers_total",
			Help:      "Tickers processed by outcome",
		}, []string{"outcome"}),
		RiskScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of final risk scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}),
		RiskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_level_total",
			Help:      "Assessments by risk level",
		}, []string{"level"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Assessment cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Assessment cache misses",
		}),
		MLAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ml_model_available",
			Help:      "1 when an outlier model is attached to the engine",
		}),
	}

	m.reg.MustRegister(
		m.ScansTotal, m.ActiveScans, m.ScanDuration, m.StepDuration,
		m.Tickers, m.RiskScores, m.RiskLevels,
		m.CacheHits, m.CacheMisses, m.MLAvailable,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Gatherer exposes the underlying registry (tests, custom handlers)
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.reg
}

// Handler returns an HTTP handler for this registry
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// StepTimer measures one step duration
type StepTimer struct {
	hist  *prometheus.HistogramVec
	step  string
	start time.Time
}

// StartStep begins timing a step
func (m *Registry) StartStep(step string) *StepTimer {
	return &StepTimer{hist: m.StepDuration, step: step, start: time.Now()}
}

// Stop records the duration under result ("ok" / "error")
func (t *StepTimer) Stop(result string) {
	t.hist.WithLabelValues(t.step, result).Observe(time.Since(t.start).Seconds())
}

// ScanStarted marks a scan in flight
func (m *Registry) ScanStarted() {
	m.ScansTotal.Inc()
	m.ActiveScans.Inc()
}

// ScanFinished records a completed scan
func (m *Registry) ScanFinished(d time.Duration) {
	m.ActiveScans.Dec()
	m.ScanDuration.Observe(d.Seconds())
}

// ObserveAssessment records one scored ticker
func (m *Registry) ObserveAssessment(a *contracts.RiskAssessment, cached bool) {
	if cached {
		m.Tickers.WithLabelValues(OutcomeCached).Inc()
	} else {
		m.Tickers.WithLabelValues(OutcomeScored).Inc()
	}
	m.RiskScores.Observe(float64(a.RiskScore))
	m.RiskLevels.WithLabelValues(string(a.RiskLevel)).Inc()
}

// ObserveFailure records one failed ticker
func (m *Registry) ObserveFailure() {
	m.Tickers.WithLabelValues(OutcomeFailed).Inc()
}

// SetMLAvailable sets the model availability gauge
func (m *Registry) SetMLAvailable(ok bool) {
	if ok {
		m.MLAvailable.Set(1)
		return
	}
	m.MLAvailable.Set(0)
}
