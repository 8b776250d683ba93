// Package scan runs the risk engine over a watchlist of tickers.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/risk"
	"github.com/wonny/sentinel/pkg/metrics"
	"github.com/wonny/sentinel/pkg/redis"
)

// ErrNoPriceData is recorded for a ticker whose fetch returned no bars
var ErrNoPriceData = errors.New("no price data")

// Scorer scores one ticker in isolation; *risk.Engine satisfies it
type Scorer interface {
	ScoreItem(ticker string, s contracts.PriceSeries) contracts.BatchItem
	MLEnabled() bool
}

// Options holds scan pacing and thresholds
type Options struct {
	Concurrency       int           // parallel tickers
	RatePerSec        float64       // price fetches per second
	HistoryDays       int           // calendar days of history per ticker
	HighRiskThreshold int           // minimum score listed in Result.HighRisk
	CacheTTL          time.Duration // 0 disables cache writes
	ConfigHash        string        // part of the cache key and the run record
}

// DefaultOptions returns 4 workers, 20 fetches/s, 120 days, threshold 60
func DefaultOptions() Options {
	return Options{
		Concurrency:       4,
		RatePerSec:        20,
		HistoryDays:       120,
		HighRiskThreshold: 60,
		CacheTTL:          redis.TTLMedium,
	}
}

// Option configures a Scanner
type Option func(*Scanner)

// WithCache reuses assessments for an unchanged last bar
func WithCache(c *redis.Cache) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithStore persists assessments and the run summary
func WithStore(assessments contracts.AssessmentRepository, runs contracts.ScanRunRepository) Option {
	return func(s *Scanner) {
		s.assessments = assessments
		s.runs = runs
	}
}

// WithMetrics records scan metrics
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock overrides the scan end date source
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// Scanner fetches series, scores them and collects the outcome
// ⭐ SSOT: 배치 스캔 오케스트레이션은 여기서만
type Scanner struct {
	prices      contracts.PriceRepository
	engine      Scorer
	opts        Options
	limiter     *rate.Limiter
	cache       *redis.Cache
	assessments contracts.AssessmentRepository
	runs        contracts.ScanRunRepository
	metrics     *metrics.Registry
	now         func() time.Time
	log         zerolog.Logger
}

// NewScanner creates a scanner; zero option fields fall back to DefaultOptions
func NewScanner(prices contracts.PriceRepository, engine Scorer, opts Options, log zerolog.Logger, options ...Option) *Scanner {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = def.RatePerSec
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = def.HistoryDays
	}

	s := &Scanner{
		prices:  prices,
		engine:  engine,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), max(1, int(opts.RatePerSec))),
		now:     time.Now,
		log:     log.With().Str("component", "scan.scanner").Logger(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Result is the outcome of one scan
type Result struct {
	Run      contracts.ScanRun
	Items    []contracts.BatchItem       // sorted by ticker
	HighRisk []*contracts.RiskAssessment // score >= threshold, highest first
}

// Assessments returns the successful assessments in ticker order
func (r *Result) Assessments() []*contracts.RiskAssessment {
	out := make([]*contracts.RiskAssessment, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Err == nil && it.Assessment != nil {
			out = append(out, it.Assessment)
		}
	}
	return out
}

// Scan scores every ticker
// Per-ticker failures land in the item; only cancellation and persistence errors fail the scan.
func (s *Scanner) Scan(ctx context.Context, tickers []string) (*Result, error) {
	tickers = normalize(tickers)
	run := contracts.ScanRun{
		ID:         uuid.NewString(),
		ConfigHash: s.opts.ConfigHash,
		MLEnabled:  s.engine.MLEnabled(),
		Tickers:    len(tickers),
		StartedAt:  s.now().UTC(),
	}

	if s.metrics != nil {
		s.metrics.ScanStarted()
		s.metrics.SetMLAvailable(run.MLEnabled)
	}

	to := run.StartedAt
	from := to.AddDate(0, 0, -s.opts.HistoryDays)

	s.log.Info().
		Str("run_id", run.ID).
		Int("tickers", len(tickers)).
		Int("concurrency", s.opts.Concurrency).
		Str("from", from.Format("2006-01-02")).
		Str("to", to.Format("2006-01-02")).
		Msg("scan started")

	items := make([]contracts.BatchItem, len(tickers))
	cached := make([]bool, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			items[i], cached[i] = s.scanOne(gctx, ticker, from, to)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		s.finish(&run)
		return nil, fmt.Errorf("scan %s: %w", run.ID, err)
	}

	for i, it := range items {
		switch {
		case it.Err != nil:
			run.Failed++
		case cached[i]:
			run.CacheHits++
			run.Scored++
		default:
			run.Scored++
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Ticker < items[j].Ticker })
	result := &Result{
		Items:    items,
		HighRisk: risk.HighRiskStocks(items, s.opts.HighRiskThreshold),
	}
	run.HighRisk = len(result.HighRisk)
	s.finish(&run)
	result.Run = run

	if err := s.persist(ctx, result); err != nil {
		return result, err
	}

	s.log.Info().
		Str("run_id", run.ID).
		Int("scored", run.Scored).
		Int("failed", run.Failed).
		Int("cache_hits", run.CacheHits).
		Int("high_risk", run.HighRisk).
		Dur("duration", run.Duration()).
		Msg("scan finished")

	return result, nil
}

// scanOne fetches, looks up the cache and scores one ticker
func (s *Scanner) scanOne(ctx context.Context, ticker string, from, to time.Time) (contracts.BatchItem, bool) {
	item := contracts.BatchItem{Ticker: ticker}

	series, err := s.fetch(ctx, ticker, from, to)
	if err != nil {
		item.Err = err
		s.observeFailure(ticker, err)
		return item, false
	}

	key := redis.AssessmentKey(s.opts.ConfigHash, ticker, series.Last().Date)
	if s.cache != nil {
		var a contracts.RiskAssessment
		found, err := s.cache.Get(ctx, key, &a)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("cache read failed")
		}
		if found {
			item.Assessment = &a
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
				s.metrics.ObserveAssessment(&a, true)
			}
			return item, true
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
	}

	timer := s.startStep("score")
	item = s.engine.ScoreItem(ticker, series)
	if item.Err != nil {
		timer.stop("error")
		s.observeFailure(ticker, item.Err)
		return item, false
	}
	timer.stop("ok")

	if s.metrics != nil {
		s.metrics.ObserveAssessment(item.Assessment, false)
	}
	if s.cache != nil && s.opts.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, item.Assessment, s.opts.CacheTTL); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("cache write failed")
		}
	}
	return item, false
}

func (s *Scanner) fetch(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error) {
	timer := s.startStep("fetch")
	series, err := s.prices.GetSeries(ctx, ticker, from, to)
	if err != nil {
		timer.stop("error")
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	timer.stop("ok")

	if series.Len() == 0 {
		return nil, fmt.Errorf("fetch %s: %w", ticker, ErrNoPriceData)
	}
	return series, nil
}

func (s *Scanner) persist(ctx context.Context, r *Result) error {
	if s.assessments != nil {
		if err := s.assessments.SaveBatch(ctx, r.Run.ID, r.Assessments()); err != nil {
			return fmt.Errorf("save assessments: %w", err)
		}
	}
	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, r.Run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	return nil
}

func (s *Scanner) finish(run *contracts.ScanRun) {
	run.FinishedAt = s.now().UTC()
	if s.metrics != nil {
		s.metrics.ScanFinished(run.Duration())
	}
}

func (s *Scanner) observeFailure(ticker string, err error) {
	s.log.Warn().Err(err).Str("ticker", ticker).Msg("ticker failed")
	if s.metrics != nil {
		s.metrics.ObserveFailure()
	}
}

// stepTimer tolerates a scanner without metrics
type stepTimer struct {
	t *metrics.StepTimer
}

func (s *Scanner) startStep(step string) stepTimer {
	if s.metrics == nil {
		return stepTimer{}
	}
	return stepTimer{t: s.metrics.StartStep(step)}
}

func (t stepTimer) stop(result string) {
	if t.t != nil {
		t.t.Stop(result)
	}
}

// normalize upper-cases, trims and de-duplicates tickers
func normalize(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
