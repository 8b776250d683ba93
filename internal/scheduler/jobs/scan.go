package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/sentinel/internal/risk"
	"github.com/wonny/sentinel/internal/scan"
	"github.com/wonny/sentinel/pkg/logger"
)

// Scanner runs one watchlist scan; *scan.Scanner satisfies it
type Scanner interface {
	Scan(ctx context.Context, tickers []string) (*scan.Result, error)
}

// TickerSource resolves the watchlist at run time
type TickerSource func(ctx context.Context) ([]string, error)

// StaticTickers returns a fixed watchlist
func StaticTickers(tickers ...string) TickerSource {
	return func(context.Context) ([]string, error) {
		return tickers, nil
	}
}

// ScanJob scans the watchlist and logs an alert per high-risk ticker
// ⭐ SSOT: 주기적 리스크 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	schedule string
	scanner  Scanner
	tickers  TickerSource
	logger   *logger.Logger

	mu   sync.RWMutex
	last *scan.Result
}

// NewScanJob creates a scan job
func NewScanJob(schedule string, scanner Scanner, tickers TickerSource, log *logger.Logger) *ScanJob {
	return &ScanJob{
		schedule: schedule,
		scanner:  scanner,
		tickers:  tickers,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "risk_scan"
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan
func (j *ScanJob) Run(ctx context.Context) error {
	tickers, err := j.tickers(ctx)
	if err != nil {
		return fmt.Errorf("resolve tickers: %w", err)
	}
	if len(tickers) == 0 {
		j.logger.Warn("Watchlist is empty, skipping scan")
		return nil
	}

	result, err := j.scanner.Scan(ctx, tickers)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	for _, a := range result.HighRisk {
		j.logger.WithFields(map[string]any{
			"ticker":     a.Ticker,
			"risk_score": a.RiskScore,
			"risk_level": a.RiskLevel,
		}).Warn(risk.FormatAlert(a))
	}

	j.logger.WithFields(map[string]any{
		"run_id":    result.Run.ID,
		"scored":    result.Run.Scored,
		"failed":    result.Run.Failed,
		"high_risk": result.Run.HighRisk,
	}).Info("Scheduled scan completed")

	return nil
}

// LastResult returns the most recent successful scan, nil before the first
func (j *ScanJob) LastResult() *scan.Result {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
