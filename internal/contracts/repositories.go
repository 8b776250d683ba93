package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a lookup matches nothing
var ErrNotFound = errors.New("not found")

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// PriceRepository supplies daily OHLCV series
// Implementations guarantee ascending dates, numeric values and no zero-volume rows.
type PriceRepository interface {
	GetSeries(ctx context.Context, ticker string, from, to time.Time) (PriceSeries, error)
}

// AssessmentRepository persists risk assessments produced by a scan run
type AssessmentRepository interface {
	Save(ctx context.Context, runID string, assessment *RiskAssessment) error
	SaveBatch(ctx context.Context, runID string, assessments []*RiskAssessment) error
	GetLatest(ctx context.Context, ticker string) (*RiskAssessment, error)
}

// ScanRunRepository records scan run summaries
type ScanRunRepository interface {
	SaveRun(ctx context.Context, run ScanRun) error
}
