// Package store persists scan runs and risk assessments in Postgres.
package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/sentinel/internal/contracts"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the market and sentinel schemas when missing
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// AssessmentRepository implements contracts.AssessmentRepository and contracts.ScanRunRepository
// ⭐ SSOT: 리스크 평가 저장은 여기서만
type AssessmentRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewAssessmentRepository creates a new repository
func NewAssessmentRepository(pool *pgxpool.Pool, log zerolog.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		pool: pool,
		log:  log.With().Str("component", "store.assessments").Logger(),
	}
}

const insertAssessment = `
	INSERT INTO sentinel.risk_assessments (
		run_id, ticker, as_of, risk_score, risk_level, is_suspicious,
		volume_score, price_score, ml_score, ml_enabled,
		red_flags, explanation, payload, assessed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (run_id, ticker) DO UPDATE SET
		risk_score = EXCLUDED.risk_score,
		risk_level = EXCLUDED.risk_level,
		is_suspicious = EXCLUDED.is_suspicious,
		payload = EXCLUDED.payload,
		assessed_at = EXCLUDED.assessed_at
`

// Save stores one assessment under a run
func (r *AssessmentRepository) Save(ctx context.Context, runID string, a *contracts.RiskAssessment) error {
	args, err := assessmentArgs(runID, a)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, insertAssessment, args...); err != nil {
		return fmt.Errorf("insert assessment %s: %w", a.Ticker, err)
	}
	return nil
}

// SaveBatch stores assessments in one round trip
func (r *AssessmentRepository) SaveBatch(ctx context.Context, runID string, assessments []*contracts.RiskAssessment) error {
	if len(assessments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range assessments {
		args, err := assessmentArgs(runID, a)
		if err != nil {
			return err
		}
		batch.Queue(insertAssessment, args...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, a := range assessments {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert assessment %s: %w", a.Ticker, err)
		}
	}

	r.log.Debug().Str("run_id", runID).Int("count", len(assessments)).Msg("assessments saved")
	return nil
}

// GetLatest returns the most recent assessment for a ticker
func (r *AssessmentRepository) GetLatest(ctx context.Context, ticker string) (*contracts.RiskAssessment, error) {
	query := `
		SELECT payload
		FROM sentinel.risk_assessments
		WHERE ticker = $1
		ORDER BY assessed_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, strings.ToUpper(ticker)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", ticker, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query assessment %s: %w", ticker, err)
	}

	var a contracts.RiskAssessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", ticker, err)
	}
	return &a, nil
}

// SaveRun records a scan run summary
func (r *AssessmentRepository) SaveRun(ctx context.Context, run contracts.ScanRun) error {
	query := `
		INSERT INTO sentinel.scan_runs (
			run_id, config_hash, ml_enabled, tickers, scored, failed,
			cache_hits, high_risk, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.ConfigHash, run.MLEnabled, run.Tickers, run.Scored, run.Failed,
		run.CacheHits, run.HighRisk, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan run %s: %w", run.ID, err)
	}
	return nil
}

// assessmentArgs flattens an assessment into insertAssessment parameters
// The full assessment is kept as JSONB so GetLatest can rebuild it.
func assessmentArgs(runID string, a *contracts.RiskAssessment) ([]any, error) {
	if a == nil {
		return nil, errors.New("nil assessment")
	}

	flags := a.RedFlags
	if flags == nil {
		flags = []string{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("marshal red flags: %w", err)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment %s: %w", a.Ticker, err)
	}

	return []any{
		runID,
		strings.ToUpper(a.Ticker),
		a.AsOf,
		a.RiskScore,
		string(a.RiskLevel),
		a.IsSuspicious,
		a.IndividualScores.Volume,
		a.IndividualScores.Price,
		a.IndividualScores.ML,
		a.MLStatus.Enabled,
		flagsJSON,
		a.Explanation,
		payload,
		a.AssessedAt,
	}, nil
}
