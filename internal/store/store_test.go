package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
)

func sampleAssessment() *contracts.RiskAssessment {
	return &contracts.RiskAssessment{
		Ticker:       "gme",
		RiskScore:    83,
		RiskLevel:    contracts.RiskExtreme,
		IsSuspicious: true,
		IndividualScores: contracts.IndividualScores{
			Volume: 100,
			Price:  95,
		},
		MLStatus:       contracts.MLStatus{Error: "ML model not enabled"},
		Explanation:    "Trading volume is 18.99x above normal",
		Recommendation: "⛔ DO NOT BUY",
		Details:        map[string]any{"volume": map[string]any{"risk_score": 100}},
		AsOf:           time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC),
		AssessedAt:     time.Date(2024, 2, 9, 18, 0, 0, 0, time.UTC),
	}
}

func TestAssessmentArgs(t *testing.T) {
	a := sampleAssessment()

	args, err := assessmentArgs("run-1", a)
	require.NoError(t, err)
	require.Len(t, args, 14)

	assert.Equal(t, "run-1", args[0])
	assert.Equal(t, "GME", args[1])
	assert.Equal(t, 83, args[3])
	assert.Equal(t, "EXTREME", args[4])
	assert.Equal(t, []byte("[]"), args[10], "nil red flags stored as empty array")

	var decoded contracts.RiskAssessment
	require.NoError(t, json.Unmarshal(args[12].([]byte), &decoded))
	assert.Equal(t, a.RiskScore, decoded.RiskScore)
	assert.Equal(t, a.AsOf, decoded.AsOf)

	_, err = assessmentArgs("run-1", nil)
	assert.Error(t, err)
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS sentinel.risk_assessments")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS market.daily_prices")
}

func TestAssessmentRepository_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool))

	repo := NewAssessmentRepository(pool, zerolog.Nop())
	runID := uuid.NewString()
	a := sampleAssessment()
	a.Ticker = "ZZSTORE"

	require.NoError(t, repo.SaveBatch(ctx, runID, []*contracts.RiskAssessment{a}))
	require.NoError(t, repo.SaveRun(ctx, contracts.ScanRun{
		ID: runID, ConfigHash: "abc", Tickers: 1, Scored: 1,
		StartedAt: a.AssessedAt, FinishedAt: a.AssessedAt.Add(time.Second),
	}))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM sentinel.risk_assessments WHERE run_id = $1`, runID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM sentinel.scan_runs WHERE run_id = $1`, runID)
	})

	got, err := repo.GetLatest(ctx, "zzstore")
	require.NoError(t, err)
	assert.Equal(t, 83, got.RiskScore)

	_, err = repo.GetLatest(ctx, "ZZ_NEVER_SCANNED")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
