package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/scan"
	"github.com/wonny/sentinel/pkg/config"
	"github.com/wonny/sentinel/pkg/logger"
)

type fakeScanner struct {
	got    []string
	result *scan.Result
	err    error
}

func (f *fakeScanner) Scan(ctx context.Context, tickers []string) (*scan.Result, error) {
	f.got = tickers
	return f.result, f.err
}

func newBufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&config.Config{LogLevel: "info", LogFormat: "json"}, buf)
}

func TestScanJob_Run(t *testing.T) {
	high := &contracts.RiskAssessment{
		Ticker:    "GME",
		RiskScore: 86,
		RiskLevel: contracts.RiskExtreme,
		RedFlags:  []string{"Volume spike: 19.0x average"},
	}
	scanner := &fakeScanner{result: &scan.Result{
		Run:      contracts.ScanRun{ID: "run-1", Tickers: 2, Scored: 2, HighRisk: 1},
		HighRisk: []*contracts.RiskAssessment{high},
	}}

	var buf bytes.Buffer
	job := NewScanJob("0 */15 * * * *", scanner, StaticTickers("GME", "AMC"), newBufferLogger(&buf))

	assert.Equal(t, "risk_scan", job.Name())
	assert.Equal(t, "0 */15 * * * *", job.Schedule())
	assert.Nil(t, job.LastResult())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"GME", "AMC"}, scanner.got)
	require.NotNil(t, job.LastResult())
	assert.Equal(t, "run-1", job.LastResult().Run.ID)

	out := buf.String()
	assert.Contains(t, out, `"ticker":"GME"`)
	assert.Contains(t, out, "Risk Score: 86/100")
	assert.Contains(t, out, "Scheduled scan completed")
}

func TestScanJob_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tickers TickerSource
		scanErr error
		wantErr string
	}{
		{
			name:    "ticker source fails",
			tickers: func(context.Context) ([]string, error) { return nil, errors.New("db down") },
			wantErr: "resolve tickers: db down",
		},
		{
			name:    "scan fails",
			tickers: StaticTickers("GME"),
			scanErr: context.Canceled,
			wantErr: "scan: context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewScanJob("@hourly", &fakeScanner{err: tt.scanErr}, tt.tickers, logger.Nop())
			err := job.Run(context.Background())
			assert.EqualError(t, err, tt.wantErr)
			assert.Nil(t, job.LastResult())
		})
	}
}

func TestScanJob_EmptyWatchlist(t *testing.T) {
	scanner := &fakeScanner{}
	job := NewScanJob("@hourly", scanner, StaticTickers(), logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Nil(t, scanner.got)
}
