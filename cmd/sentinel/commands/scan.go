package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/marketdata"
	"github.com/wonny/sentinel/internal/risk"
	"github.com/wonny/sentinel/internal/scan"
	"github.com/wonny/sentinel/internal/store"
	"github.com/wonny/sentinel/pkg/database"
	"github.com/wonny/sentinel/pkg/metrics"
	"github.com/wonny/sentinel/pkg/redis"
)

var (
	scanTickers   []string
	scanData      string
	scanDays      int
	scanThreshold int
	scanSave      bool
	scanAlerts    bool
)

// scanCmd scores a watchlist in one batch
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "관심 종목 일괄 리스크 스캔",
	Long: `관심 종목을 병렬로 스캔하고 고위험 종목을 출력합니다.

가격 데이터는 --data 디렉터리(CSV) 또는 DATABASE_URL(PostgreSQL)에서 읽습니다.
REDIS_ENABLED=true면 같은 설정/같은 마지막 봉의 결과를 캐시에서 재사용합니다.
--save는 결과와 실행 요약을 PostgreSQL에 저장합니다.

Example:
  go run ./cmd/sentinel scan --tickers GME,AMC,BB
  go run ./cmd/sentinel scan --data data/ --alerts
  go run ./cmd/sentinel scan --days 180 --save`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addScanFlags(scanCmd)
	scanCmd.Flags().BoolVar(&scanAlerts, "alerts", false, "print alert text for high-risk tickers")
}

// addScanFlags registers the flags shared by scan and watch
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&scanTickers, "tickers", nil, "comma-separated tickers (default: every ticker in the source)")
	cmd.Flags().StringVar(&scanData, "data", "", "read prices from a CSV directory instead of PostgreSQL")
	cmd.Flags().IntVar(&scanDays, "days", 0, "history window in days (default: risk config scan.history_days)")
	cmd.Flags().IntVar(&scanThreshold, "threshold", 0, "high-risk threshold (default: risk config scan.high_risk_threshold)")
	cmd.Flags().BoolVar(&scanSave, "save", false, "persist assessments to PostgreSQL")
}

func runScan(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	deps, err := rt.buildScan(ctx, metrics.New())
	if err != nil {
		return err
	}
	defer deps.Close()

	tickers, err := deps.tickers(ctx)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		return errors.New("no tickers to scan")
	}

	res, err := deps.scanner.Scan(ctx, tickers)
	if res != nil {
		out := cmd.OutOrStdout()
		PrintScanResult(out, res)
		if scanAlerts {
			for _, a := range res.HighRisk {
				fmt.Fprintln(out)
				fmt.Fprintln(out, risk.FormatAlert(a))
			}
		}
	}
	return err
}

// scanDeps wires a Scanner to its price source, cache and store
type scanDeps struct {
	scanner *scan.Scanner
	metrics *metrics.Registry
	db      *database.DB
	redis   *redis.Client
	tickers func(ctx context.Context) ([]string, error)
}

// buildScan connects the scan collaborators selected by flags and env
func (rt *runtimeEnv) buildScan(ctx context.Context, reg *metrics.Registry) (*scanDeps, error) {
	deps := &scanDeps{metrics: reg}
	zl := rt.log.Zerolog()

	var prices contracts.PriceRepository
	if scanData != "" {
		src := marketdata.NewCSVSource(scanData, zl)
		prices = src
		deps.tickers = func(context.Context) ([]string, error) {
			if len(scanTickers) > 0 {
				return scanTickers, nil
			}
			return src.ListTickers()
		}
	}

	if scanData == "" || scanSave {
		db, err := database.New(ctx, rt.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		deps.db = db
	}

	if prices == nil {
		repo := marketdata.NewPostgresRepository(deps.db.Pool, zl)
		prices = repo
		deps.tickers = func(ctx context.Context) ([]string, error) {
			if len(scanTickers) > 0 {
				return scanTickers, nil
			}
			return repo.ListTickers(ctx, time.Now().AddDate(0, 0, -7))
		}
	}

	rc, err := redis.New(ctx, rt.cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.redis = rc

	opts := scan.Options{
		Concurrency:       rt.cfg.Scan.Concurrency,
		RatePerSec:        rt.cfg.Scan.RatePerSec,
		HistoryDays:       rt.risk.Scan.HistoryDays,
		HighRiskThreshold: rt.risk.Scan.HighRiskThreshold,
		CacheTTL:          rt.risk.Scan.CacheTTL(),
		ConfigHash:        rt.configHash,
	}
	if scanDays > 0 {
		opts.HistoryDays = scanDays
	}
	if scanThreshold > 0 {
		opts.HighRiskThreshold = scanThreshold
	}

	scanOpts := []scan.Option{
		scan.WithCache(redis.NewCache(rc, "sentinel")),
		scan.WithMetrics(reg),
	}
	if scanSave {
		if err := store.Migrate(ctx, deps.db.Pool); err != nil {
			deps.Close()
			return nil, err
		}
		repo := store.NewAssessmentRepository(deps.db.Pool, zl)
		scanOpts = append(scanOpts, scan.WithStore(repo, repo))
	}

	deps.scanner = scan.NewScanner(prices, rt.engine(), opts, zl, scanOpts...)

	rt.log.WithFields(map[string]any{
		"source":    sourceName(),
		"redis":     rc.Enabled(),
		"save":      scanSave,
		"days":      opts.HistoryDays,
		"threshold": opts.HighRiskThreshold,
	}).Info("Scanner ready")

	return deps, nil
}

// health reports database and cache reachability
func (d *scanDeps) health(ctx context.Context) (map[string]any, error) {
	details := map[string]any{"redis": "disabled", "database": "unused"}
	var errs []error

	if d.db != nil {
		if err := d.db.Ping(ctx); err != nil {
			details["database"] = "down"
			errs = append(errs, fmt.Errorf("database: %w", err))
		} else {
			details["database"] = "up"
		}
	}
	if d.redis != nil && d.redis.Enabled() {
		if err := d.redis.Redis().Ping(ctx).Err(); err != nil {
			details["redis"] = "down"
			errs = append(errs, fmt.Errorf("redis: %w", err))
		} else {
			details["redis"] = "up"
		}
	}
	return details, errors.Join(errs...)
}

// Close releases connections
func (d *scanDeps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

func sourceName() string {
	if scanData != "" {
		return "csv:" + scanData
	}
	return "postgres"
}

// upperAll normalizes a ticker flag for display
func upperAll(tickers []string) string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return strings.Join(out, ",")
}
