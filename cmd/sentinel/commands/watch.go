package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/ops"
	"github.com/wonny/sentinel/internal/scheduler"
	"github.com/wonny/sentinel/internal/scheduler/jobs"
	"github.com/wonny/sentinel/pkg/metrics"
)

var (
	watchSchedule    string
	watchRunNow      bool
	watchMetricsPort string
	watchRetries     int
)

// watchCmd runs the scan on a cron schedule until interrupted
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "스케줄 기반 리스크 감시",
	Long: `cron 스케줄에 맞춰 관심 종목을 주기적으로 스캔합니다.

고위험 종목은 경고 로그로 출력됩니다.
METRICS_ENABLED=true(또는 --metrics-port)면 /health, /metrics를 노출합니다.
Ctrl+C로 종료할 수 있습니다.

Schedule (초 포함 6필드):
  "0 0 18 * * 1-5"   평일 18:00 (기본값)
  "0 */15 9-15 * * 1-5"  장중 15분마다
  "@every 1h"

Example:
  go run ./cmd/sentinel watch --tickers GME,AMC
  go run ./cmd/sentinel watch --data data/ --schedule "@every 10m" --run-now`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addScanFlags(watchCmd)
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "0 0 18 * * 1-5", "cron schedule with seconds field")
	watchCmd.Flags().BoolVar(&watchRunNow, "run-now", false, "run one scan immediately after start")
	watchCmd.Flags().StringVar(&watchMetricsPort, "metrics-port", "", "serve /health and /metrics on this port (default: METRICS_PORT when METRICS_ENABLED)")
	watchCmd.Flags().IntVar(&watchRetries, "retries", 2, "retries after a failed scan")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()
	deps, err := rt.buildScan(ctx, reg)
	if err != nil {
		return err
	}
	defer deps.Close()

	job := jobs.NewScanJob(watchSchedule, deps.scanner, deps.tickers, rt.log)
	sched := scheduler.New(rt.log, scheduler.WithRetry(watchRetries, time.Minute))
	if err := sched.AddJob(job); err != nil {
		return err
	}
	sched.Start(ctx)

	out := cmd.OutOrStdout()
	PrintHeader(out, "SENTINEL WATCH",
		KV{"Schedule", watchSchedule},
		KV{"Source", sourceName()},
		KV{"Tickers", watchlistLabel()},
	)
	if next, err := sched.NextRun(job.Name()); err == nil {
		fmt.Fprintf(out, "Next scan at %s\n", next.Format(time.RFC3339))
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	if watchRunNow {
		if err := sched.RunJob(job.Name()); err != nil {
			return err
		}
	}

	var srv *ops.Server
	serverErr := make(chan error, 1)
	if port := metricsPort(rt); port != "" {
		health := func(ctx context.Context) (map[string]any, error) {
			details, err := deps.health(ctx)
			if last := job.LastResult(); last != nil {
				details["last_run_id"] = last.Run.ID
				details["last_run_at"] = last.Run.FinishedAt
				details["last_high_risk"] = last.Run.HighRisk
			}
			if next, nerr := sched.NextRun(job.Name()); nerr == nil {
				details["next_run_at"] = next
			}
			return details, err
		}
		srv = ops.NewServer(port, rt.log, ops.NewRouter(health, reg.Handler(), rt.log))
		go func() { serverErr <- srv.Start() }()
	}

	select {
	case <-ctx.Done():
	case err = <-serverErr:
	}

	fmt.Fprintln(out, "\nShutting down...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	sched.Stop()
	PrintSuccess(out, "Watch stopped")

	return err
}

func metricsPort(rt *runtimeEnv) string {
	if watchMetricsPort != "" {
		return watchMetricsPort
	}
	if rt.cfg.MetricsEnabled {
		return rt.cfg.MetricsPort
	}
	return ""
}

func watchlistLabel() string {
	if len(scanTickers) == 0 {
		return "(all in source)"
	}
	return upperAll(scanTickers)
}
