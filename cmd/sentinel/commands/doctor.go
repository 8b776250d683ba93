package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/anomaly"
	"github.com/wonny/sentinel/pkg/config"
	"github.com/wonny/sentinel/pkg/database"
	"github.com/wonny/sentinel/pkg/redis"
)

// doctorCmd checks configuration and external dependencies
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "설정/연결 상태 점검",
	Long: `실행 환경을 점검합니다.

이 명령어는:
- .env / 환경변수 설정 로드
- risk config 검증 및 경고 표시
- 모델 번들 탐색
- PostgreSQL 연결 + Connection Pool 통계 (DATABASE_URL이 있을 때)
- Redis 연결 (REDIS_ENABLED=true일 때)

Example:
  go run ./cmd/sentinel doctor
  go run ./cmd/sentinel doctor --risk-config configs/risk.yaml`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Sentinel Environment Check ===")

	rt, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s)", rt.cfg.Env))
	PrintKeyValue(out, "Risk config", fmt.Sprintf("%s v%s (%s)", rt.risk.Meta.ConfigID, rt.risk.Meta.Version, rt.configHash[:12]), 12)
	PrintKeyValue(out, "Scan", fmt.Sprintf("%d workers, %.0f fetch/s", rt.cfg.Scan.Concurrency, rt.cfg.Scan.RatePerSec), 12)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	var failed []error

	// 1. Model
	model, path, err := anomaly.Discover(rt.modelCandidates(), rt.log.Zerolog())
	switch {
	case err == nil:
		s := model.Summary()
		PrintSuccess(out, fmt.Sprintf("Model: %s (%d features, %d samples, trained %s)",
			path, s.Features, s.Samples, s.TrainedAt.Format("2006-01-02")))
	case errors.Is(err, anomaly.ErrBundleNotFound):
		PrintWarning(out, "Model: not found, scores use statistical weights only")
	default:
		PrintWarning(out, fmt.Sprintf("Model: %s: %v", path, err))
		failed = append(failed, err)
	}

	// 2. Database
	if rt.cfg.Database.URL == "" {
		PrintWarning(out, "Database: DATABASE_URL not set (scan needs --data)")
	} else if err := checkDatabase(ctx, cmd, rt.cfg); err != nil {
		PrintWarning(out, "Database: "+err.Error())
		failed = append(failed, err)
	}

	// 3. Redis
	if !rt.cfg.Redis.Enabled {
		PrintWarning(out, "Redis: disabled (no assessment cache)")
	} else if rc, err := redis.New(ctx, rt.cfg); err != nil {
		PrintWarning(out, "Redis: "+err.Error())
		failed = append(failed, err)
	} else {
		_ = rc.Close()
		PrintSuccess(out, "Redis: "+rt.cfg.RedisAddr())
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d check(s) failed", len(failed))
	}
	fmt.Fprintln(out, "\n✅ All checks passed!")
	return nil
}

func checkDatabase(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return err
	}

	PrintSuccess(out, fmt.Sprintf("Database: %s (%v)", maskPassword(cfg.Database.URL), status.ResponseTime.Round(time.Millisecond)))
	PrintKeyValue(out, "Max", fmt.Sprintf("%d", status.Stats.MaxConns), 8)
	PrintKeyValue(out, "Total", fmt.Sprintf("%d", status.Stats.TotalConns), 8)
	PrintKeyValue(out, "Acquired", fmt.Sprintf("%d", status.Stats.AcquiredConns), 8)
	PrintKeyValue(out, "Idle", fmt.Sprintf("%d", status.Stats.IdleConns), 8)
	return nil
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
