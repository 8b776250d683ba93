package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/store"
	"github.com/wonny/sentinel/pkg/database"
)

// migrateCmd creates the price and assessment tables
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 생성",
	Long: `market.daily_prices, sentinel.scan_runs, sentinel.risk_assessments 테이블을 생성합니다.
이미 있는 테이블은 건드리지 않습니다.

Example:
  go run ./cmd/sentinel migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}

		db, err := database.New(cmd.Context(), rt.cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.Migrate(cmd.Context(), db.Pool); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
