package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/marketdata"
	"github.com/wonny/sentinel/internal/store"
	"github.com/wonny/sentinel/pkg/database"
)

var importData string

// importCmd loads a CSV directory into market.daily_prices
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "CSV 일봉 데이터를 PostgreSQL에 적재",
	Long: `<TICKER>.csv 파일들을 market.daily_prices에 upsert합니다.
NaN / 거래량 0 행은 적재 전에 제거됩니다.

Example:
  go run ./cmd/sentinel import --data data/`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importData, "data", "", "directory of <TICKER>.csv price files")
	_ = importCmd.MarkFlagRequired("data")
}

func runImport(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	data, err := marketdata.NewCSVSource(importData, rt.log.Zerolog()).LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", importData, err)
	}

	db, err := database.New(ctx, rt.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Pool); err != nil {
		return err
	}

	repo := marketdata.NewPostgresRepository(db.Pool, rt.log.Zerolog())
	bars := 0
	for ticker, s := range data {
		if err := repo.SaveSeries(ctx, ticker, s); err != nil {
			return err
		}
		bars += s.Len()
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Imported %d bars for %d tickers", bars, len(data)))
	return nil
}
