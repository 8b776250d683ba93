package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/contracts"
	"github.com/wonny/sentinel/internal/store"
	"github.com/wonny/sentinel/pkg/database"
)

var latestJSON bool

// latestCmd prints the last stored assessment of a ticker
var latestCmd = &cobra.Command{
	Use:   "latest [ticker]",
	Short: "저장된 최신 평가 조회",
	Long: `scan --save로 저장된 종목의 가장 최근 평가를 출력합니다.

Example:
  go run ./cmd/sentinel latest GME`,
	Args: cobra.ExactArgs(1),
	RunE: runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
	latestCmd.Flags().BoolVar(&latestJSON, "json", false, "print the assessment as JSON")
}

func runLatest(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	db, err := database.New(ctx, rt.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := store.NewAssessmentRepository(db.Pool, rt.log.Zerolog()).GetLatest(ctx, args[0])
	if errors.Is(err, contracts.ErrNotFound) {
		return fmt.Errorf("no stored assessment for %s (run scan --save first)", args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if latestJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	PrintAssessment(out, a)
	return nil
}
