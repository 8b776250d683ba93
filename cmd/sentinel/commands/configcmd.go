package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sentinel/internal/riskconfig"
)

var configYAML bool

// configCmd prints the effective risk config and its hash
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "적용 중인 risk config 출력",
	Long: `현재 적용되는 risk config(YAML)와 해시를 출력합니다.
해시는 캐시 키와 scan_runs.config_hash에 쓰입니다.

Example:
  go run ./cmd/sentinel config
  go run ./cmd/sentinel config --risk-config configs/risk.yaml --yaml`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configYAML, "yaml", false, "print only the YAML document")
}

func runConfig(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	snap, err := riskconfig.NewSnapshot(rt.risk, rt.riskYAML)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if configYAML {
		fmt.Fprint(out, snap.ConfigYAML)
		return nil
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
