package main

import (
	"os"

	"github.com/wonny/sentinel/cmd/sentinel/commands"
)

// main is the entry point for the Sentinel CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/sentinel [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
