package main

import (
	"os"

	"github.com/wonny/trendscore/cmd/quant/commands"
)

// main is the entry point for the TrendScore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/quant [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
