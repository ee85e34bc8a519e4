package main

import (
	"os"

	"github.com/wonny/stockdash/cmd/stockdash/commands"
)

// main is the entry point for the stockdash CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/stockdash [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
