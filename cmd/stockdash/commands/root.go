package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "Stockdash - 대만/미국 종목 재무 대시보드",
	Long: `Stockdash Unified CLI

여러 데이터 소스(FinMind, yfinance, TWSE, SEC EDGAR, Alpha Vantage)에서
재무 지표를 수집하고, 교차 검증 후 비율을 도출하고, 리스크 알림을 생성합니다.

Usage:
  go run ./cmd/stockdash [command]

Examples:
  go run ./cmd/stockdash api
  go run ./cmd/stockdash refresh 2330.TW AAPL
  go run ./cmd/stockdash alerts 2330 --market TW
  go run ./cmd/stockdash migrate up`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
}
