package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// watchlistCmd represents the watchlist command
var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "관심종목 관리",
	Long: `사용자별 관심종목을 추가/삭제/조회합니다.
스케줄러의 watchlist_refresh는 모든 사용자의 관심종목을 갱신합니다.

Example:
  go run ./cmd/stockdash watchlist add 2330 --user 1 --market TW
  go run ./cmd/stockdash watchlist list --user 1`,
}

var (
	watchUser   int64
	watchMarket string
)

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(
		&cobra.Command{Use: "add [ticker...]", Short: "추가", Args: cobra.MinimumNArgs(1), RunE: runWatchAdd},
		&cobra.Command{Use: "remove [ticker...]", Short: "삭제", Args: cobra.MinimumNArgs(1), RunE: runWatchRemove},
		&cobra.Command{Use: "list", Short: "조회", RunE: runWatchList},
	)

	watchlistCmd.PersistentFlags().Int64Var(&watchUser, "user", 1, "사용자 ID")
	watchlistCmd.PersistentFlags().StringVar(&watchMarket, "market", "", "접미사 없는 코드의 시장 (TW)")
}

func runWatchAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, t := range args {
		ticker := normalize(t, watchMarket)
		if err := a.watchlist.Add(cmd.Context(), watchUser, ticker); err != nil {
			return err
		}
		PrintSuccess("added " + ticker)
	}
	return nil
}

func runWatchRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, t := range args {
		ticker := normalize(t, watchMarket)
		if err := a.watchlist.Remove(cmd.Context(), watchUser, ticker); err != nil {
			return fmt.Errorf("remove %s: %w", ticker, err)
		}
		PrintSuccess("removed " + ticker)
	}
	return nil
}

func runWatchList(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.watchlist.List(cmd.Context(), watchUser)
	if err != nil {
		return err
	}

	widths := []int{12, 19}
	PrintTableHeader([]string{"TICKER", "ADDED"}, widths)
	for _, w := range items {
		PrintTableRow([]string{w.Ticker, w.AddedAt.Local().Format("2006-01-02 15:04:05")}, widths)
	}
	return nil
}
