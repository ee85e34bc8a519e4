package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/display"
)

// alertsCmd represents the alerts command
var alertsCmd = &cobra.Command{
	Use:   "alerts [ticker]",
	Short: "알림 평가 (저장 없음)",
	Long: `모든 소스를 조회해 병합/도출한 지표로 알림 규칙을 평가합니다.
DB에는 아무것도 쓰지 않습니다.

Example:
  go run ./cmd/stockdash alerts AAPL
  go run ./cmd/stockdash alerts 2330 --market TW`,
	Args: cobra.ExactArgs(1),
	RunE: runAlerts,
}

var alertsMarket string

func init() {
	rootCmd.AddCommand(alertsCmd)

	alertsCmd.Flags().StringVar(&alertsMarket, "market", "", "접미사 없는 코드의 시장 (TW)")
}

func runAlerts(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ticker := normalize(args[0], alertsMarket)
	eval, err := a.collector.Evaluate(cmd.Context(), ticker)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", ticker, err)
	}

	PrintDoubleSeparator()
	fmt.Printf("  %s (%s)\n", ticker, eval.Market)
	PrintSeparator()

	formatted := display.Set(eval.Metrics)
	for _, m := range contracts.AllMetrics {
		PrintKeyValue(string(m), formatted[m], 16)
	}

	if len(eval.Missing) > 0 {
		PrintWarning(fmt.Sprintf("not registered: %v", eval.Missing))
	}

	PrintSeparator()
	if len(eval.Result.Warnings) == 0 {
		PrintSuccess("sources agree")
	}
	for _, w := range eval.Result.Warnings {
		PrintInfo(w)
	}

	alerts := eval.Alerts()
	if len(alerts) == 0 {
		PrintSuccess("no alerts")
		return nil
	}
	for _, al := range alerts {
		PrintError(al.Text)
	}
	return nil
}
