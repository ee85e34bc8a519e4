package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/display"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "데이터 소스 점검",
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check [ticker]",
	Short: "종목 하나로 모든 소스를 개별 호출",
	Long: `등록된 모든 소스를 정책과 무관하게 하나씩 호출하고 결과를 표로 보여줍니다.
소스 장애나 응답 형식 변경을 확인할 때 사용합니다.

Example:
  go run ./cmd/stockdash sources check 2330.TW
  go run ./cmd/stockdash sources check MSFT`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesCheck,
}

var sourcesMarket string

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesCheckCmd)

	sourcesCheckCmd.Flags().StringVar(&sourcesMarket, "market", "", "접미사 없는 코드의 시장 (TW)")
}

func runSourcesCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ticker := normalize(args[0], sourcesMarket)
	ids := a.registry.IDs()

	widths := []int{16}
	header := []string{"METRIC"}
	sets := make([]contracts.MetricSet, len(ids))
	for i, id := range ids {
		src, _ := a.registry.Source(id)
		start := time.Now()
		sets[i] = src.Fetch(cmd.Context(), ticker)
		PrintInfo(fmt.Sprintf("%-14s %2d metrics in %s", id, sets[i].Len(), time.Since(start).Round(time.Millisecond)))

		header = append(header, string(id))
		widths = append(widths, 14)
	}
	fmt.Println()

	formatted := make([]map[contracts.Metric]string, len(sets))
	for i, s := range sets {
		formatted[i] = display.Set(s)
	}

	PrintTableHeader(header, widths)
	for _, m := range contracts.AllMetrics {
		row := []string{string(m)}
		for i := range sets {
			row = append(row, formatted[i][m])
		}
		PrintTableRow(row, widths)
	}
	return nil
}
