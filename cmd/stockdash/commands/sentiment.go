package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/pkg/logger"
)

// sentimentCmd represents the sentiment command
var sentimentCmd = &cobra.Command{
	Use:   "sentiment [headline...]",
	Short: "뉴스 헤드라인 감성 분류",
	Long: `헤드라인을 positive / negative / neutral로 분류합니다.
GEMINI_API_KEY가 없으면 모두 neutral.

Example:
  go run ./cmd/stockdash sentiment "TSMC beats estimates" "台積電營收創新高"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSentiment,
}

func init() {
	rootCmd.AddCommand(sentimentCmd)
}

func runSentiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// DB/소스 연결 불필요
	a := &app{cfg: cfg, log: logger.New(cfg)}
	labels := a.analyzer(cmd.Context()).AnalyzeBatch(cmd.Context(), args)
	for i, headline := range args {
		fmt.Printf("%-8s %s\n", labels[i], headline)
	}
	return nil
}
