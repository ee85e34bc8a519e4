package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션",
	Long: `내장된 SQL 마이그레이션(schema data)을 적용하거나 되돌립니다.

Example:
  go run ./cmd/stockdash migrate up
  go run ./cmd/stockdash migrate down
  go run ./cmd/stockdash migrate version`,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "모든 마이그레이션 적용", RunE: withMigrator((*database.Migrator).Up)},
		&cobra.Command{Use: "down", Short: "모든 마이그레이션 되돌리기", RunE: withMigrator((*database.Migrator).Down)},
		&cobra.Command{Use: "version", Short: "현재 버전", RunE: withMigrator(nil)},
	)
}

func withMigrator(fn func(*database.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		m, err := database.NewMigrator(cfg.Database.URL, logger.New(cfg))
		if err != nil {
			return err
		}
		defer m.Close()

		if fn != nil {
			if err := fn(m); err != nil {
				return fmt.Errorf("migrate %s: %w", cmd.Name(), err)
			}
		}

		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("schema version %d (dirty: %v)", version, dirty))
		return nil
	}
}
