package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/redis"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL/Redis 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 풀 통계와 스키마 버전을 표시합니다.

Example:
  go run ./cmd/stockdash test-db
  go run ./cmd/stockdash test-db --env production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Stockdash Database Connection Test ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	PrintKeyValue("Healthy", fmt.Sprint(status.Healthy), 20)
	PrintKeyValue("Response Time", status.ResponseTime.String(), 20)
	PrintKeyValue("Max Connections", fmt.Sprint(status.Stats.MaxConns), 20)
	PrintKeyValue("Total Connections", fmt.Sprint(status.Stats.TotalConns), 20)
	PrintKeyValue("Idle Connections", fmt.Sprint(status.Stats.IdleConns), 20)

	m, err := database.NewMigrator(cfg.Database.URL, logger.New(cfg))
	if err != nil {
		return fmt.Errorf("❌ Failed to open migrator: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("❌ Failed to read schema version: %w", err)
	}
	PrintKeyValue("Schema Version", fmt.Sprintf("%d (dirty: %v)", version, dirty), 20)

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Redis check failed: %w", err)
	}
	defer rdb.Close()
	redisState := "disabled"
	if rdb.Enabled() {
		redisState = "connected"
	}
	PrintKeyValue("Redis", redisState, 20)

	fmt.Println("\n✅ All tests passed!")
	return nil
}

// maskPassword hides the password of a postgres URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
