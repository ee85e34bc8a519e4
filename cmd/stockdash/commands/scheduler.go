package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/scheduler"
	"github.com/wonny/stockdash/internal/scheduler/jobs"
)

// jobRunRetention is how long job_runs rows are kept
const jobRunRetention = 90 * 24 * time.Hour

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)
  status  - 최근 실행 이력 (data.job_runs)

Example:
  go run ./cmd/stockdash scheduler start
  go run ./cmd/stockdash scheduler run watchlist_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- watchlist_refresh: REFRESH_SCHEDULE (기본 평일 17:30)
- coverage_report: 평일 19:00 (지표 커버리지 스냅샷)
- job_run_cleanup: 일요일 03:00 (90일 지난 실행 이력 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 이력 조회",
		RunE:  showStatus,
	}

	statusLimit int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerStatusCmd.Flags().IntVar(&statusLimit, "limit", 20, "표시할 실행 수")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-20s next: %s\n", jobName, sched.NextRun(jobName).Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	PrintTableHeader([]string{"JOB", "SCHEDULE"}, []int{20, 20})
	for _, jobName := range sched.GetAllJobs() {
		PrintTableRow([]string{jobName, stats[jobName].Schedule}, []int{20, 20})
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunNow(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s), %s: %s",
			jobName, result.Attempts, result.Duration.Round(time.Millisecond), result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.jobRuns.Recent(cmd.Context(), statusLimit)
	if err != nil {
		return err
	}

	widths := []int{20, 19, 10, 8, 30}
	PrintTableHeader([]string{"JOB", "STARTED", "DURATION", "STATUS", "MESSAGE"}, widths)
	for _, run := range runs {
		status, duration := "running", "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
			status = "ok"
			if !run.Success {
				status = "failed"
			}
		}
		PrintTableRow([]string{
			run.JobName,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			status,
			run.Message,
		}, widths)
	}

	return nil
}

// initScheduler registers every job on a new scheduler
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.WithRecorder(a.jobRuns))

	toAdd := []scheduler.Job{
		jobs.NewRefreshJob(a.collector, a.watchlist, a.cfg.Refresh.Schedule, a.cfg.Refresh.Workers, a.log),
		jobs.NewCoverageJob(a.coverageGate(), a.coverage, a.log),
		jobs.NewJobRunCleanupJob(a.jobRuns, jobRunRetention, a.log),
	}
	for _, job := range toAdd {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}

	return sched, nil
}
