package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/magicformula/internal/scheduler"
	"github.com/wonny/magicformula/internal/scheduler/jobs"
)

// schedulerCmd groups the scheduler subcommands
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run scheduled jobs",
	Long: `Runs the periodic jobs or triggers one of them by hand.

Jobs:
  screener_refresh  - re-runs the screener (REFRESH_SCHEDULE, default hourly)
  cache_cleanup     - purges expired metrics every 5 minutes

Example:
  go run ./cmd/magicformula scheduler start
  go run ./cmd/magicformula scheduler list
  go run ./cmd/magicformula scheduler run screener_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler until interrupted",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers every job against the app's components
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewScreenerRefreshJob(a.screener, a.cfg.RefreshSchedule, a.log)); err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.cache, a.log)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	PrintHeader("Magic Formula Scheduler")
	for name, st := range sched.GetJobStats() {
		PrintKeyValue(name, st.Schedule, 18)
	}
	fmt.Println()
	PrintInfo("Press Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println()
	PrintInfo("Shutting down scheduler...")
	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		PrintKeyValue(name, stats[name].Schedule, 18)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer sched.Stop()

	result, err := sched.RunJobSync(args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", result.JobName, result.Duration))
	return nil
}
