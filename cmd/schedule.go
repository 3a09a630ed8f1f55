package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/powerrank/core"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/spf13/cobra"
)

// scheduleCmd runs the ranking on a cron schedule.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the ranking on a cron schedule until interrupted",
	Long: `Run 'rank' on a recurring cron schedule (UTC). Each run evaluates at its tick
time and derives the period from it. A failed run is logged and the next tick
still fires.

Examples:
  # Default: 06:00 UTC on the first day of every month
  powerrank schedule --tools data/tools.json --news data/news.json

  # Weekly on Monday
  powerrank schedule --tools data/tools.json --schedule "0 6 * * 1"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := core.ExecuteSchedule(ctx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run schedule", err)
		}
	},
}
