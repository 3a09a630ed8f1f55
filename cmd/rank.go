package cmd

import (
	"github.com/huangsam/powerrank/core"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/spf13/cobra"
)

// rankCmd builds the monthly ranking from tool and news inputs.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank tools, then save and promote the snapshot",
	Long: `Score every tool with the selected algorithm version, rank them, attach movement
against the previous snapshot and run the distribution checks.

The snapshot is always saved. It only becomes current when every check passes,
unless --force is given. Use --dry-run to print the ranking without saving anything.

Examples:
  # Rank for the current month with the default algorithm
  powerrank rank --tools data/tools.json --news data/news.json

  # Reproduce a past month with a pinned algorithm
  powerrank rank --tools data/tools.json --period 2025-10 --at 2025-10-01 --algorithm 7.2

  # Write the published payload to a file
  powerrank rank --tools data/tools.json --output json --output-file rankings.json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRank(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run ranking", err)
		}
	},
}
