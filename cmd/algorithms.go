package cmd

import (
	"github.com/huangsam/powerrank/core"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/spf13/cobra"
)

// algorithmsCmd lists the registered algorithm versions.
var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List algorithm versions with their factor weights",
	Long: `Show every registered algorithm version, its factor weights, score precision
and modifier settings. Versions from --algorithms-file are merged in.

Examples:
  powerrank algorithms
  powerrank algorithms --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAlgorithms(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list algorithms", err)
		}
	},
}
