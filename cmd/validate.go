package cmd

import (
	"github.com/huangsam/powerrank/core"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/spf13/cobra"
)

// validateCmd runs the distribution checks on a snapshot.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a ranking snapshot for score ties, rank gaps and movement problems",
	Long: `Run the distribution checks against the current snapshot, a stored snapshot
(--snapshot-id) or a payload file (--input).

Checks:
- Duplicate rounded scores stay under --max-duplicate-pct
- Top 10 and top 20 scores are unique
- Ranks are dense and tiers match the rank bands
- Movement is present and consistent with previous ranks
- Exactly one snapshot is current

The command exits non-zero when any check fails.

Examples:
  # Validate the current snapshot
  powerrank validate

  # Validate a payload file with a stricter duplicate threshold
  powerrank validate --input rankings.json --max-duplicate-pct 10`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteValidate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Validation did not pass", err)
		}
	},
}
