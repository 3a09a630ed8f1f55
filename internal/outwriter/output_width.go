package outwriter

import (
	"os"

	"github.com/huangsam/powerrank/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for tool names in table output
// based on terminal width and the fixed ranking columns.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Category + Score + Tier + Move with borders/padding
	baseWidth := 50

	// Reserve space for table borders, separators, and padding
	baseWidth += 12

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 48 {
		return 48
	}
	return available
}
