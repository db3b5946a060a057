package outwriter

import (
	"os"

	"github.com/documetrics/docudash/internal/contract"
	"golang.org/x/term"
)

// getMaxTablePathWidth calculates the maximum width for identifiers in table output
// based on terminal width and table configuration.
func getMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Doc Type + Overall + Band with borders/padding
	baseWidth := 40

	// Lines plus the four quality metrics
	if cfg.Detail {
		baseWidth += 50
	}

	// Table borders and separators
	baseWidth += 10

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
