// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"os"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
	"golang.org/x/term"
)

// LogReadHeader prints a concise, 2-line header for each pipeline read.
// Machine formats going to stdout skip it so their output stays parseable.
func LogReadHeader(cfg *contract.Config) {
	if cfg.Output != schema.TableOut && cfg.OutputFile == "" {
		return
	}

	scope := cfg.Site
	if cfg.Filter != "" {
		scope = fmt.Sprintf("%s (filter: %q)", cfg.Site, cfg.Filter)
	}

	if cfg.UseEmojis {
		// Line 1: the scope being read
		fmt.Printf("🔎 Site: %s (Tenant: %s)\n", scope, cfg.Tenant)
		// Line 2: how the graph will be rendered
		fmt.Printf("📐 Layout: %s (validate: %t)\n", cfg.Orientation, cfg.Validate)
		return
	}
	fmt.Printf("Site: %s (Tenant: %s)\n", scope, cfg.Tenant)
	fmt.Printf("Layout: %s (validate: %t)\n", cfg.Orientation, cfg.Validate)
}

// getMaxTableNameWidth calculates the maximum width for node names in table
// output based on terminal width and table configuration.
func getMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the fixed columns (rank, kind, grain, status,
	// inputs count) plus table borders, separators and padding
	baseWidth := 55

	// Calculate available space for the node column
	available := termWidth - baseWidth
	if available < 15 {
		// Minimum reasonable node width
		return 15
	}
	if available > 70 {
		// Maximum node width to prevent overly long rows
		return 70
	}
	return available
}
