package cmd

import (
	"github.com/kpitree/kpitree/core"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/spf13/cobra"
)

// queueCmd shows the rank-ordered processing queue.
var queueCmd = &cobra.Command{
	Use:   "queue [filter]",
	Short: "Show the order derived KPIs must be evaluated in.",
	Long: `Read the pipeline and print its processing queue: batches of derived
nodes grouped by dependency rank.

Nodes in one batch depend only on earlier batches, so each batch can be
evaluated in parallel once its predecessors have run. Raw metrics never
appear; they need no evaluation.

Examples:
  # Evaluation order for the whole site
  kpitree queue --site HQ

  # Scoped to one floor, as CSV for a scheduler
  kpitree queue "Floor 3" --site HQ --output csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: platformSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteProcessingQueue(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute processing queue", err)
		}
	},
}
