package cmd

import (
	"github.com/kpitree/kpitree/core"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/spf13/cobra"
)

// inspectCmd shows one node and its closures.
var inspectCmd = &cobra.Command{
	Use:   "inspect <location/name>",
	Short: "Show one node's inputs, dependents and full closures.",
	Long: `Read the pipeline and print everything about one node: its descriptor,
its direct inputs and dependents, and both transitive closures.

The reference is "location/name" (for example "s1/Rolling15"). A bare name
is accepted when it is unique in the graph.

Descendants are the full input closure: every item that must exist before
the node can be evaluated. Ancestors are the blast radius: everything that
breaks if the item changes or disappears.

Examples:
  # What feeds the rolling average, and what consumes it
  kpitree inspect s1/Rolling15 --site HQ

  # Bare name, when unique
  kpitree inspect FloorSum --site HQ

  # Machine-readable closure report
  kpitree inspect s1/Rolling15 --site HQ --output json`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// The positional is the node reference, not a location filter.
		return platformSetupWrapper(cmd, nil)
	},
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteInspectNode(rootCtx, cfg, cacheManager, args[0]); err != nil {
			contract.LogFatal("Cannot inspect node", err)
		}
	},
}
