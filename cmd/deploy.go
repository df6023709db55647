package cmd

import (
	"github.com/kpitree/kpitree/core"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/spf13/cobra"
)

// deployCmd registers the canned demo pipeline over a location subtree.
var deployCmd = &cobra.Command{
	Use:   "deploy [filter]",
	Short: "Register the demo KPI pipeline over a location subtree.",
	Long: `Register the canned demo KPI definitions on the platform, walking the
selected subtree in hierarchy order (building, then floors, then spaces).

Per location kind:
- space:    Rolling15 (minute), HourlyMax (hour), DailyMax (day)
- floor:    FloorSum over child spaces' DailyMax (day)
- building: BuildingSum over child floors' FloorSum (day)

Registration failures are collected per location and reported at the end;
one failing location does not stop the walk.

Examples:
  # Plan only, touch nothing
  kpitree deploy --site HQ --dry-run

  # Deploy over one floor's subtree
  kpitree deploy "Floor 3" --site HQ`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: platformSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDeploy(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot deploy pipeline", err)
		}
	},
}

// teardownCmd unregisters what deploy registered.
var teardownCmd = &cobra.Command{
	Use:   "teardown [filter]",
	Short: "Unregister the demo KPI pipeline from a location subtree.",
	Long: `Remove the canned demo KPI definitions from the platform, walking the
selected subtree in reverse hierarchy order (spaces, then floors, then the
building) so aggregations are gone before their sources.

Examples:
  # See what would be removed
  kpitree teardown --site HQ --dry-run

  # Remove the full demo pipeline
  kpitree teardown --site HQ`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: platformSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTeardown(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot tear down pipeline", err)
		}
	},
}
