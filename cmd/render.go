package cmd

import (
	"github.com/kpitree/kpitree/core"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/spf13/cobra"
)

// renderCmd reads the pipeline and writes the dependency graph.
var renderCmd = &cobra.Command{
	Use:   "render [filter]",
	Short: "Show the KPI dependency graph for a site.",
	Long: `Read KPI function metadata for a site and render its dependency graph.

Walks the location hierarchy (building, floors, spaces), loads each location's
data items and KPI definitions, and resolves every input reference into a
dependency edge, helping you:
- See which raw metrics feed which derived KPIs
- Spot definitions whose inputs cannot be resolved
- Catch grain mismatches before the pipeline engine does
- Understand how floor and building aggregations compose

An optional positional filter selects locations by case-insensitive name
match; ancestor locations are always kept so aggregations stay connected.

Examples:
  # Render the whole site as a table
  kpitree render --site HQ

  # Only the lobby and everything above it
  kpitree render Lobby --site HQ

  # Mermaid source for a wiki page
  kpitree render --site HQ --output mermaid --output-file pipeline.mmd

  # Machine-readable graph with layout coordinates
  kpitree render --site HQ --output json

  # Keep nodes whose catalog function is missing
  kpitree render --site HQ --validate=false

  # Snapshot the read for DuckDB/pandas analysis
  kpitree render --site HQ --parquet-dir ./snapshots`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: platformSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRenderGraph(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot render pipeline graph", err)
		}
	},
}
