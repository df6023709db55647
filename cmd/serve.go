package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kpitree/kpitree/core"
	"github.com/kpitree/kpitree/core/layout"
	"github.com/kpitree/kpitree/internal/outwriter"
	"github.com/kpitree/kpitree/internal/webview"
	"github.com/kpitree/kpitree/schema"
	"github.com/spf13/cobra"
)

// serveCmd serves the rendered pipeline as a web page.
var serveCmd = &cobra.Command{
	Use:   "serve [filter]",
	Short: "Serve the pipeline graph as a browsable web page.",
	Long: `Read the pipeline once and serve it over HTTP: an index page rendering
the graph with mermaid.js, the full graph document under /api/graph, and a
/healthz probe.

The page shows the read taken at startup; restart the server to pick up
platform changes. Request logs go to stderr.

Examples:
  # Default address (localhost:8080)
  kpitree serve --site HQ

  # One floor only, on a chosen port
  kpitree serve "Floor 3" --site HQ --addr localhost:9090`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: platformSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := core.ReadPipeline(ctx, cfg, cacheManager)
		if err != nil {
			return err
		}
		layoutResult := layout.Compute(result.Graph, cfg.Orientation)
		doc := schema.NewGraphDocument(cfg.Tenant, cfg.Site, cfg.Filter, result.Graph.Nodes(), layoutResult, result.Report)
		mermaidSource := outwriter.BuildMermaid(result.Graph.Nodes(), layoutResult)

		srv := webview.NewServer(cfg, doc, mermaidSource)
		if cfg.UseEmojis {
			fmt.Printf("🌐 Serving pipeline graph at http://%s (Ctrl-C to stop)\n", srv.Addr())
		} else {
			fmt.Printf("Serving pipeline graph at http://%s (Ctrl-C to stop)\n", srv.Addr())
		}
		return srv.Run(ctx)
	},
}
