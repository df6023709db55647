// Package cmd defines the command-line interface for kpitree.
package cmd

import (
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("tenant", "t", contract.DefaultTenant, "Tenant (organization) to read from")
	rootCmd.PersistentFlags().StringP("site", "s", "", "Site (building) to read; interactive picker when omitted on a terminal")
	rootCmd.PersistentFlags().String("orientation", string(schema.LeftRight), "Graph flow direction: left-right or top-down")
	rootCmd.PersistentFlags().StringP("output", "o", string(schema.TableOut), "Output format: table or json or csv or mermaid or dot")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Bool("validate", true, "Prune nodes whose catalog function is unavailable (--validate=false keeps them)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent metadata fetchers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("base-url", "", "Platform base URL (prefer KPITREE_BASE_URL)")
	rootCmd.PersistentFlags().String("api-key", "", "Platform API key (prefer KPITREE_API_KEY)")
	rootCmd.PersistentFlags().String("api-token", "", "Platform API token (prefer KPITREE_API_TOKEN)")
	rootCmd.PersistentFlags().String("timeout", "", "Platform HTTP timeout (e.g., 30s, 2m)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", "", "Catalog cache entry lifetime (e.g., 1h, 30m)")
	rootCmd.PersistentFlags().String("functions-file", "", "JSON file listing available catalog functions (defaults to the canned set)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Print the deploy/teardown plan without calling the platform")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in table output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of renderCmd to Viper
	renderCmd.Flags().String("parquet-dir", "", "Directory to write a Parquet snapshot of the read (runs, nodes, edges)")
	if err := viper.BindPFlags(renderCmd.Flags()); err != nil {
		contract.LogFatal("Error binding render flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", "", "Listen address for the web viewer (default "+contract.DefaultServeAddr+")")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
