package cmd

import (
	"fmt"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/internal/iocache"
	"github.com/kpitree/kpitree/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runHistoryLimit bounds the run history shown by cache status.
const runHistoryLimit = 10

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config
	if err := iocache.InitCaching(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func cacheMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheMigrateSetupWrapper wraps cacheMigrateSetup to provide PreRunE for migrate command.
func cacheMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheMigrateSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by pipeline commands. This avoids platform
// validation and site selection for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the metadata cache (improves performance)",
	Long: `Manage the metadata cache that speeds up repeated pipeline reads.

Kpitree caches each location's fetched metadata (data items and KPI
definitions), so re-rendering the same site skips most platform calls until
the entries pass their TTL. Run history for Parquet snapshots lives in the
same database.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show cache statistics and recent runs
  clear   - Remove all cached data
  migrate - Run database schema migrations

Examples:
  # Check cache status
  kpitree cache status

  # Clear cache after reworking KPI definitions on the platform
  kpitree cache clear`,
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and recent pipeline reads",
	Long: `Show detailed information about the metadata cache.

Displays:
- Backend type and entry counts
- Oldest cached fetch (entries older than the TTL refetch on next read)
- Cache database size
- The most recent recorded pipeline reads

Examples:
  # Check cache status
  kpitree cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetCatalogStore()
		if store == nil {
			fmt.Println("Caching is disabled (backend: none).")
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)

		if snapshots := iocache.Manager.GetSnapshotStore(); snapshots != nil {
			runs, err := snapshots.ListRuns(runHistoryLimit)
			if err != nil {
				contract.LogFatal("Failed to list recorded runs", err)
			}
			iocache.PrintRunHistory(runs)
		}
	},
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached metadata and run history",
	Long: `Delete all cached metadata and recorded runs from the configured backend.

Use this when:
- KPI definitions were changed on the platform and the TTL is long
- Cache may be stale or corrupted
- Testing read performance without cache

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache tables

Examples:
  # Clear SQLite cache (default)
  kpitree cache clear

  # Clear MySQL cache (set connection string via env variable)
  KPITREE_CACHE_BACKEND=mysql KPITREE_CACHE_DB_CONNECT="..." kpitree cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, iocache.GetDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheMigrateCmd runs schema migrations for the cache database.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations for the cache",
	Long: `Apply (or roll back) the cache database schema using versioned migrations.

Each backend carries its own dialect-specific migration scripts, embedded in
the binary. The target version selects where to stop:
  -1  migrate to the latest version (default)
   0  roll back everything to the initial state
   N  migrate up or down to version N

Examples:
  # Bring the cache schema up to date
  kpitree cache migrate

  # Roll everything back
  kpitree cache migrate --target 0`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.MigrateCache(cfg.CacheBackend, cfg.CacheDBConnect, viper.GetInt("target")); err != nil {
			contract.LogFatal("Failed to migrate cache database", err)
		}
	},
}
