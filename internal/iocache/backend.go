package iocache

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/kpitree/kpitree/schema"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table names for the cache database.
const (
	catalogTable = "kpitree_catalog_cache"
	runsTable    = "kpitree_run_history"
)

// openDatabase opens and verifies a connection for the given backend.
func openDatabase(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite cache at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL cache: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL cache: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Check that the server is running and connection parameters are valid", backend, err)
	}
	return db, nil
}

// quoteTableName returns the properly quoted table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("%q", name)
	}
}

// ensureTables creates the cache tables when they do not exist yet.
func ensureTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, query := range []string{
		createCatalogTableQuery(backend),
		createRunsTableQuery(backend),
	} {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create cache table: %w", err)
		}
	}
	return nil
}

// createCatalogTableQuery returns the CREATE TABLE query for the catalog
// cache. Fetch times are stored as unix seconds for portability.
func createCatalogTableQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(catalogTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				tenant VARCHAR(128) NOT NULL,
				site VARCHAR(128) NOT NULL,
				location_id VARCHAR(128) NOT NULL,
				items_json MEDIUMTEXT NOT NULL,
				defs_json MEDIUMTEXT NOT NULL,
				fetched_at BIGINT NOT NULL,
				PRIMARY KEY (tenant, site, location_id)
			);
		`, quoted)

	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				tenant TEXT NOT NULL,
				site TEXT NOT NULL,
				location_id TEXT NOT NULL,
				items_json TEXT NOT NULL,
				defs_json TEXT NOT NULL,
				fetched_at BIGINT NOT NULL,
				PRIMARY KEY (tenant, site, location_id)
			);
		`, quoted)
	}
}

// createRunsTableQuery returns the CREATE TABLE query for run history.
func createRunsTableQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				tenant VARCHAR(128) NOT NULL,
				site VARCHAR(128) NOT NULL,
				filter VARCHAR(255),
				orientation VARCHAR(16),
				node_count INT NOT NULL,
				edge_count INT NOT NULL,
				exclusion_count INT NOT NULL,
				failure_count INT NOT NULL,
				duration_ms BIGINT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				tenant TEXT NOT NULL,
				site TEXT NOT NULL,
				filter TEXT,
				orientation TEXT,
				node_count INTEGER NOT NULL,
				edge_count INTEGER NOT NULL,
				exclusion_count INTEGER NOT NULL,
				failure_count INTEGER NOT NULL,
				duration_ms BIGINT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				tenant TEXT NOT NULL,
				site TEXT NOT NULL,
				filter TEXT,
				orientation TEXT,
				node_count INTEGER NOT NULL,
				edge_count INTEGER NOT NULL,
				exclusion_count INTEGER NOT NULL,
				failure_count INTEGER NOT NULL,
				duration_ms BIGINT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)
	}
}

// placeholder renders the parameter marker at position i, "$i" for
// PostgreSQL and "?" otherwise.
func placeholder(backend schema.DatabaseBackend, i int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
