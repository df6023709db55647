package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// CatalogStoreImpl stores location catalogs in the cache database.
type CatalogStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.CatalogStore = &CatalogStoreImpl{} // Compile-time check

// NewCatalogStore wraps an open cache database as a catalog store.
func NewCatalogStore(db *sql.DB, backend schema.DatabaseBackend, connStr string) *CatalogStoreImpl {
	return &CatalogStoreImpl{db: db, backend: backend, connStr: connStr}
}

// Get retrieves a cached catalog. A missing entry is (nil, nil); staleness
// is the caller's call since only it knows the configured TTL.
func (cs *CatalogStoreImpl) Get(tenant, site, locationID string) (*schema.CatalogRecord, error) {
	query := fmt.Sprintf(`SELECT items_json, defs_json, fetched_at FROM %s WHERE tenant = %s AND site = %s AND location_id = %s`,
		quoteTableName(catalogTable, cs.backend), placeholder(cs.backend, 1), placeholder(cs.backend, 2), placeholder(cs.backend, 3))

	record := schema.CatalogRecord{Tenant: tenant, Site: site, LocationID: locationID}
	var fetchedAt int64
	err := cs.db.QueryRow(query, tenant, site, locationID).Scan(&record.ItemsJSON, &record.DefsJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached catalog: %w", err)
	}
	record.FetchedAt = time.Unix(fetchedAt, 0)
	return &record, nil
}

// Put inserts or replaces a cached catalog.
func (cs *CatalogStoreImpl) Put(record schema.CatalogRecord) error {
	if _, err := cs.db.Exec(cs.upsertQuery(),
		record.Tenant, record.Site, record.LocationID,
		record.ItemsJSON, record.DefsJSON, record.FetchedAt.Unix()); err != nil {
		return fmt.Errorf("failed to write cached catalog: %w", err)
	}
	return nil
}

// upsertQuery returns the catalog UPSERT for the backend.
func (cs *CatalogStoreImpl) upsertQuery() string {
	quoted := quoteTableName(catalogTable, cs.backend)
	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (tenant, site, location_id, items_json, defs_json, fetched_at) VALUES (?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE items_json = new.items_json, defs_json = new.defs_json, fetched_at = new.fetched_at`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (tenant, site, location_id, items_json, defs_json, fetched_at) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tenant, site, location_id) DO UPDATE SET items_json = EXCLUDED.items_json, defs_json = EXCLUDED.defs_json, fetched_at = EXCLUDED.fetched_at`, quoted)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (tenant, site, location_id, items_json, defs_json, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`, quoted)
	}
}

// Clear removes every cached catalog.
func (cs *CatalogStoreImpl) Clear() error {
	query := fmt.Sprintf("DELETE FROM %s", quoteTableName(catalogTable, cs.backend))
	if _, err := cs.db.Exec(query); err != nil {
		return fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	return nil
}

// GetStatus returns entry counts, the oldest fetch time and a size
// estimate for the cache database.
func (cs *CatalogStoreImpl) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: cs.backend}

	catalogQuoted := quoteTableName(catalogTable, cs.backend)
	row := cs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", catalogQuoted))
	if err := row.Scan(&status.CatalogEntries); err != nil {
		return status, fmt.Errorf("failed to count catalog entries: %w", err)
	}

	row = cs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(runsTable, cs.backend)))
	if err := row.Scan(&status.RunEntries); err != nil {
		return status, fmt.Errorf("failed to count run entries: %w", err)
	}

	if status.CatalogEntries > 0 {
		var oldest int64
		row = cs.db.QueryRow(fmt.Sprintf("SELECT MIN(fetched_at) FROM %s", catalogQuoted))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest fetch time: %w", err)
		}
		oldestTime := time.Unix(oldest, 0)
		status.OldestFetch = &oldestTime
	}

	status.SizeBytes = cs.estimateSize(status.CatalogEntries + status.RunEntries)
	return status, nil
}

// estimateSize approximates the on-disk size of the cache tables. Exact
// numbers come from backend catalogs where available; otherwise a rough
// per-row estimate is used.
func (cs *CatalogStoreImpl) estimateSize(totalEntries int) int64 {
	fallback := int64(totalEntries) * 1000

	switch cs.backend {
	case schema.SQLiteBackend:
		var size int64
		row := cs.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return fallback
		}
		return size

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(cs.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		var size int64
		row := cs.db.QueryRow(
			"SELECT COALESCE(SUM(data_length + index_length), 0) FROM information_schema.tables WHERE table_schema = ? AND table_name IN (?, ?)",
			cfg.DBName, catalogTable, runsTable)
		if err := row.Scan(&size); err != nil {
			return fallback
		}
		return size

	case schema.PostgreSQLBackend:
		var size int64
		row := cs.db.QueryRow("SELECT pg_total_relation_size($1) + pg_total_relation_size($2)", catalogTable, runsTable)
		if err := row.Scan(&size); err != nil {
			return fallback
		}
		return size

	default:
		return fallback
	}
}

// Close closes the underlying DB connection.
func (cs *CatalogStoreImpl) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}
