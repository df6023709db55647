package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// Run listings default to the most recent handful when no limit is given.
const defaultRunLimit = 20

// SnapshotStoreImpl stores graph-build run history in the cache database.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// NewSnapshotStore wraps an open cache database as a snapshot store.
func NewSnapshotStore(db *sql.DB, backend schema.DatabaseBackend) *SnapshotStoreImpl {
	return &SnapshotStoreImpl{db: db, backend: backend}
}

// RecordRun stores one build run and returns its unique ID.
func (ss *SnapshotStoreImpl) RecordRun(run schema.RunRecord) (int64, error) {
	quoted := quoteTableName(runsTable, ss.backend)
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	args := []any{
		run.Tenant, run.Site, run.Filter, string(run.Orientation),
		run.NodeCount, run.EdgeCount, run.ExclusionCount, run.FailureCount,
		run.DurationMs, createdAt.Unix(),
	}

	var runID int64
	var err error
	switch ss.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (tenant, site, filter, orientation, node_count, edge_count, exclusion_count, failure_count, duration_ms, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING run_id`, quoted)
		err = ss.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (tenant, site, filter, orientation, node_count, edge_count, exclusion_count, failure_count, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = ss.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (ss *SnapshotStoreImpl) ListRuns(limit int) ([]schema.RunRecord, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	query := fmt.Sprintf(`SELECT run_id, tenant, site, filter, orientation, node_count, edge_count, exclusion_count, failure_count, duration_ms, created_at
		FROM %s ORDER BY run_id DESC LIMIT %s`, quoteTableName(runsTable, ss.backend), placeholder(ss.backend, 1))

	rows, err := ss.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []schema.RunRecord
	for rows.Next() {
		var run schema.RunRecord
		var orientation string
		var createdAt int64
		if err := rows.Scan(&run.RunID, &run.Tenant, &run.Site, &run.Filter, &orientation,
			&run.NodeCount, &run.EdgeCount, &run.ExclusionCount, &run.FailureCount,
			&run.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Orientation = schema.Orientation(orientation)
		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run rows: %w", err)
	}
	return runs, nil
}

// Clear removes the whole run history.
func (ss *SnapshotStoreImpl) Clear() error {
	query := fmt.Sprintf("DELETE FROM %s", quoteTableName(runsTable, ss.backend))
	if _, err := ss.db.Exec(query); err != nil {
		return fmt.Errorf("failed to clear run history: %w", err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (ss *SnapshotStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}
