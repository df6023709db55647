package schema

import "time"

// CatalogRecord is one cached location catalog: the JSON payloads of the
// location's data items and function definitions plus when they were
// fetched, keyed by (tenant, site, location).
type CatalogRecord struct {
	Tenant     string
	Site       string
	LocationID string
	ItemsJSON  string
	DefsJSON   string
	FetchedAt  time.Time
}

// RunRecord is one row of graph-build history: what was read, how big the
// resulting graph was, and how long the build took.
type RunRecord struct {
	RunID          int64
	Tenant         string
	Site           string
	Filter         string
	Orientation    Orientation
	NodeCount      int
	EdgeCount      int
	ExclusionCount int
	FailureCount   int
	DurationMs     int64
	CreatedAt      time.Time
}

// CacheStatus summarizes one backend's cache state for the status command.
type CacheStatus struct {
	Backend        DatabaseBackend
	CatalogEntries int
	RunEntries     int
	SizeBytes      int64
	OldestFetch    *time.Time
}
