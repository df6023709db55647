// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/kpitree/kpitree/schema"
)

// MetadataSource defines the platform operations the pipeline reader needs.
// This allows the core graph logic to be tested without a live platform.
type MetadataSource interface {
	// --- Scope Discovery ---

	// SearchSites returns the sites of the authenticated tenant whose name
	// contains the given pattern. An empty pattern returns every site.
	SearchSites(ctx context.Context, pattern string) ([]schema.Site, error)

	// ListLocations returns the full location hierarchy of a site as a list
	// of depth-annotated nodes with parent links, in hierarchy order.
	ListLocations(ctx context.Context, tenant, site string) ([]*schema.LocationNode, error)

	// --- Per-Location Metadata ---

	// GetDataItems returns every data item registered at a location.
	GetDataItems(ctx context.Context, locationID string) ([]schema.DataItemDescriptor, error)

	// GetFunctionDefs returns every KPI function definition at a location.
	GetFunctionDefs(ctx context.Context, locationID string) ([]schema.KpiFunctionDef, error)
}

// FunctionRegistry defines the platform operations the deployment flow needs.
type FunctionRegistry interface {
	// Register creates a KPI function instance at a location.
	Register(ctx context.Context, locationID string, spec schema.KpiFunctionDef) error

	// Unregister removes a KPI function instance from a location by name.
	Unregister(ctx context.Context, locationID, functionName string) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCatalogStore() CatalogStore
	GetSnapshotStore() SnapshotStore
	CloseAll() error
}

// CatalogStore defines the interface for cached location catalogs.
// This allows mocking the store for testing.
type CatalogStore interface {
	Get(tenant, site, locationID string) (*schema.CatalogRecord, error)
	Put(record schema.CatalogRecord) error
	Clear() error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// SnapshotStore defines the interface for graph-build run history.
type SnapshotStore interface {
	// RecordRun stores one build run and returns its unique ID.
	RecordRun(run schema.RunRecord) (int64, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]schema.RunRecord, error)

	Clear() error
	Close() error
}
