package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// LocationCatalog is the metadata loaded for one location: its registered
// data items and KPI function definitions, sorted by name. Write-once; only
// the pipeline reader populates catalogs.
type LocationCatalog struct {
	Location *schema.LocationNode
	Items    []schema.DataItemDescriptor
	Defs     []schema.KpiFunctionDef
}

// CatalogSet collects the catalogs of a reader run, keyed by location ID.
type CatalogSet struct {
	byLocation map[string]*LocationCatalog
}

// NewCatalogSet returns an empty catalog set.
func NewCatalogSet() *CatalogSet {
	return &CatalogSet{byLocation: make(map[string]*LocationCatalog)}
}

// Add stores a loaded catalog. Each location loads exactly once per run;
// a second load for the same location is a bug in the caller.
func (s *CatalogSet) Add(catalog *LocationCatalog) error {
	id := catalog.Location.ID
	if _, ok := s.byLocation[id]; ok {
		return fmt.Errorf("catalog for location %s already loaded", id)
	}
	s.byLocation[id] = catalog
	return nil
}

// Get returns the catalog for a location ID.
func (s *CatalogSet) Get(locationID string) (*LocationCatalog, bool) {
	catalog, ok := s.byLocation[locationID]
	return catalog, ok
}

// Len returns the number of loaded catalogs.
func (s *CatalogSet) Len() int {
	return len(s.byLocation)
}

// Ordered returns the catalogs in the canonical pass order: location
// depth, then name, then ID.
func (s *CatalogSet) Ordered() []*LocationCatalog {
	catalogs := make([]*LocationCatalog, 0, len(s.byLocation))
	for _, catalog := range s.byLocation {
		catalogs = append(catalogs, catalog)
	}
	sort.Slice(catalogs, func(i, j int) bool {
		a, b := catalogs[i].Location, catalogs[j].Location
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return catalogs
}

// loadLocationCatalog fetches one location's items and definitions, going
// through the catalog store first when one is configured. Cache entries are
// best effort: a stale or unreadable entry falls back to the source, and a
// failed write-back never fails the load.
func loadLocationCatalog(ctx context.Context, cfg *contract.Config, src contract.MetadataSource, store contract.CatalogStore, loc *schema.LocationNode) (*LocationCatalog, error) {
	if store != nil {
		if catalog := checkCatalogHit(cfg, store, loc); catalog != nil {
			return catalog, nil
		}
	}

	items, err := src.GetDataItems(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	defs, err := src.GetFunctionDefs(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	catalog, err := newLocationCatalog(loc, items, defs)
	if err != nil {
		return nil, err
	}

	if store != nil {
		storeCatalog(cfg, store, catalog)
	}
	return catalog, nil
}

// checkCatalogHit attempts to retrieve and validate a cached catalog.
func checkCatalogHit(cfg *contract.Config, store contract.CatalogStore, loc *schema.LocationNode) *LocationCatalog {
	record, err := store.Get(cfg.Tenant, cfg.Site, loc.ID)
	if err != nil || record == nil {
		return nil // Cache miss
	}
	if time.Since(record.FetchedAt) > cfg.CacheTTL {
		return nil // Cache miss (stale)
	}

	var items []schema.DataItemDescriptor
	if err := json.Unmarshal([]byte(record.ItemsJSON), &items); err != nil {
		return nil
	}
	var defs []schema.KpiFunctionDef
	if err := json.Unmarshal([]byte(record.DefsJSON), &defs); err != nil {
		return nil
	}
	catalog, err := newLocationCatalog(loc, items, defs)
	if err != nil {
		return nil // Entry predates a validation rule, refetch
	}
	return catalog
}

// storeCatalog writes a freshly loaded catalog back to the store.
func storeCatalog(cfg *contract.Config, store contract.CatalogStore, catalog *LocationCatalog) {
	itemsJSON, err := json.Marshal(catalog.Items)
	if err != nil {
		return
	}
	defsJSON, err := json.Marshal(catalog.Defs)
	if err != nil {
		return
	}
	record := schema.CatalogRecord{
		Tenant:     cfg.Tenant,
		Site:       cfg.Site,
		LocationID: catalog.Location.ID,
		ItemsJSON:  string(itemsJSON),
		DefsJSON:   string(defsJSON),
		FetchedAt:  time.Now(),
	}
	if err := store.Put(record); err != nil {
		contract.LogWarn("Catalog cache write failed", err)
	}
}

// newLocationCatalog validates and normalizes fetched metadata. The
// descriptor record is closed: an unknown data type or grain anywhere
// fails the whole location, as does a duplicate item name.
func newLocationCatalog(loc *schema.LocationNode, items []schema.DataItemDescriptor, defs []schema.KpiFunctionDef) (*LocationCatalog, error) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("location %s: data item with empty name", loc.ID)
		}
		if _, ok := seen[item.Name]; ok {
			return nil, fmt.Errorf("location %s: duplicate data item %q", loc.ID, item.Name)
		}
		seen[item.Name] = struct{}{}
		if _, ok := schema.ValidDataTypes[item.DataType]; !ok {
			return nil, fmt.Errorf("location %s: data item %q has unknown data type %q", loc.ID, item.Name, item.DataType)
		}
		if !item.Grain.Valid() {
			return nil, fmt.Errorf("location %s: data item %q has unknown grain %q", loc.ID, item.Name, item.Grain)
		}
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("location %s: function definition with empty name", loc.ID)
		}
		if !def.Grain.Valid() {
			return nil, fmt.Errorf("location %s: definition %q has unknown grain %q", loc.ID, def.Name, def.Grain)
		}
	}

	sorted := &LocationCatalog{
		Location: loc,
		Items:    append([]schema.DataItemDescriptor(nil), items...),
		Defs:     append([]schema.KpiFunctionDef(nil), defs...),
	}
	sort.Slice(sorted.Items, func(i, j int) bool {
		return sorted.Items[i].Name < sorted.Items[j].Name
	})
	sort.Slice(sorted.Defs, func(i, j int) bool {
		return sorted.Defs[i].Name < sorted.Defs[j].Name
	})
	return sorted, nil
}
