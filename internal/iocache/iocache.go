// Package iocache is for caching I/O calls.
package iocache

import (
	"sync"

	"github.com/kpitree/kpitree/internal/contract"
)

// CacheStoreManager manages the catalog and snapshot store instances.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	catalog      contract.CatalogStore
	snapshot     contract.SnapshotStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetCatalogStore returns the catalog CatalogStore.
func (mgr *CacheStoreManager) GetCatalogStore() contract.CatalogStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.catalog
}

// GetSnapshotStore returns the snapshot SnapshotStore.
func (mgr *CacheStoreManager) GetSnapshotStore() contract.SnapshotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshot
}

// CloseAll closes every configured store. Both stores share one database
// connection, so the second Close is a no-op.
func (mgr *CacheStoreManager) CloseAll() error {
	mgr.Lock()
	defer mgr.Unlock()

	var firstErr error
	if mgr.catalog != nil {
		if err := mgr.catalog.Close(); err != nil {
			firstErr = err
		}
	}
	if mgr.snapshot != nil {
		if err := mgr.snapshot.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
