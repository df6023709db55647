package iocache

import (
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetCatalogStore implements the CacheManager interface.
func (m *MockCacheManager) GetCatalogStore() contract.CatalogStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CatalogStore)
	return store
}

// GetSnapshotStore implements the CacheManager interface.
func (m *MockCacheManager) GetSnapshotStore() contract.SnapshotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SnapshotStore)
	return store
}

// CloseAll implements the CacheManager interface.
func (m *MockCacheManager) CloseAll() error {
	args := m.Called()
	return args.Error(0)
}

// MockCatalogStore is a mock implementation of CatalogStore for testing.
type MockCatalogStore struct {
	mock.Mock
}

var _ contract.CatalogStore = &MockCatalogStore{} // Compile-time check

// Get implements the CatalogStore interface.
func (m *MockCatalogStore) Get(tenant, site, locationID string) (*schema.CatalogRecord, error) {
	args := m.Called(tenant, site, locationID)
	record, _ := args.Get(0).(*schema.CatalogRecord)
	return record, args.Error(1)
}

// Put implements the CatalogStore interface.
func (m *MockCatalogStore) Put(record schema.CatalogRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

// Clear implements the CatalogStore interface.
func (m *MockCatalogStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CatalogStore interface.
func (m *MockCatalogStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.CacheStatus)
	return status, args.Error(1)
}

// Close implements the CatalogStore interface.
func (m *MockCatalogStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing.
type MockSnapshotStore struct {
	mock.Mock
}

var _ contract.SnapshotStore = &MockSnapshotStore{} // Compile-time check

// RecordRun implements the SnapshotStore interface.
func (m *MockSnapshotStore) RecordRun(run schema.RunRecord) (int64, error) {
	args := m.Called(run)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

// ListRuns implements the SnapshotStore interface.
func (m *MockSnapshotStore) ListRuns(limit int) ([]schema.RunRecord, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// Clear implements the SnapshotStore interface.
func (m *MockSnapshotStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements the SnapshotStore interface.
func (m *MockSnapshotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
