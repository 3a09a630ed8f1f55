package persist

import (
	"context"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSnapshotStore implements the StoreManager interface.
func (m *MockStoreManager) GetSnapshotStore() contract.SnapshotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SnapshotStore)
	return store
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing.
type MockSnapshotStore struct {
	mock.Mock
}

var _ contract.SnapshotStore = &MockSnapshotStore{} // Compile-time check

// Save implements the SnapshotStore interface.
func (m *MockSnapshotStore) Save(ctx context.Context, snapshot schema.RankingSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// Promote implements the SnapshotStore interface.
func (m *MockSnapshotStore) Promote(ctx context.Context, snapshot schema.RankingSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// PromoteExisting implements the SnapshotStore interface.
func (m *MockSnapshotStore) PromoteExisting(ctx context.Context, snapshotID string) error {
	args := m.Called(ctx, snapshotID)
	return args.Error(0)
}

// GetCurrent implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetCurrent(ctx context.Context) (*schema.SnapshotRecord, error) {
	args := m.Called(ctx)
	rec, _ := args.Get(0).(*schema.SnapshotRecord)
	return rec, args.Error(1)
}

// GetSnapshot implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetSnapshot(ctx context.Context, snapshotID string) (*schema.SnapshotRecord, error) {
	args := m.Called(ctx, snapshotID)
	rec, _ := args.Get(0).(*schema.SnapshotRecord)
	return rec, args.Error(1)
}

// ListSnapshots implements the SnapshotStore interface.
func (m *MockSnapshotStore) ListSnapshots(ctx context.Context, limit int) ([]schema.SnapshotRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]schema.SnapshotRecord)
	return records, args.Error(1)
}

// GetAllSnapshots implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetAllSnapshots(ctx context.Context) ([]schema.SnapshotRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.SnapshotRecord)
	return records, args.Error(1)
}

// GetStatus implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the SnapshotStore interface.
func (m *MockSnapshotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
