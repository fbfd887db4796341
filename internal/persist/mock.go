package persist

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetForecastStore implements the StoreManager interface.
func (m *MockStoreManager) GetForecastStore() contract.ForecastStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ForecastStore)
	return store
}

// MockForecastStore is a mock implementation of ForecastStore for testing.
type MockForecastStore struct {
	mock.Mock
}

var _ contract.ForecastStore = &MockForecastStore{} // Compile-time check

// UpsertRecords implements the ForecastStore interface.
func (m *MockForecastStore) UpsertRecords(ctx context.Context, records []schema.PersistedRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

// GetRecords implements the ForecastStore interface.
func (m *MockForecastStore) GetRecords(ctx context.Context, courseCode string) ([]schema.StoredRecord, error) {
	args := m.Called(ctx, courseCode)
	records, _ := args.Get(0).([]schema.StoredRecord)
	return records, args.Error(1)
}

// GetAllRecords implements the ForecastStore interface.
func (m *MockForecastStore) GetAllRecords(ctx context.Context) ([]schema.StoredRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.StoredRecord)
	return records, args.Error(1)
}

// GetStatus implements the ForecastStore interface.
func (m *MockForecastStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ForecastStore interface.
func (m *MockForecastStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
