// Package persist is for storing actual and forecast enrollment rows.
package persist

import (
	"sync"

	"github.com/huangsam/enrollcast/internal/contract"
)

// ForecastStoreManager manages the ForecastStore instance.
type ForecastStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.ForecastStore
}

var _ contract.StoreManager = &ForecastStoreManager{} // Compile-time check

// GetForecastStore returns the forecast store, or nil when none is initialized.
func (mgr *ForecastStoreManager) GetForecastStore() contract.ForecastStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// set swaps in store and returns the previous one.
func (mgr *ForecastStoreManager) set(store contract.ForecastStore) contract.ForecastStore {
	mgr.Lock()
	defer mgr.Unlock()
	prev := mgr.store
	mgr.store = store
	return prev
}
