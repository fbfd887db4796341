package persist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/enrollcast/internal/parquet"
	"github.com/huangsam/enrollcast/schema"
)

func resetManager() {
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &ForecastStoreManager{}
}

func TestInitStore(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "init.db")

		require.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
		assert.NotNil(t, Manager.GetForecastStore())

		CloseStore()
		assert.Nil(t, Manager.GetForecastStore(), "closed store is released")
		_, err := os.Stat(dbPath)
		assert.NoError(t, err, "database file was created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "init.db")

		assert.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
		assert.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
		first := Manager.GetForecastStore()
		assert.NoError(t, InitStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "other.db")))
		assert.Same(t, first, Manager.GetForecastStore())

		CloseStore()
		CloseStore()
	})

	t.Run("empty backend", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitStore("", ""))
		assert.Nil(t, Manager.GetForecastStore())
		CloseStore()
	})

	t.Run("concurrent setup", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "init.db")

		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				assert.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
			})
		}
		wg.Wait()
		assert.NotNil(t, Manager.GetForecastStore())
		CloseStore()
	})

	t.Run("bad backend", func(t *testing.T) {
		resetManager()
		err := InitStore("oracle", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetForecastStore())
	})
}

func TestClearStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clear.db")
	store, err := NewForecastStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing a missing file is not an error
	assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	assert.Error(t, ClearStore("oracle", "", ""))
}

func TestExecuteStoreExport(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.UpsertRecords(ctx, sampleRecords())
	require.NoError(t, err)

	mgr := &MockStoreManager{}
	mgr.On("GetForecastStore").Return(store)

	outputFile := filepath.Join(t.TempDir(), "export.parquet")
	var buf bytes.Buffer
	require.NoError(t, ExecuteStoreExport(ctx, &buf, mgr, outputFile))
	assert.Contains(t, buf.String(), "Exported 4 records (3 actual, 1 forecast)")

	info, err := os.Stat(outputFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	mgr.AssertExpectations(t)
}

func TestExecuteStoreExportErrors(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	t.Run("missing output file", func(t *testing.T) {
		err := ExecuteStoreExport(ctx, &buf, &MockStoreManager{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("no store", func(t *testing.T) {
		mgr := &MockStoreManager{}
		mgr.On("GetForecastStore").Return(nil)
		err := ExecuteStoreExport(ctx, &buf, mgr, "out.parquet")
		assert.ErrorIs(t, err, ErrNoStore)
	})

	t.Run("empty store", func(t *testing.T) {
		store := &MockForecastStore{}
		store.On("GetStatus", mock.Anything).Return(schema.StoreStatus{Backend: "sqlite", Connected: true}, nil)
		mgr := &MockStoreManager{}
		mgr.On("GetForecastStore").Return(store)

		err := ExecuteStoreExport(ctx, &buf, mgr, "out.parquet")
		assert.ErrorContains(t, err, "no enrollment data")
		store.AssertNotCalled(t, "GetAllRecords", mock.Anything)
	})
}

func TestExportedRowsMatchStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.UpsertRecords(ctx, sampleRecords())
	require.NoError(t, err)

	stored, err := store.GetAllRecords(ctx)
	require.NoError(t, err)

	rows := parquet.FromStoredRecords(stored)
	require.Len(t, rows, len(stored))
	for i := range rows {
		assert.Equal(t, stored[i].CourseCode, rows[i].CourseCode)
		assert.Equal(t, int32(stored[i].Year), rows[i].Year)
		assert.NotNil(t, rows[i].CreatedAt)
	}
}
