package persist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/enrollcast/schema"
)

func TestMigrateStore_NoneBackend(t *testing.T) {
	err := MigrateStore(&bytes.Buffer{}, schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no schema to migrate")
}

func TestMigrateStore_Unsupported(t *testing.T) {
	err := MigrateStore(&bytes.Buffer{}, "oracle", "", -1)
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")
	var out bytes.Buffer

	// Run migration to latest version
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (no-op)
	out.Reset()
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	// Step down to version 1, then roll back everything
	assert.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 0))

	// Migrate back up to version 1
	assert.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 1))
}

func TestMigrateStore_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateStore(&bytes.Buffer{}, schema.SQLiteBackend, ":memory:", -1))
}

func TestMigratedSchemaAcceptsStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrated.db")
	require.NoError(t, MigrateStore(&bytes.Buffer{}, schema.SQLiteBackend, dbPath, -1))

	store, err := NewForecastStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	n, err := store.UpsertRecords(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
