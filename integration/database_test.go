//go:build database

package integration

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/huangsam/enrollcast/internal/persist"
	"github.com/huangsam/enrollcast/schema"
)

// startMySQL starts a MySQL container and returns its connection string.
func startMySQL(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "enrollcast",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/enrollcast", host, port.Port())
}

// startPostgres starts a PostgreSQL container and returns its connection string.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		// The init server logs readiness once before restarting
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// exerciseStore runs migrations and upserts against a live backend through the persist API.
func exerciseStore(ctx context.Context, t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	require.NoError(t, persist.ClearStore(backend, "", connStr))
	require.NoError(t, persist.MigrateStore(io.Discard, backend, connStr, -1))

	store, err := persist.NewForecastStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	lower, upper := 880.0, 960.0
	records := []schema.PersistedRecord{
		{CourseCode: schema.GrandTotal, Year: 2021, Enrollment: 760, IsActual: true},
		{CourseCode: schema.GrandTotal, Year: 2022, Enrollment: 820, IsActual: true},
		{CourseCode: schema.GrandTotal, Year: 2023, Enrollment: 910, LowerBound: &lower, UpperBound: &upper},
	}
	n, err := store.UpsertRecords(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	before, err := store.GetRecords(ctx, schema.GrandTotal)
	require.NoError(t, err)
	require.Len(t, before, 3)

	time.Sleep(10 * time.Millisecond)
	records[2].Enrollment = 915
	_, err = store.UpsertRecords(ctx, records[2:])
	require.NoError(t, err)

	after, err := store.GetRecords(ctx, schema.GrandTotal)
	require.NoError(t, err)
	require.Len(t, after, 3, "upsert must not duplicate (course_code, year)")
	assert.Equal(t, 915.0, after[2].Enrollment)
	require.NotNil(t, after[2].LowerBound)
	assert.Equal(t, 880.0, *after[2].LowerBound)
	assert.True(t, after[2].CreatedAt.Equal(before[2].CreatedAt), "created_at is preserved")
	assert.True(t, after[2].UpdatedAt.After(before[2].UpdatedAt), "updated_at is refreshed")
	assert.Nil(t, after[0].LowerBound)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRecords)
	assert.Equal(t, 2, status.ActualRows)
	assert.Equal(t, 1, status.ForecastRows)
	assert.Equal(t, 2021, status.MinYear)
	assert.Equal(t, 2023, status.MaxYear)

	exportPath := filepath.Join(t.TempDir(), "export.parquet")
	mgr := &persist.MockStoreManager{}
	mgr.On("GetForecastStore").Return(store)
	require.NoError(t, persist.ExecuteStoreExport(ctx, io.Discard, mgr, exportPath))
	assert.FileExists(t, exportPath)

	require.NoError(t, persist.MigrateStore(io.Discard, backend, connStr, 0))
	require.NoError(t, persist.ClearStore(backend, "", connStr))
}

// exerciseCLI runs the store lifecycle through the binary.
func exerciseCLI(t *testing.T, backend, connStr string) {
	t.Helper()
	useStore(t, backend, connStr)
	input := writeHistory(t)

	_, err := runEnrollcast(t, "store", "clear")
	require.NoError(t, err)

	out, err := runEnrollcast(t, "store", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "to version 2")

	for range 2 {
		_, err = runEnrollcast(t, "forecast", input, "--persist")
		require.NoError(t, err)
	}

	out, err = runEnrollcast(t, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Records: 22")

	out, err = runEnrollcast(t, "store", "show", "--program", "bscs", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "BSCS,2025,")

	_, err = runEnrollcast(t, "store", "clear")
	require.NoError(t, err)
}

// TestEnrollcastWithMySQL tests the store and the CLI with a MySQL backend.
func TestEnrollcastWithMySQL(t *testing.T) {
	ctx := context.Background()
	connStr := startMySQL(ctx, t)

	t.Run("store", func(t *testing.T) {
		exerciseStore(ctx, t, schema.MySQLBackend, connStr)
	})
	t.Run("cli", func(t *testing.T) {
		exerciseCLI(t, string(schema.MySQLBackend), connStr)
	})
}

// TestEnrollcastWithPostgres tests the store and the CLI with a PostgreSQL backend.
func TestEnrollcastWithPostgres(t *testing.T) {
	ctx := context.Background()
	connStr := startPostgres(ctx, t)

	t.Run("store", func(t *testing.T) {
		exerciseStore(ctx, t, schema.PostgreSQLBackend, connStr)
	})
	t.Run("cli", func(t *testing.T) {
		exerciseCLI(t, string(schema.PostgreSQLBackend), connStr)
	})
}
