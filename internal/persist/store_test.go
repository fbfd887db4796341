package persist

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/enrollcast/schema"
)

func newTestStore(t *testing.T) *ForecastStoreImpl {
	t.Helper()
	store, err := NewForecastStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr(v float64) *float64 { return &v }

func sampleRecords() []schema.PersistedRecord {
	return []schema.PersistedRecord{
		{CourseCode: "BSCS", Year: 2021, Enrollment: 120, IsActual: true},
		{CourseCode: "BSCS", Year: 2020, Enrollment: 100, IsActual: true},
		{CourseCode: "BSCS", Year: 2023, Enrollment: 162.5, LowerBound: ptr(140), UpperBound: ptr(180)},
		{CourseCode: schema.GrandTotal, Year: 2021, Enrollment: 900, IsActual: true},
	}
}

func TestForecastStoreUpsertAndRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	n, err := store.UpsertRecords(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	records, err := store.GetRecords(ctx, "BSCS")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Ordered by year
	assert.Equal(t, 2020, records[0].Year)
	assert.Equal(t, 2021, records[1].Year)
	assert.Equal(t, 2023, records[2].Year)

	assert.True(t, records[0].IsActual)
	assert.Nil(t, records[0].LowerBound)
	assert.False(t, records[2].IsActual)
	require.NotNil(t, records[2].LowerBound)
	require.NotNil(t, records[2].UpperBound)
	assert.Equal(t, 140.0, *records[2].LowerBound)
	assert.Equal(t, 180.0, *records[2].UpperBound)
	assert.False(t, records[2].CreatedAt.IsZero())

	all, err := store.GetAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "BSCS", all[0].CourseCode)
	assert.Equal(t, schema.GrandTotal, all[3].CourseCode)
}

func TestForecastStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	store.now = func() time.Time { return first }
	_, err := store.UpsertRecords(ctx, sampleRecords())
	require.NoError(t, err)

	store.now = func() time.Time { return second }
	_, err = store.UpsertRecords(ctx, []schema.PersistedRecord{
		{CourseCode: "BSCS", Year: 2023, Enrollment: 170, LowerBound: ptr(150), UpperBound: ptr(185)},
	})
	require.NoError(t, err)

	records, err := store.GetRecords(ctx, "BSCS")
	require.NoError(t, err)
	require.Len(t, records, 3, "upsert must not duplicate (course_code, year)")

	updated := records[2]
	assert.Equal(t, 170.0, updated.Enrollment)
	assert.Equal(t, 150.0, *updated.LowerBound)
	assert.True(t, updated.CreatedAt.Equal(first), "created_at is preserved")
	assert.True(t, updated.UpdatedAt.Equal(second), "updated_at is refreshed")

	untouched := records[0]
	assert.True(t, untouched.UpdatedAt.Equal(first))
}

func TestForecastStoreUpsertEmpty(t *testing.T) {
	store := newTestStore(t)
	n, err := store.UpsertRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestForecastStoreUpsertCanceled(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.UpsertRecords(ctx, sampleRecords())
	require.Error(t, err)

	all, err := store.GetAllRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestForecastStoreStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRecords)

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	store.now = func() time.Time { return ts }
	_, err = store.UpsertRecords(ctx, sampleRecords())
	require.NoError(t, err)

	status, err = store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, status.TotalRecords)
	assert.Equal(t, 3, status.ActualRows)
	assert.Equal(t, 1, status.ForecastRows)
	assert.Equal(t, 2, status.Programs)
	assert.Equal(t, 2020, status.MinYear)
	assert.Equal(t, 2023, status.MaxYear)
	assert.True(t, status.LastUpdated.Equal(ts))

	var buf bytes.Buffer
	PrintStoreStatus(&buf, status)
	assert.Contains(t, buf.String(), "Total Records: 4")
	assert.Contains(t, buf.String(), "Years: 2020-2023")
}

func TestNoneBackendStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewForecastStore(schema.NoneBackend, "")
	require.NoError(t, err)

	n, err := store.UpsertRecords(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := store.GetAllRecords(ctx)
	require.NoError(t, err)
	assert.Nil(t, records)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)

	var buf bytes.Buffer
	PrintStoreStatus(&buf, status)
	assert.Equal(t, "Store Backend: none\nConnected: false\n", buf.String())
	assert.NoError(t, store.Close())
}

func TestNewForecastStoreErrors(t *testing.T) {
	_, err := NewForecastStore("oracle", "")
	assert.Error(t, err)

	_, err = newForecastStore("bad-table; DROP", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewForecastStore(schema.MySQLBackend, "not a dsn")
	assert.Error(t, err)
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, validateTableName("enrollment_data"))
	assert.NoError(t, validateTableName("_t1"))
	assert.Error(t, validateTableName("1table"))
	assert.Error(t, validateTableName("a-b"))
	assert.Error(t, validateTableName(""))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`enrollment_data`", quoteTableName("enrollment_data", schema.MySQLBackend))
	assert.Equal(t, `"enrollment_data"`, quoteTableName("enrollment_data", schema.PostgreSQLBackend))
	assert.Equal(t, `"enrollment_data"`, quoteTableName("enrollment_data", schema.SQLiteBackend))
}

func TestWithParseTime(t *testing.T) {
	dsn, err := withParseTime("user:pass@tcp(localhost:3306)/enroll")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestTimeScanner(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)

	var ts timeScanner
	require.NoError(t, ts.Scan(want.Format(sqliteTimeLayout)))
	assert.True(t, ts.t.Equal(want))

	require.NoError(t, ts.Scan([]byte("2024-01-02 03:04:05")))
	assert.Equal(t, 5, ts.t.Second())

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.t.IsZero())

	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("yesterday"))
}
