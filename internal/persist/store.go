package persist

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/schema"
)

// sqliteTimeLayout keeps a fixed-width fraction so stored text sorts chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// tableNamePattern matches identifiers that are safe to interpolate into SQL.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ForecastStoreImpl implements the ForecastStore interface on database/sql.
type ForecastStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
	now       func() time.Time
}

var _ contract.ForecastStore = &ForecastStoreImpl{} // Compile-time check

// NewForecastStore opens the store for the backend and creates its table if needed.
func NewForecastStore(backend schema.DatabaseBackend, connStr string) (*ForecastStoreImpl, error) {
	return newForecastStore(schema.EnrollmentTable, backend, connStr)
}

func newForecastStore(tableName string, backend schema.DatabaseBackend, connStr string) (*ForecastStoreImpl, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	store := &ForecastStoreImpl{
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
		now:       time.Now,
	}
	if backend == schema.NoneBackend {
		// No-op store for disabled persistence
		return store, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	if _, err := db.Exec(getCreateTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	store.db = db
	return store, nil
}

// openDB opens a connection pool for the backend without verifying it.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		dsn, err := withParseTime(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}
		return db, nil

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// withParseTime makes the MySQL driver scan DATETIME columns into time.Time.
func withParseTime(connStr string) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
func getCreateTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				course_code VARCHAR(64) NOT NULL,
				year INT NOT NULL,
				enrollment DOUBLE NOT NULL,
				is_actual BOOLEAN NOT NULL,
				lower_bound DOUBLE,
				upper_bound DOUBLE,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				PRIMARY KEY (course_code, year)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				course_code TEXT NOT NULL,
				year INT NOT NULL,
				enrollment DOUBLE PRECISION NOT NULL,
				is_actual BOOLEAN NOT NULL,
				lower_bound DOUBLE PRECISION,
				upper_bound DOUBLE PRECISION,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (course_code, year)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				course_code TEXT NOT NULL,
				year INTEGER NOT NULL,
				enrollment REAL NOT NULL,
				is_actual INTEGER NOT NULL,
				lower_bound REAL,
				upper_bound REAL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (course_code, year)
			);
		`, quotedTableName)
	}
}

// UpsertRecords writes all records in one transaction. Existing rows keep
// their created_at and get a fresh updated_at.
func (fs *ForecastStoreImpl) UpsertRecords(ctx context.Context, records []schema.PersistedRecord) (int, error) {
	if fs.db == nil || len(records) == 0 {
		return 0, nil
	}

	tx, err := fs.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fs.getUpsertQuery())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ts := formatTime(fs.now().UTC(), fs.backend)
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.CourseCode, r.Year, r.Enrollment, r.IsActual,
			nullableFloat(r.LowerBound), nullableFloat(r.UpperBound),
			ts, ts,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert %s/%d: %w", r.CourseCode, r.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}
	return len(records), nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (fs *ForecastStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(fs.tableName, fs.backend)
	columns := selectColumns

	switch fs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE enrollment = new.enrollment, is_actual = new.is_actual,
			lower_bound = new.lower_bound, upper_bound = new.upper_bound, updated_at = new.updated_at`, quotedTableName, columns)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (course_code, year) DO UPDATE SET enrollment = EXCLUDED.enrollment, is_actual = EXCLUDED.is_actual,
			lower_bound = EXCLUDED.lower_bound, upper_bound = EXCLUDED.upper_bound, updated_at = EXCLUDED.updated_at`, quotedTableName, columns)

	default: // SQLite
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (course_code, year) DO UPDATE SET enrollment = excluded.enrollment, is_actual = excluded.is_actual,
			lower_bound = excluded.lower_bound, upper_bound = excluded.upper_bound, updated_at = excluded.updated_at`, quotedTableName, columns)
	}
}

// GetRecords returns the rows of one program ordered by year.
func (fs *ForecastStoreImpl) GetRecords(ctx context.Context, courseCode string) ([]schema.StoredRecord, error) {
	if fs.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE course_code = %s ORDER BY year",
		selectColumns, quoteTableName(fs.tableName, fs.backend), fs.getPlaceholder())
	return fs.queryRecords(ctx, query, courseCode)
}

// GetAllRecords returns every row ordered by program and year.
func (fs *ForecastStoreImpl) GetAllRecords(ctx context.Context) ([]schema.StoredRecord, error) {
	if fs.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY course_code, year",
		selectColumns, quoteTableName(fs.tableName, fs.backend))
	return fs.queryRecords(ctx, query)
}

const selectColumns = "course_code, year, enrollment, is_actual, lower_bound, upper_bound, created_at, updated_at"

func (fs *ForecastStoreImpl) queryRecords(ctx context.Context, query string, args ...any) ([]schema.StoredRecord, error) {
	rows, err := fs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.StoredRecord
	for rows.Next() {
		var r schema.StoredRecord
		var lower, upper sql.NullFloat64
		var createdAt, updatedAt timeScanner
		createdAt.backend, updatedAt.backend = fs.backend, fs.backend

		if err := rows.Scan(&r.CourseCode, &r.Year, &r.Enrollment, &r.IsActual, &lower, &upper, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if lower.Valid {
			r.LowerBound = &lower.Float64
		}
		if upper.Valid {
			r.UpperBound = &upper.Float64
		}
		r.CreatedAt, r.UpdatedAt = createdAt.t, updatedAt.t
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// GetStatus returns status information about the forecast store.
func (fs *ForecastStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(fs.backend),
		Connected: fs.db != nil,
	}
	if fs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(fs.tableName, fs.backend)
	countQuery := fmt.Sprintf(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN is_actual THEN 1 ELSE 0 END), 0),
		COUNT(DISTINCT course_code),
		COALESCE(MIN(year), 0),
		COALESCE(MAX(year), 0)
		FROM %s`, quotedTableName)
	row := fs.db.QueryRowContext(ctx, countQuery)
	if err := row.Scan(&status.TotalRecords, &status.ActualRows, &status.Programs, &status.MinYear, &status.MaxYear); err != nil {
		return status, fmt.Errorf("failed to get record counts: %w", err)
	}
	status.ForecastRows = status.TotalRecords - status.ActualRows

	if status.TotalRecords > 0 {
		lastQuery := fmt.Sprintf("SELECT updated_at FROM %s ORDER BY updated_at DESC LIMIT 1", quotedTableName)
		last := timeScanner{backend: fs.backend}
		if err := fs.db.QueryRowContext(ctx, lastQuery).Scan(&last); err != nil {
			return status, fmt.Errorf("failed to get last update time: %w", err)
		}
		status.LastUpdated = last.t
	}

	return status, nil
}

// Close closes the underlying DB connection.
func (fs *ForecastStoreImpl) Close() error {
	if fs.db != nil {
		return fs.db.Close()
	}
	return nil
}

// getPlaceholder returns the first parameter placeholder for the backend.
func (fs *ForecastStoreImpl) getPlaceholder() string {
	switch fs.backend {
	case schema.PostgreSQLBackend:
		return "$1"
	default: // SQLite and MySQL
		return "?"
	}
}

// validateTableName rejects identifiers that cannot be safely interpolated.
func validateTableName(tableName string) error {
	if !tableNamePattern.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q: must start with a letter or underscore and contain only letters, digits and underscores", tableName)
	}
	return nil
}

// quoteTableName quotes the identifier for the backend.
func quoteTableName(tableName string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + tableName + "`"
	}
	return `"` + tableName + `"`
}

// formatTime converts a timestamp to the column representation of the backend.
// SQLite stores RFC3339 text, the others store native timestamps.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(sqliteTimeLayout)
	default:
		return t
	}
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// timeScanner reads a timestamp column stored as text or as a native value.
type timeScanner struct {
	backend schema.DatabaseBackend
	t       time.Time
}

// Scan implements sql.Scanner.
func (ts *timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.t = time.Time{}
		return nil
	case time.Time:
		ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T for %s", src, ts.backend)
	}
}

func (ts *timeScanner) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("failed to parse timestamp %q", s)
}
