package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/schema"
)

// Manager is the process-wide store holder used by the CLI.
var (
	Manager   = &ForecastStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath is the SQLite file used when no connection string is given.
func GetDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// InitStore opens the store for backend once per process. Later calls are
// no-ops. An empty backend leaves Manager without a store.
func InitStore(backend schema.DatabaseBackend, connStr string) (err error) {
	initOnce.Do(func() {
		if backend == "" {
			return
		}
		var store *ForecastStoreImpl
		if store, err = NewForecastStore(backend, connStr); err != nil {
			err = fmt.Errorf("cannot open %s store: %w", backend, err)
			return
		}
		Manager.set(store)
	})
	return err
}

// CloseStore releases the store. It is safe to call more than once.
func CloseStore() {
	closeOnce.Do(func() {
		if store := Manager.set(nil); store != nil {
			_ = store.Close()
		}
	})
}

// ClearStore deletes every stored row. SQLite loses its database file,
// MySQL and PostgreSQL lose the table, and the none backend is untouched.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return errors.New("a database file path is required to clear a sqlite store")
		}
		if err := os.Remove(dbFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot remove %s: %w", dbFilePath, err)
		}
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropTable(backend, connStr, schema.EnrollmentTable)
	case schema.NoneBackend:
		return nil
	}
	return fmt.Errorf("unsupported store backend for clearing: %s", backend)
}

func dropTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}
	db, err := openRaw(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("DROP TABLE IF EXISTS " + quoteTableName(tableName, backend)); err != nil {
		return fmt.Errorf("cannot drop %s: %w", tableName, err)
	}
	return nil
}

// openRaw opens a verified connection for callers that manage the schema themselves.
func openRaw(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot reach %s database: %w", backend, err)
	}
	return db, nil
}
