package persist

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/huangsam/enrollcast/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationDirs maps each backend to its embedded migration directory.
var migrationDirs = map[schema.DatabaseBackend]string{
	schema.SQLiteBackend:     "migrations/sqlite",
	schema.MySQLBackend:      "migrations/mysql",
	schema.PostgreSQLBackend: "migrations/postgresql",
}

// MigrateStore moves the enrollment schema to targetVersion and reports the
// transition on w. A negative target means the latest version and 0 removes
// every migration.
func MigrateStore(w io.Writer, backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return errors.New("store backend none has no schema to migrate")
	}
	dir, ok := migrationDirs[backend]
	if !ok {
		return fmt.Errorf("unsupported backend: %s", backend)
	}

	db, err := openRaw(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m, err := newMigrator(db, backend, dir)
	if err != nil {
		return err
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("cannot read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema is dirty at version %d; repair it by hand before migrating", from)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		_, _ = fmt.Fprintf(w, "No migration needed. Schema is already at version %d\n", from)
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot migrate from version %d: %w", from, err)
	}

	to, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		to, err = 0, nil
	}
	if err != nil {
		return fmt.Errorf("cannot read schema version: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Migrated schema from version %d to version %d\n", from, to)
	return nil
}

// newMigrator binds the embedded migrations in dir to an open connection.
func newMigrator(db *sql.DB, backend schema.DatabaseBackend, dir string) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot open embedded migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("cannot read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "enrollcast", driver)
	if err != nil {
		return nil, fmt.Errorf("cannot create migrator: %w", err)
	}
	return m, nil
}
