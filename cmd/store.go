package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/enrollcast/core"
	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/persist"
	"github.com/huangsam/enrollcast/schema"
)

// storeBackendFromViper reads and validates the store settings without the full shared setup.
func storeBackendFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without an input file.
func storeSetup() error {
	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}

	if err := persist.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads the store settings without opening the store,
// so migrations can run against a fresh database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}

	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = persist.GetDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// storeCmd focused on forecast store management.
//
// Store subcommands other than show skip the shared setup, so they work
// without an input file.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored actual and forecast enrollment rows",
	Long: `Manage the rows written by 'enrollcast forecast --persist'.

Each row is keyed by program code and year. Actual rows come from the input
history, forecast rows carry their interval bounds. Re-running a forecast
updates rows in place and keeps their creation time.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show row counts and connection details
  clear   - Remove all stored rows
  migrate - Run database schema migrations
  export  - Export every row to Parquet
  show    - Print the rows of one program

Examples:
  # Check what has been stored
  enrollcast store status

  # Read back the grand total
  enrollcast store show --program "All Colleges"`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, the connection state, row counts split by actual and
forecast, the number of programs, the covered years and the last update time.

Examples:
  enrollcast store status
  ENROLLCAST_STORE_BACKEND=none enrollcast store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := persist.Manager.GetForecastStore()
		if store == nil {
			contract.LogFatal("Failed to get store status", persist.ErrNoStore)
		}
		status, err := store.GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		persist.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd removes every stored row.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored enrollment rows",
	Long: `Delete every stored actual and forecast row.

For SQLite the database file is removed. For MySQL and PostgreSQL the table
is dropped and recreated on the next run.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  enrollcast store export --output-file backup.parquet
  enrollcast store clear`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		// storeMigrateSetup resolves the SQLite file into StoreDBConnect
		dbFilePath := cfg.StoreDBConnect
		if err := persist.ClearStore(cfg.StoreBackend, dbFilePath, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs database migrations for the forecast store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the forecast store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  enrollcast store migrate

  # Migrate to specific version
  enrollcast store migrate --target-version 1

  # Rollback everything
  enrollcast store migrate --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := persist.MigrateStore(os.Stdout, cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// storeExportCmd exports every stored row to a Parquet file.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored rows to Parquet for BI tools and analytics",
	Long: `Export every stored row, ordered by program and year, to a Parquet file.

Requires: --output-file parameter

Examples:
  enrollcast store export --output-file enrollment.parquet
  duckdb -c "SELECT * FROM read_parquet('enrollment.parquet') WHERE NOT is_actual"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := persist.ExecuteStoreExport(rootCtx, os.Stdout, persist.Manager, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}

// storeShowCmd prints the stored rows of one program.
var storeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored rows of one program ordered by year",
	Long: `Read back the actual and forecast rows of the program given by --program.
GRAND_TOTAL is shown when no program is given.

Examples:
  enrollcast store show
  enrollcast store show --program BSCS --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStoreShow(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Failed to show stored rows", err)
		}
	},
}
