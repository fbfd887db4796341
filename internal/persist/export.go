package persist

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/parquet"
)

// ErrNoStore is returned when a store command runs without an initialized store.
var ErrNoStore = errors.New("forecast store is not initialized")

// ExecuteStoreExport exports every stored row to a Parquet file.
func ExecuteStoreExport(ctx context.Context, w io.Writer, mgr contract.StoreManager, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetForecastStore()
	if store == nil {
		return ErrNoStore
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRecords == 0 {
		return errors.New("no enrollment data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	records, err := store.GetAllRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve records: %w", err)
	}

	rows := parquet.FromStoredRecords(records)
	if err := parquet.WriteEnrollmentRecordsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d records (%d actual, %d forecast) to: %s\n",
		len(rows), status.ActualRows, status.ForecastRows, outputFile)

	return nil
}
