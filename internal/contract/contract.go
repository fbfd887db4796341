// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/enrollcast/schema"
)

// StoreManager defines the interface for reaching the forecast store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetForecastStore() ForecastStore
}

// ForecastStore is the sink for PersistedRecord batches and the source for read-back.
type ForecastStore interface {
	// UpsertRecords writes records keyed by (course_code, year), overwriting
	// existing rows, and returns the number of rows written.
	UpsertRecords(ctx context.Context, records []schema.PersistedRecord) (int, error)

	// GetRecords returns the stored rows of one program ordered by year.
	GetRecords(ctx context.Context, courseCode string) ([]schema.StoredRecord, error)

	// GetAllRecords returns every stored row ordered by program and year.
	GetAllRecords(ctx context.Context) ([]schema.StoredRecord, error)

	// GetStatus returns status information about the store
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// SeriesLoader reads enrollment history grouped by program.
type SeriesLoader interface {
	Load(ctx context.Context, path string) (map[string]schema.Series, error)
}
