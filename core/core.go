// Package core has core logic for forecasting, summarizing and persisting enrollment.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/enrollcast/core/algo"
	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/loader"
	"github.com/huangsam/enrollcast/internal/outwriter"
	"github.com/huangsam/enrollcast/schema"
)

// ErrStoreUnavailable is returned when persistence is requested without a store.
var ErrStoreUnavailable = errors.New("forecast store is not available")

// ErrProgramNotFound is returned when the program filter matches no series.
var ErrProgramNotFound = errors.New("program not found in input")

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// seriesLoader reads the input file for every executor.
var seriesLoader contract.SeriesLoader = loader.FileLoader{}

// writer handles every printed result.
var writer = outwriter.NewOutWriter()

// LoadSeries reads the configured input and applies the program filter.
func LoadSeries(ctx context.Context, cfg *contract.Config, l contract.SeriesLoader) (map[string]schema.Series, error) {
	if cfg.InputPath == "" {
		return nil, contract.ErrInputRequired
	}
	seriesByProgram, err := l.Load(ctx, cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.InputPath, err)
	}
	if cfg.ProgramFilter == "" {
		return seriesByProgram, nil
	}
	s, ok := seriesByProgram[cfg.ProgramFilter]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, cfg.ProgramFilter)
	}
	return map[string]schema.Series{cfg.ProgramFilter: s}, nil
}

// GetForecastOutcome loads the input and forecasts every program in it.
// Per-program failures are logged as warnings and kept in the outcome.
func GetForecastOutcome(ctx context.Context, cfg *contract.Config, l contract.SeriesLoader) (map[string]schema.Series, *schema.ForecastOutcome, error) {
	seriesByProgram, err := LoadSeries(ctx, cfg, l)
	if err != nil {
		return nil, nil, err
	}

	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogForecastHeader(os.Stdout, cfg, len(seriesByProgram))
	}

	outcome, err := ForecastAll(ctx, seriesByProgram, Options{
		TargetYear: cfg.TargetYear,
		Workers:    cfg.Workers,
		Fitter:     algo.NewLogisticFitter(cfg.ChangepointPriorScale, cfg.IntervalWidth),
	})
	if outcome != nil {
		for _, f := range outcome.Failures {
			contract.LogWarn("forecast "+f.ProgramCode, f.Err)
		}
	}
	return seriesByProgram, outcome, err
}

// ExecuteForecast runs the forecast, prints it and persists the records when asked.
// It serves as the main entry point for the 'forecast' command.
func ExecuteForecast(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	seriesByProgram, outcome, err := GetForecastOutcome(ctx, cfg, seriesLoader)
	if err != nil {
		return err
	}
	if err := writer.WriteForecast(outcome, cfg, time.Since(start)); err != nil {
		return err
	}
	if !cfg.Persist {
		return nil
	}
	n, err := PersistOutcome(ctx, mgr, seriesByProgram, outcome)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Persisted %d records to the %s store\n", n, cfg.StoreBackend)
	return nil
}

// ExecuteSummary prints the forecast years after the current year.
// It serves as the main entry point for the 'summary' command.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	start := time.Now()
	_, outcome, err := GetForecastOutcome(ctx, cfg, seriesLoader)
	if err != nil {
		return err
	}
	summaries := Summarize(outcome.Results, cfg.CurrentYear)
	return writer.WriteSummary(summaries, outcome.Order, cfg, time.Since(start))
}

// ExecuteRecords prints the rows a persisted forecast would write.
// It serves as the main entry point for the 'records' command.
func ExecuteRecords(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	start := time.Now()
	seriesByProgram, outcome, err := GetForecastOutcome(ctx, cfg, seriesLoader)
	if err != nil {
		return err
	}
	return writer.WriteRecords(BuildRecords(seriesByProgram, outcome), cfg, time.Since(start))
}

// ExecuteStoreShow prints the stored rows of the filtered program, GrandTotal by default.
func ExecuteStoreShow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	records, err := GetStoredRecords(ctx, mgr, cfg.ProgramFilter)
	if err != nil {
		return err
	}
	return writer.WriteStoredRecords(records, cfg)
}

// GetStoredRecords reads one program back from the store, GrandTotal when code is empty.
func GetStoredRecords(ctx context.Context, mgr contract.StoreManager, code string) ([]schema.StoredRecord, error) {
	store, err := forecastStore(mgr)
	if err != nil {
		return nil, err
	}
	if code == "" {
		code = schema.GrandTotal
	}
	records, err := store.GetRecords(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from store: %w", code, err)
	}
	return records, nil
}

// PersistOutcome upserts the actual and forecast rows of an outcome.
func PersistOutcome(ctx context.Context, mgr contract.StoreManager, seriesByProgram map[string]schema.Series, outcome *schema.ForecastOutcome) (int, error) {
	store, err := forecastStore(mgr)
	if err != nil {
		return 0, err
	}
	n, err := store.UpsertRecords(ctx, BuildRecords(seriesByProgram, outcome))
	if err != nil {
		return 0, fmt.Errorf("failed to persist records: %w", err)
	}
	return n, nil
}

func forecastStore(mgr contract.StoreManager) (contract.ForecastStore, error) {
	if mgr == nil {
		return nil, ErrStoreUnavailable
	}
	store := mgr.GetForecastStore()
	if store == nil {
		return nil, ErrStoreUnavailable
	}
	return store, nil
}
