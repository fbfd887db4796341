package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/huangsam/enrollcast/core/algo"
	"github.com/huangsam/enrollcast/schema"
)

// ErrNothingToForecast is returned when no program produced a forecast.
var ErrNothingToForecast = errors.New("nothing to forecast")

// errProgramPanic marks a forecast that panicked instead of returning an error.
var errProgramPanic = errors.New("forecast panicked")

// Options controls a batch forecast.
type Options struct {
	TargetYear int
	Workers    int         // defaults to GOMAXPROCS
	Fitter     algo.Fitter // defaults to algo.NewLogisticFitter(0, 0)
}

// forecastTask is the per-program result sent back to the collector.
type forecastTask struct {
	code   string
	result schema.ForecastResult
	err    error
}

// ForecastProgram runs the full pipeline for one series: growth, bounds,
// trend fit and post-processing.
func ForecastProgram(ctx context.Context, series schema.Series, targetYear int, fitter algo.Fitter) (schema.ForecastResult, error) {
	growth := algo.ComputeWeightedGrowth(series)
	bounds := algo.ComputeBounds(series, series.ProgramCode, growth)

	raw, err := fitter.Fit(ctx, series, bounds, targetYear)
	if err != nil {
		return schema.ForecastResult{}, err
	}
	return algo.PostProcess(series.ProgramCode, raw, bounds, growth, series.LastYear()), nil
}

// ForecastAll forecasts every program on a worker pool. GrandTotal is
// dispatched first and is exempt from the minimum history rule; other
// programs shorter than schema.MinProgramPoints are skipped. A failing program
// is recorded in the outcome and does not affect the others.
func ForecastAll(ctx context.Context, seriesByProgram map[string]schema.Series, opts Options) (*schema.ForecastOutcome, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	fitter := opts.Fitter
	if fitter == nil {
		fitter = algo.NewLogisticFitter(0, 0)
	}

	outcome := &schema.ForecastOutcome{Results: make(map[string]schema.ForecastResult)}
	codes := orderPrograms(seriesByProgram)

	jobs := make([]schema.Series, 0, len(codes))
	for _, code := range codes {
		s := seriesByProgram[code]
		if s.ProgramCode == "" {
			s.ProgramCode = code
		}
		if code != schema.GrandTotal && s.Len() < schema.MinProgramPoints {
			outcome.Skipped = append(outcome.Skipped, code)
			continue
		}
		jobs = append(jobs, s)
	}

	if len(jobs) > 0 {
		for task := range runForecastPool(ctx, jobs, opts.TargetYear, fitter, workers) {
			if task.err != nil {
				outcome.Failures = append(outcome.Failures, schema.ProgramFailure{ProgramCode: task.code, Err: task.err})
				continue
			}
			outcome.Results[task.code] = task.result
		}
	}

	for _, code := range codes {
		if _, ok := outcome.Results[code]; ok {
			outcome.Order = append(outcome.Order, code)
		}
	}
	slices.SortFunc(outcome.Failures, func(a, b schema.ProgramFailure) int {
		return compareProgramCodes(a.ProgramCode, b.ProgramCode)
	})

	if err := ctx.Err(); err != nil {
		return outcome, err
	}
	if len(outcome.Results) == 0 {
		return outcome, ErrNothingToForecast
	}
	return outcome, nil
}

// runForecastPool spawns workers that forecast jobs concurrently. The returned
// channel is closed once every dispatched job has reported back.
func runForecastPool(ctx context.Context, jobs []schema.Series, targetYear int, fitter algo.Fitter, workers int) <-chan forecastTask {
	jobCh := make(chan schema.Series, len(jobs))
	resultCh := make(chan forecastTask, len(jobs))
	var wg sync.WaitGroup

	for range min(workers, len(jobs)) {
		wg.Go(func() {
			for s := range jobCh {
				resultCh <- forecastIsolated(ctx, s, targetYear, fitter)
			}
		})
	}

	// Jobs keep their order so GrandTotal is picked up first.
	go func() {
		defer close(jobCh)
		for _, s := range jobs {
			if ctx.Err() != nil {
				return
			}
			jobCh <- s
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh
}

// forecastIsolated runs one program and converts a panic into an error.
func forecastIsolated(ctx context.Context, s schema.Series, targetYear int, fitter algo.Fitter) (task forecastTask) {
	task.code = s.ProgramCode
	defer func() {
		if r := recover(); r != nil {
			task.err = fmt.Errorf("%w: %v", errProgramPanic, r)
		}
	}()
	task.result, task.err = ForecastProgram(ctx, s, targetYear, fitter)
	return task
}

// orderPrograms returns program codes with GrandTotal first and the rest ascending.
func orderPrograms(seriesByProgram map[string]schema.Series) []string {
	codes := make([]string, 0, len(seriesByProgram))
	for code := range seriesByProgram {
		codes = append(codes, code)
	}
	slices.SortFunc(codes, compareProgramCodes)
	return codes
}

func compareProgramCodes(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == schema.GrandTotal:
		return -1
	case b == schema.GrandTotal:
		return 1
	case a < b:
		return -1
	default:
		return 1
	}
}
