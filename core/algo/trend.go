package algo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/huangsam/enrollcast/schema"
)

// Fitter defaults.
const (
	DefaultChangepointPriorScale = 0.0005
	DefaultIntervalWidth         = 0.85
	MinFitPoints                 = 2
)

const (
	// bandMargin keeps observations this fraction of the band away from
	// floor and cap so the logit stays finite.
	bandMargin = 0.01

	// minLogitSigma is the smallest dispersion reported in logit space.
	minLogitSigma = 0.05
)

// ErrFitFailure is returned when the trend cannot be fitted.
var ErrFitFailure = errors.New("trend fit failed")

// RawPoint is an unprocessed fitted or projected value with its interval.
type RawPoint struct {
	Year      int
	Yhat      float64
	YhatLower float64
	YhatUpper float64
}

// Fitter fits a bounded trend to a series and projects it to targetYear.
// The output covers every historical year followed by lastYear+1..targetYear.
type Fitter interface {
	Fit(ctx context.Context, series schema.Series, bounds schema.Bounds, targetYear int) ([]RawPoint, error)
}

// LogisticFitter fits a piecewise-linear trend in logit space between floor
// and cap, so predictions saturate smoothly toward either bound.
type LogisticFitter struct {
	ChangepointPriorScale float64
	IntervalWidth         float64
}

var _ Fitter = &LogisticFitter{} // Compile-time check

// NewLogisticFitter returns a fitter, substituting defaults for non-positive values.
func NewLogisticFitter(priorScale, intervalWidth float64) *LogisticFitter {
	if priorScale <= 0 {
		priorScale = DefaultChangepointPriorScale
	}
	if intervalWidth <= 0 || intervalWidth >= 1 {
		intervalWidth = DefaultIntervalWidth
	}
	return &LogisticFitter{ChangepointPriorScale: priorScale, IntervalWidth: intervalWidth}
}

// Fit implements Fitter. The fit is a closed-form ridge solve, so repeated
// calls on the same input give identical output.
func (f *LogisticFitter) Fit(ctx context.Context, series schema.Series, bounds schema.Bounds, targetYear int) ([]RawPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := series.Len()
	if n < MinFitPoints {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", ErrFitFailure, MinFitPoints, n)
	}
	if !(bounds.Cap > bounds.Floor) || !isFinite(bounds.Floor) || !isFinite(bounds.Cap) {
		return nil, fmt.Errorf("%w: invalid bounds [%v, %v]", ErrFitFailure, bounds.Floor, bounds.Cap)
	}

	first := series.Points[0].Year
	last := series.LastYear()
	span := float64(last - first)
	if span <= 0 {
		return nil, fmt.Errorf("%w: years must be strictly increasing", ErrFitFailure)
	}

	ts := make([]float64, n)
	zs := make([]float64, n)
	for i, p := range series.Points {
		if !isFinite(p.Enrollment) {
			return nil, fmt.Errorf("%w: non-finite enrollment in %d", ErrFitFailure, p.Year)
		}
		ts[i] = float64(p.Year-first) / span
		zs[i] = toLogit(p.Enrollment, bounds)
	}

	// One changepoint per observed year.
	changepoints := ts

	coef, err := f.solve(ts, zs, changepoints)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, n)
	for i, t := range ts {
		residuals[i] = zs[i] - trendAt(coef, changepoints, t)
	}
	sigma := math.Max(floats.Norm(residuals, 2)/math.Sqrt(float64(n)), minLogitSigma)
	quantile := distuv.UnitNormal.Quantile(0.5 + f.intervalWidth()/2)

	out := make([]RawPoint, 0, n+max(0, targetYear-last))
	emit := func(year, horizon int) error {
		t := float64(year-first) / span
		z := trendAt(coef, changepoints, t)
		spread := quantile * sigma * math.Sqrt(1+float64(horizon)/float64(n))
		p := RawPoint{
			Year:      year,
			Yhat:      fromLogit(z, bounds),
			YhatLower: fromLogit(z-spread, bounds),
			YhatUpper: fromLogit(z+spread, bounds),
		}
		if !isFinite(p.Yhat) || !isFinite(p.YhatLower) || !isFinite(p.YhatUpper) {
			return fmt.Errorf("%w: non-finite prediction for %d", ErrFitFailure, year)
		}
		out = append(out, p)
		return nil
	}

	for _, p := range series.Points {
		if err := emit(p.Year, 0); err != nil {
			return nil, err
		}
	}
	for year := last + 1; year <= targetYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := emit(year, year-last); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// solve returns [intercept, slope, delta_1..delta_m] minimizing squared error
// plus a ridge penalty on the changepoint deltas.
func (f *LogisticFitter) solve(ts, zs, changepoints []float64) ([]float64, error) {
	n, p := len(ts), 2+len(changepoints)

	design := mat.NewDense(n, p, nil)
	for i, t := range ts {
		design.Set(i, 0, 1)
		design.Set(i, 1, t)
		for j, c := range changepoints {
			design.Set(i, 2+j, math.Max(0, t-c))
		}
	}

	var gram mat.Dense
	gram.Mul(design.T(), design)

	penalty := 1 / (f.priorScale() * f.priorScale())
	normal := mat.NewSymDense(p, nil)
	for i := range p {
		for j := i; j < p; j++ {
			v := gram.At(i, j)
			if i == j && i >= 2 {
				v += penalty
			}
			normal.SetSym(i, j, v)
		}
	}

	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(n, zs))

	var chol mat.Cholesky
	if ok := chol.Factorize(normal); !ok {
		return nil, fmt.Errorf("%w: normal equations are not positive definite", ErrFitFailure)
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailure, err)
	}

	coef := make([]float64, p)
	for i := range coef {
		coef[i] = beta.AtVec(i)
	}
	return coef, nil
}

func (f *LogisticFitter) priorScale() float64 {
	if f.ChangepointPriorScale <= 0 {
		return DefaultChangepointPriorScale
	}
	return f.ChangepointPriorScale
}

func (f *LogisticFitter) intervalWidth() float64 {
	if f.IntervalWidth <= 0 || f.IntervalWidth >= 1 {
		return DefaultIntervalWidth
	}
	return f.IntervalWidth
}

// trendAt evaluates the piecewise-linear logit trend at scaled time t.
func trendAt(coef, changepoints []float64, t float64) float64 {
	z := coef[0] + coef[1]*t
	for j, c := range changepoints {
		z += coef[2+j] * math.Max(0, t-c)
	}
	return z
}

// toLogit maps y into logit space relative to the band, pulling it inside
// the margin first.
func toLogit(y float64, b schema.Bounds) float64 {
	width := b.Cap - b.Floor
	y = min(max(y, b.Floor+bandMargin*width), b.Cap-bandMargin*width)
	return math.Log((y - b.Floor) / (b.Cap - y))
}

func fromLogit(z float64, b schema.Bounds) float64 {
	return b.Floor + (b.Cap-b.Floor)/(1+math.Exp(-z))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
