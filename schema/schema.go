// Package schema has models, constants and program mappings for all parts of enrollcast.
package schema

// HistoricalPoint is one observed annual enrollment count.
type HistoricalPoint struct {
	Year       int     `json:"year"`
	Enrollment float64 `json:"enrollment"`
}

// Series is the ordered enrollment history of a single program.
// Years are strictly increasing and unique.
type Series struct {
	ProgramCode string            `json:"program_code"`
	Points      []HistoricalPoint `json:"points"`
}

// Len returns the number of observations in the series.
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns the enrollment values in chronological order.
func (s Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Enrollment
	}
	return values
}

// LastYear returns the final historical year, or 0 for an empty series.
func (s Series) LastYear() int {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Year
}

// Bounds is the plausible range a forecast is allowed to occupy.
// Floor is always strictly below Cap.
type Bounds struct {
	Floor float64 `json:"floor"`
	Cap   float64 `json:"cap"`
}

// Clamp restricts v to [Floor, Cap].
func (b Bounds) Clamp(v float64) float64 {
	return min(max(v, b.Floor), b.Cap)
}

// ForecastPoint is one predicted year with its uncertainty interval.
type ForecastPoint struct {
	Year       int     `json:"year"`
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	IsFuture   bool    `json:"is_future"`
}

// ForecastResult is the post-processed forecast of one program. Points cover
// the fitted history and every year through the target year.
type ForecastResult struct {
	ProgramCode        string          `json:"program_code"`
	Bounds             Bounds          `json:"bounds"`
	WeightedGrowth     float64         `json:"weighted_growth"`
	LastHistoricalYear int             `json:"last_historical_year"`
	Points             []ForecastPoint `json:"points"`
}

// FuturePoints returns the points after the last historical year.
func (r ForecastResult) FuturePoints() []ForecastPoint {
	var future []ForecastPoint
	for _, p := range r.Points {
		if p.IsFuture {
			future = append(future, p)
		}
	}
	return future
}

// ForecastSummary holds the future-only slice of a forecast as parallel arrays.
type ForecastSummary struct {
	Years     []int     `json:"years"`
	Predicted []float64 `json:"predicted"`
	Lower     []float64 `json:"lower"`
	Upper     []float64 `json:"upper"`
}

// Len returns the number of summarized years.
func (s ForecastSummary) Len() int {
	return len(s.Years)
}

// ProgramFailure records a program whose forecast could not be produced.
type ProgramFailure struct {
	ProgramCode string `json:"program_code"`
	Err         error  `json:"-"`
}

// Error returns the failure cause prefixed with the program code.
func (f ProgramFailure) Error() string {
	return f.ProgramCode + ": " + f.Err.Error()
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (f ProgramFailure) Unwrap() error {
	return f.Err
}

// EnrollmentRow is a single flat input row before grouping into series.
type EnrollmentRow struct {
	ProgramCode string
	Year        int
	Enrollment  float64
}

// ForecastOutcome aggregates a batch forecast: the successful results, the
// programs skipped for short history and the programs that failed.
type ForecastOutcome struct {
	Results  map[string]ForecastResult `json:"results"`
	Order    []string                  `json:"order"` // GrandTotal first, then program codes ascending
	Skipped  []string                  `json:"skipped,omitempty"`
	Failures []ProgramFailure          `json:"-"`
}

// OrderedResults returns the results following Order.
func (o *ForecastOutcome) OrderedResults() []ForecastResult {
	out := make([]ForecastResult, 0, len(o.Order))
	for _, code := range o.Order {
		if r, ok := o.Results[code]; ok {
			out = append(out, r)
		}
	}
	return out
}
