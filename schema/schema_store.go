package schema

import "time"

// PersistedRecord is one row written to the forecast store, unique on
// (CourseCode, Year). Historical rows are actual and carry no bounds.
type PersistedRecord struct {
	CourseCode string   `json:"course_code"`
	Year       int      `json:"year"`
	Enrollment float64  `json:"enrollment"`
	IsActual   bool     `json:"is_actual"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

// StoredRecord is a PersistedRecord read back with its bookkeeping timestamps.
type StoredRecord struct {
	PersistedRecord
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreStatus represents the status of the forecast store.
type StoreStatus struct {
	Backend      string    `json:"backend"`
	Connected    bool      `json:"connected"`
	TotalRecords int       `json:"total_records"`
	ActualRows   int       `json:"actual_rows"`
	ForecastRows int       `json:"forecast_rows"`
	Programs     int       `json:"programs"`
	MinYear      int       `json:"min_year"`
	MaxYear      int       `json:"max_year"`
	LastUpdated  time.Time `json:"last_updated"`
}
