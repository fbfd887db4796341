package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the forecast store.
	DatabaseBackend string

	// TrendDirection represents the overall direction of a program's growth.
	TrendDirection string
)

// GrandTotal is the reserved program code for the institution-wide aggregate.
const GrandTotal = "GRAND_TOTAL"

// MinProgramPoints is the minimum history length required to forecast an
// individual program. GrandTotal is exempt.
const MinProgramPoints = 3

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All trend directions supported.
const (
	GrowingTrend   TrendDirection = "Growing"
	StableTrend    TrendDirection = "Stable"
	DecliningTrend TrendDirection = "Declining"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// EnrollmentTable holds actual and forecast rows keyed by (course_code, year).
const EnrollmentTable = "enrollment_data"
