package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/enrollcast/schema"
)

// StableThreshold is the absolute weighted growth under which a program is
// considered stable.
const StableThreshold = 0.01

// Color variables for console output.
var (
	GrowingColor   = color.New(color.FgGreen, color.Bold) // GrowingColor marks expanding programs.
	StableColor    = color.New(color.FgCyan)              // StableColor marks flat programs.
	DecliningColor = color.New(color.FgRed, color.Bold)   // DecliningColor marks shrinking programs.
)

// GetTrendDirection classifies a weighted growth value.
func GetTrendDirection(weightedGrowth float64) schema.TrendDirection {
	switch {
	case weightedGrowth >= StableThreshold:
		return schema.GrowingTrend
	case weightedGrowth <= -StableThreshold:
		return schema.DecliningTrend
	default:
		return schema.StableTrend
	}
}

// GetPlainTrendLabel returns the plain text trend label used for CSV, JSON
// and table printing.
func GetPlainTrendLabel(weightedGrowth float64) string {
	return string(GetTrendDirection(weightedGrowth))
}

// GetColorTrendLabel returns a colored trend label for console output (table).
func GetColorTrendLabel(weightedGrowth float64) string {
	text := GetPlainTrendLabel(weightedGrowth)

	switch GetTrendDirection(weightedGrowth) {
	case schema.GrowingTrend:
		return GrowingColor.Sprint(text)
	case schema.DecliningTrend:
		return DecliningColor.Sprint(text)
	default:
		return StableColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the forecast store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".enrollcast.db"
	}
	return filepath.Join(homeDir, ".enrollcast.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
