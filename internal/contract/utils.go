package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Metric band labels.
const (
	HighBand   = "High"
	MediumBand = "Medium"
	LowBand    = "Low"
	NoBand     = "N/A"
)

// Metric band thresholds on the 0..1 scale.
const (
	LowBandCeiling    = 0.33
	MediumBandCeiling = 0.66
)

// GetPlainBand returns the band label for a 0..1 metric value.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainBand(value float64) string {
	switch {
	case value < LowBandCeiling:
		return LowBand
	case value < MediumBandCeiling:
		return MediumBand
	default:
		return HighBand
	}
}

// GetPlainBandOf is GetPlainBand for a value that may be missing.
func GetPlainBandOf(value float64, ok bool) string {
	if !ok {
		return NoBand
	}
	return GetPlainBand(value)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
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

// LogInfo prints a progress line to stderr so stdout stays clean for data.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache and preference storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".docudash_cache.db"
	}
	return filepath.Join(homeDir, ".docudash_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for analysis history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".docudash_history.db"
	}
	return filepath.Join(homeDir, ".docudash_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
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
