package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/powerrank/schema"
)

// Color variables for console output, one per tier.
var (
	TierSColor = color.New(color.FgMagenta, color.Bold)
	TierAColor = color.New(color.FgGreen, color.Bold)
	TierBColor = color.New(color.FgCyan)
	TierCColor = color.New(color.FgYellow)
	TierDColor = color.New(color.FgWhite)

	UpColor   = color.New(color.FgGreen)
	DownColor = color.New(color.FgRed)
	NewColor  = color.New(color.FgBlue, color.Bold)
)

// GetColorTier returns a colored tier label for console output (table).
func GetColorTier(t schema.Tier) string {
	text := string(t)
	switch t {
	case schema.TierS:
		return TierSColor.Sprint(text)
	case schema.TierA:
		return TierAColor.Sprint(text)
	case schema.TierB:
		return TierBColor.Sprint(text)
	case schema.TierC:
		return TierCColor.Sprint(text)
	default:
		return TierDColor.Sprint(text)
	}
}

// GetColorMovement returns a colored movement label for console output (table).
func GetColorMovement(e schema.PayloadEntry) string {
	text := schema.GetPlainMovement(e)
	switch e.Direction() {
	case schema.DirectionUp:
		return UpColor.Sprint(text)
	case schema.DirectionDown:
		return DownColor.Sprint(text)
	case schema.DirectionFlat:
		return text
	default:
		return NewColor.Sprint(text)
	}
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

// GetDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".powerrank_snapshots.db"
	}
	return filepath.Join(homeDir, ".powerrank_snapshots.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 to leave room for the ellipsis.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
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
