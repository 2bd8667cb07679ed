package contract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/huangsam/rankeval/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)   // strongest signal, either direction
	HelpfulColor  = color.New(color.FgGreen)             // channel carries its weight
	CautionColor  = color.New(color.FgYellow)            // harmful but not decisive
	QuietColor    = color.New(color.FgCyan)              // nothing to act on
	PauseColor    = color.New(color.FgMagenta, color.Bold)
)

// GetColorVerdict returns a colored verdict label for console output (table).
func GetColorVerdict(v schema.Verdict) string {
	text := string(v)
	switch v {
	case schema.VerdictCritical, schema.VerdictHarmful:
		return CriticalColor.Sprint(text)
	case schema.VerdictImportant, schema.VerdictLikelyUseful:
		return HelpfulColor.Sprint(text)
	case schema.VerdictPossiblyHarmful:
		return CautionColor.Sprint(text)
	default:
		return QuietColor.Sprint(text)
	}
}

// GetColorAction returns a colored contingency action for console output.
func GetColorAction(a schema.ContingencyAction) string {
	text := string(a)
	switch a {
	case schema.ActionPause:
		return PauseColor.Sprint(text)
	case schema.ActionRationalize:
		return CautionColor.Sprint(text)
	default:
		return HelpfulColor.Sprint(text)
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

// GetSnapshotDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetSnapshotDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".rankeval_snapshots.db"
	}
	return filepath.Join(homeDir, ".rankeval_snapshots.db")
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

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	if err == nil {
		_, _ = fmt.Fprintf(os.Stderr, "⚠️  %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "⚠️  %s: %v\n", msg, err)
}

// LogInfo logs an informational message to stderr.
func LogInfo(msg string) {
	_, _ = fmt.Fprintf(os.Stderr, "ℹ️  %s\n", msg)
}
