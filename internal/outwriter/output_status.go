package outwriter

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// writeSnapshotStatus prints store status as JSON or plain text.
func writeSnapshotStatus(w io.Writer, status schema.SnapshotStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, status)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Snapshot Backend: %s\n", status.Backend)
	fmt.Fprintf(&sb, "Connected: %t\n", status.Connected)
	if status.Connected {
		fmt.Fprintf(&sb, "Total Rows: %d\n", status.TotalRows)
		fmt.Fprintf(&sb, "Distinct Runs: %d\n", status.DistinctRuns)
		if status.TotalRows > 0 {
			fmt.Fprintf(&sb, "Last Run ID: %d\n", status.LastRunID)
			fmt.Fprintf(&sb, "Last Entry: %s\n", status.LastEntryTime.Format(statusTimeFormat))
			fmt.Fprintf(&sb, "Oldest Entry: %s\n", status.OldestEntryTime.Format(statusTimeFormat))
		}
		if len(status.MetricCounts) > 0 {
			sb.WriteString("Metric Counts:\n")
			names := make([]string, 0, len(status.MetricCounts))
			for name := range status.MetricCounts {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(&sb, "  %s: %d rows\n", name, status.MetricCounts[name])
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
