package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/internal/parquet"
)

// ErrNothingToExport is returned when the store holds no snapshots.
var ErrNothingToExport = errors.New("no snapshot data found to export")

// ExportSnapshots writes every stored snapshot to a Parquet file and reports progress to w.
func ExportSnapshots(store contract.SnapshotStore, outputFile string, w io.Writer) (int, error) {
	if outputFile == "" {
		return 0, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return 0, ErrNoBackend
	}

	status, err := store.GetStatus()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot status: %w", err)
	}
	if status.TotalRows == 0 {
		return 0, ErrNothingToExport
	}
	_, _ = fmt.Fprintf(w, "Exporting %d snapshots across %d runs from %s backend...\n",
		status.TotalRows, status.DistinctRuns, status.Backend)

	rows, err := store.GetAllSnapshots()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve snapshots: %w", err)
	}
	data := parquet.ConvertSnapshots(rows)
	if err := parquet.WriteSnapshotsParquet(data, outputFile); err != nil {
		return 0, fmt.Errorf("failed to write snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d snapshots to: %s\n", len(data), outputFile)
	return len(data), nil
}
