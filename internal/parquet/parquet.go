// Package parquet exports metric snapshots to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/rankeval/schema"
	"github.com/parquet-go/parquet-go"
)

// SnapshotRow maps to one row of the eval_metric_snapshots table.
type SnapshotRow struct {
	// ID is the store-assigned row id
	ID int64 `parquet:"id,snappy"`

	// EvalRunID groups rows written by one run; negative ids mark evaluation and ablation runs
	EvalRunID int64 `parquet:"eval_run_id,snappy"`

	MetricName  string  `parquet:"metric_name,snappy,dict"`
	MetricValue float64 `parquet:"metric_value,snappy"`

	// Channel is "all", "bm25" or a retrieval channel name (nullable)
	Channel *string `parquet:"channel,optional,snappy,dict"`

	QueryCount *int32 `parquet:"query_count,optional,snappy"`

	// Metadata is the JSON payload of the row (nullable)
	Metadata *string `parquet:"metadata,optional,snappy"`

	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// ConvertSnapshots maps store rows to their Parquet form.
func ConvertSnapshots(rows []schema.MetricSnapshot) []SnapshotRow {
	out := make([]SnapshotRow, len(rows))
	for i, r := range rows {
		row := SnapshotRow{
			ID:          r.ID,
			EvalRunID:   r.EvalRunID,
			MetricName:  r.MetricName,
			MetricValue: r.MetricValue,
			Channel:     r.Channel,
			Metadata:    r.Metadata,
			CreatedAt:   r.CreatedAt,
		}
		if r.QueryCount != nil {
			count := int32(*r.QueryCount)
			row.QueryCount = &count
		}
		out[i] = row
	}
	return out
}

// WriteSnapshotsParquet writes rows to a Parquet file at outputPath.
func WriteSnapshotsParquet(data []SnapshotRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema is inferred from the SnapshotRow struct tags
	writer := parquet.NewGenericWriter[SnapshotRow](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
