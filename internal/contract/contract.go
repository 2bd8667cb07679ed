// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"github.com/huangsam/rankeval/schema"
)

// SnapshotStore defines the interface for persisting evaluation metric snapshots.
// This allows the storage layer to be mocked for testing.
type SnapshotStore interface {
	// RecordSnapshots writes all rows inside a single transaction.
	// Either every row is stored or none are.
	RecordSnapshots(rows []schema.MetricSnapshot) error

	// GetAllSnapshots returns every stored row, oldest first.
	GetAllSnapshots() ([]schema.MetricSnapshot, error)

	// GetStatus returns status information about the snapshot store
	GetStatus() (schema.SnapshotStatus, error)

	// Clear deletes every stored row.
	Clear() error

	// Close closes the underlying connection
	Close() error
}
