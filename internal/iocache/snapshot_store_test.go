package iocache

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/rankeval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows(runID int64, created time.Time) []schema.MetricSnapshot {
	all := "all"
	vector := "vector"
	count := 12
	meta := `{"runId":"ablation-1-beef"}`
	return []schema.MetricSnapshot{
		{EvalRunID: runID, MetricName: schema.MetricAblationBaselineRecall, MetricValue: 0.8, Channel: &all, QueryCount: &count, Metadata: &meta, CreatedAt: created},
		{EvalRunID: runID, MetricName: schema.MetricAblationRecallDelta, MetricValue: -0.25, Channel: &vector, QueryCount: &count, CreatedAt: created},
		{EvalRunID: runID, MetricName: schema.MetricAblationRecallDelta, MetricValue: 0},
	}
}

func TestSnapshotStore_NoneBackend(t *testing.T) {
	store, err := NewSnapshotStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.RecordSnapshots(sampleRows(-1, time.Now())))
	rows, err := store.GetAllSnapshots()
	assert.NoError(t, err)
	assert.Nil(t, rows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Clear())
	assert.NoError(t, store.Close())
}

// TestSnapshotStore_SQLite tests a round trip through an in-memory database.
func TestSnapshotStore_SQLite(t *testing.T) {
	store, err := NewSnapshotStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	created := time.Date(2026, 2, 1, 10, 30, 0, 123000000, time.UTC)
	require.NoError(t, store.RecordSnapshots(sampleRows(-1700000000000, created)))

	rows, err := store.GetAllSnapshots()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(-1700000000000), rows[0].EvalRunID)
	assert.Equal(t, schema.MetricAblationBaselineRecall, rows[0].MetricName)
	assert.Equal(t, 0.8, rows[0].MetricValue)
	require.NotNil(t, rows[0].Channel)
	assert.Equal(t, "all", *rows[0].Channel)
	require.NotNil(t, rows[0].QueryCount)
	assert.Equal(t, 12, *rows[0].QueryCount)
	require.NotNil(t, rows[0].Metadata)
	assert.JSONEq(t, `{"runId":"ablation-1-beef"}`, *rows[0].Metadata)
	assert.True(t, created.Equal(rows[0].CreatedAt))

	assert.Nil(t, rows[1].Metadata)
	assert.Nil(t, rows[2].Channel)
	assert.Nil(t, rows[2].QueryCount)
	assert.False(t, rows[2].CreatedAt.IsZero(), "zero timestamps are filled in")
}

func TestSnapshotStore_Status(t *testing.T) {
	store, err := NewSnapshotStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRows)

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	require.NoError(t, store.RecordSnapshots(sampleRows(-1, older)[:2]))
	require.NoError(t, store.RecordSnapshots(sampleRows(-2, newer)[:2]))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 4, status.TotalRows)
	assert.Equal(t, 2, status.DistinctRuns)
	assert.Equal(t, int64(-2), status.LastRunID)
	assert.True(t, newer.Equal(status.LastEntryTime))
	assert.True(t, older.Equal(status.OldestEntryTime))
	assert.Equal(t, map[string]int64{
		schema.MetricAblationBaselineRecall: 2,
		schema.MetricAblationRecallDelta:    2,
	}, status.MetricCounts)

	require.NoError(t, store.Clear())
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRows)
}

// TestSnapshotStore_Atomic tests that a failing batch leaves no rows behind.
func TestSnapshotStore_Atomic(t *testing.T) {
	store, err := NewSnapshotStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	impl := store.(*SnapshotStoreImpl)
	_, err = impl.db.Exec(`CREATE TRIGGER reject_negative BEFORE INSERT ON eval_metric_snapshots
		WHEN NEW.metric_value < -1 BEGIN SELECT RAISE(ABORT, 'metric out of range'); END`)
	require.NoError(t, err)

	rows := sampleRows(-5, time.Now())
	rows[2].MetricValue = -2
	err = store.RecordSnapshots(rows)
	require.Error(t, err)
	assert.ErrorContains(t, err, "metric out of range")

	stored, err := store.GetAllSnapshots()
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.NoError(t, store.RecordSnapshots(nil))
}

func TestSnapshotStore_UnsupportedBackend(t *testing.T) {
	_, err := NewSnapshotStore("oracle", "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
}

// TestQuoteTableName tests the quoteTableName function for all backends.
func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		expected string
	}{
		{schema.SQLiteBackend, `"eval_metric_snapshots"`},
		{schema.PostgreSQLBackend, `"eval_metric_snapshots"`},
		{schema.MySQLBackend, "`eval_metric_snapshots`"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.expected, quoteTableName(snapshotsTable, tt.backend))
		})
	}
}

// TestMigrateSnapshots_SQLite tests migrating up, down and to a version on a file database.
func TestMigrateSnapshots_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	require.NoError(t, MigrateSnapshots(schema.SQLiteBackend, dbPath, -1, &out))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 1")

	out.Reset()
	require.NoError(t, MigrateSnapshots(schema.SQLiteBackend, dbPath, -1, &out))
	assert.Contains(t, out.String(), "already at the latest version")

	require.NoError(t, MigrateSnapshots(schema.SQLiteBackend, dbPath, 1, &out))
	require.NoError(t, MigrateSnapshots(schema.SQLiteBackend, dbPath, 0, &out))
	assert.False(t, tableExists(t, dbPath))

	require.NoError(t, MigrateSnapshots(schema.SQLiteBackend, dbPath, 1, &out))
	assert.True(t, tableExists(t, dbPath))

	// The store accepts a migrated database as is
	store, err := NewSnapshotStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.RecordSnapshots(sampleRows(-9, time.Now())))
	require.NoError(t, store.Close())
}

func TestMigrateSnapshots_NoneBackend(t *testing.T) {
	err := MigrateSnapshots(schema.NoneBackend, "", -1, &bytes.Buffer{})
	assert.ErrorContains(t, err, "not supported")
}

func tableExists(t *testing.T, dbPath string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'eval_metric_snapshots'`).Scan(&n))
	return n == 1
}
