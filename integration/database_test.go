//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/huangsam/rankeval/core"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/internal/iocache"
	"github.com/huangsam/rankeval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMySQL starts a MySQL 8 container and returns its connection string.
func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "rankeval",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/rankeval?parseTime=true", host, port.Port())
}

// startPostgres starts a PostgreSQL 16 container and returns its connection string.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		// The server restarts once after init, so wait for the second ready line
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// exerciseStore migrates a fresh database, records an ablation and a baseline
// run through the store, reads everything back and rolls the schema down.
func exerciseStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	ctx := context.Background()
	require.NoError(t, iocache.MigrateSnapshots(backend, connStr, -1, io.Discard))

	store, err := iocache.NewSnapshotStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Clear())

	cfg := &contract.Config{
		Workers:             2,
		AblationEnabled:     true,
		Persist:             true,
		Channels:            []schema.Channel{schema.VectorChannel, schema.BM25Channel},
		BootstrapIterations: 100,
		Seed:                3,
	}
	in, err := core.LoadInputs(cfg)
	require.NoError(t, err)

	_, err = core.GetAblationResults(ctx, cfg, in, store)
	require.NoError(t, err)
	_, err = core.GetBaselineResults(ctx, cfg, in, store)
	require.NoError(t, err)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 8, status.TotalRows)
	assert.Equal(t, int64(1), status.MetricCounts[schema.MetricMRR5])

	rows, err := store.GetAllSnapshots()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	for _, row := range rows {
		assert.Negative(t, row.EvalRunID)
		if row.Metadata != nil {
			assert.True(t, json.Valid([]byte(*row.Metadata)), "metadata for %s is JSON", row.MetricName)
		}
	}

	require.NoError(t, store.Close())
	require.NoError(t, iocache.MigrateSnapshots(backend, connStr, 0, io.Discard))
	require.NoError(t, iocache.ClearSnapshots(backend, "", connStr))
}

// TestSnapshotStoreWithMySQL tests the snapshot store against MySQL 8.
func TestSnapshotStoreWithMySQL(t *testing.T) {
	exerciseStore(t, schema.MySQLBackend, startMySQL(t))
}

// TestSnapshotStoreWithPostgres tests the snapshot store against PostgreSQL 16.
func TestSnapshotStoreWithPostgres(t *testing.T) {
	exerciseStore(t, schema.PostgreSQLBackend, startPostgres(t))
}

// TestCLIWithMySQL drives the snapshots commands of the rankeval binary against MySQL.
func TestCLIWithMySQL(t *testing.T) {
	env := []string{
		"RANKEVAL_ABLATION=true",
		"RANKEVAL_SNAPSHOT_BACKEND=mysql",
		"RANKEVAL_SNAPSHOT_DB_CONNECT=" + startMySQL(t),
	}

	_, err := runCommand(t, env, "snapshots", "migrate")
	require.NoError(t, err)
	_, err = runCommand(t, env, "ablation", "--persist", "--channels", "graph")
	require.NoError(t, err)

	stdout, err := runCommand(t, env, "snapshots", "status", "--output", "json")
	require.NoError(t, err)
	var status schema.SnapshotStatus
	require.NoError(t, json.Unmarshal(stdout, &status))
	assert.Equal(t, 2, status.TotalRows)

	_, err = runCommand(t, env, "snapshots", "clear")
	require.NoError(t, err)
}
