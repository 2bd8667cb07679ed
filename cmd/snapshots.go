package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/internal/iocache"
	"github.com/huangsam/rankeval/internal/outwriter"
	"github.com/huangsam/rankeval/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotBackendConfig reads and validates the backend settings shared by every snapshots command.
func snapshotBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := readConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("snapshot-backend")
	connStr := viper.GetString("snapshot-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid snapshot backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// snapshotsSetup loads minimal configuration needed for snapshot operations.
// This is used by commands that need store access without full shared setup.
func snapshotsSetup() error {
	backend, connStr, err := snapshotBackendConfig()
	if err != nil {
		return err
	}
	if err := iocache.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize snapshots: %w", err)
	}

	cfg.SnapshotBackend = backend
	cfg.SnapshotDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	return nil
}

// snapshotsSetupWrapper wraps snapshotsSetup to provide PreRunE for snapshots commands.
func snapshotsSetupWrapper(_ *cobra.Command, _ []string) error {
	return snapshotsSetup()
}

// snapshotsMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize the store or create tables,
// allowing migrations to run on a fresh database.
func snapshotsMigrateSetup() error {
	backend, connStr, err := snapshotBackendConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetSnapshotDBFilePath()
	}

	cfg.SnapshotBackend = backend
	cfg.SnapshotDBConnect = connStr
	return nil
}

// snapshotsMigrateSetupWrapper wraps snapshotsMigrateSetup to provide PreRunE for migrate command.
func snapshotsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return snapshotsMigrateSetup()
}

// snapshotsCmd focused on snapshot data management.
//
// Note: Snapshots subcommands use minimal initialization (snapshotsSetup) instead of
// the full sharedSetup used by evaluation commands. This avoids loading datasets
// and validating evaluation flags for simple store operations.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage recorded metric snapshots and exports",
	Long: `Manage the metric snapshots written by --persist.

Every snapshot row holds:
- The evaluation run id (negative millisecond timestamp for ablation and baseline runs)
- A metric name such as ablation_recall@20_delta or mrr@5
- The channel it belongs to and the number of queries behind it
- Optional JSON metadata with the full per-channel detail

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show snapshot statistics
  export  - Export snapshots to Parquet for analytics
  clear   - Remove all snapshot data
  migrate - Run database schema migrations

Examples:
  # Check the store
  rankeval snapshots status

  # Export for analysis in pandas/DuckDB
  rankeval snapshots export --output-file snapshots.parquet`,
}

// snapshotsClearCmd clears the snapshot data.
var snapshotsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded metric snapshots",
	Long: `Delete all stored metric snapshots.

SQLite removes the database file. MySQL and PostgreSQL drop the snapshots table.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  rankeval snapshots export --output-file backup.parquet
  rankeval snapshots clear`,
	PreRunE: snapshotsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearSnapshots(cfg.SnapshotBackend, cfg.SnapshotDBConnect, cfg.SnapshotDBConnect); err != nil {
			contract.LogFatal("Failed to clear snapshots", err)
		}
		fmt.Println("Snapshots cleared successfully.")
	},
}

// snapshotsStatusCmd shows snapshot status.
var snapshotsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display snapshot statistics and connection details",
	Long: `Show the backend, connection state, row and run counts, the newest and
oldest entries and how many rows each metric has.

Examples:
  # Check snapshot status
  rankeval snapshots status

  # Machine readable
  rankeval snapshots status --output json`,
	PreRunE: snapshotsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer iocache.CloseStore()
		status, err := iocache.Manager.GetSnapshotStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get snapshot status", err)
		}
		if err := outwriter.NewOutWriter().WriteSnapshotStatus(status, cfg); err != nil {
			contract.LogFatal("Failed to print snapshot status", err)
		}
	},
}

// snapshotsExportCmd exports snapshot data to a Parquet file.
var snapshotsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export metric snapshots to Parquet for BI tools and analytics",
	Long: `Export all stored metric snapshots to a single Parquet file.

Requires: --output-file parameter

Examples:
  # Export all snapshots
  rankeval snapshots export --output-file snapshots.parquet

  # Query the export with DuckDB
  duckdb -c "SELECT metric_name, avg(metric_value) FROM read_parquet('snapshots.parquet') GROUP BY 1"`,
	PreRunE: snapshotsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer iocache.CloseStore()
		if _, err := iocache.ExportSnapshots(iocache.Manager.GetSnapshotStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export snapshots", err)
		}
	},
}

// snapshotsMigrateCmd runs database migrations for the snapshot store.
var snapshotsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  rankeval snapshots migrate

  # Rollback to the initial state
  rankeval snapshots migrate --target-version 0`,
	PreRunE: snapshotsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateSnapshots(cfg.SnapshotBackend, cfg.SnapshotDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
