package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/powerrank/core"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/internal/persist"
	"github.com/huangsam/powerrank/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendFromConfig reads and checks the snapshot store settings.
func storeBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store maintenance.
// It skips input and algorithm validation that rank and validate need.
func storeSetup() error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	if err := persist.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// migrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func migrateSetup(cmd *cobra.Command) error {
	if err := bindCommandFlags(cmd); err != nil {
		return err
	}
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// migrateSetupWrapper wraps migrateSetup to provide PreRunE for the migrate command.
func migrateSetupWrapper(cmd *cobra.Command, _ []string) error {
	return migrateSetup(cmd)
}

// snapshotsCmd groups snapshot store operations.
//
// Note: status, export, migrate and clear use minimal initialization instead of
// the full sharedSetup, so they work without tools input or algorithm config.
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect and manage stored ranking snapshots",
	Long: `Manage the versioned ranking snapshots written by 'rank'.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (no persistence)

Subcommands:
  list    - List stored snapshots, newest first
  status  - Show store statistics and connection info
  history - Show one tool's rank across snapshots
  promote - Make a stored snapshot current
  export  - Export snapshots to Parquet
  migrate - Run database schema migrations
  clear   - Remove all stored snapshots

Examples:
  powerrank snapshots list
  powerrank snapshots history cursor
  powerrank snapshots promote 5f0c...`,
}

// snapshotsListCmd lists stored snapshots.
var snapshotsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored snapshots, newest first",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSnapshotList(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list snapshots", err)
		}
	},
}

// snapshotsStatusCmd shows store status.
var snapshotsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, number of stored snapshots, the current
snapshot and the newest and oldest publish times.`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := persist.Manager.GetSnapshotStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		persist.PrintStoreStatus(os.Stdout, status)
	},
}

// snapshotsHistoryCmd shows one tool across snapshots.
var snapshotsHistoryCmd = &cobra.Command{
	Use:   "history <tool-id>",
	Short: "Show a tool's rank, score and tier across stored snapshots",
	Long: `List every stored snapshot that ranked the tool, oldest first.

Examples:
  powerrank snapshots history cursor --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		cfg.ToolID = args[0]
		if err := core.ExecuteToolHistory(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot show tool history", err)
		}
	},
}

// snapshotsPromoteCmd promotes a stored snapshot.
var snapshotsPromoteCmd = &cobra.Command{
	Use:   "promote <snapshot-id>",
	Short: "Make a stored snapshot the current one",
	Long: `Promote a stored snapshot after it passes the distribution checks. The previous
current snapshot is demoted in the same transaction.

Examples:
  # Promote a snapshot that 'rank' saved but did not promote
  powerrank snapshots promote 5f0c...

  # Promote regardless of failing checks
  powerrank snapshots promote 5f0c... --force`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		cfg.SnapshotID = args[0]
		if err := core.ExecuteSnapshotPromote(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot promote snapshot", err)
		}
	},
}

// snapshotsExportCmd exports snapshots to Parquet files.
var snapshotsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored snapshots to Parquet for BI tools and analytics",
	Long: `Export every stored snapshot to Parquet.

Writes two files next to --output-file:
- <name>.snapshots.parquet: one row per snapshot
- <name>.rankings.parquet: one row per ranked tool per snapshot

Examples:
  powerrank snapshots export --output-file rankings.parquet`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := persist.ExportSnapshots(rootCtx, os.Stdout, persist.Manager.GetSnapshotStore(), cfg.OutputFile); err != nil {
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
  powerrank snapshots migrate

  # Rollback to initial state
  powerrank snapshots migrate --target-version 0`,
	PreRunE: migrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := persist.MigrateSnapshots(os.Stdout, cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// snapshotsClearCmd clears the store.
var snapshotsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored snapshots",
	Long: `Delete every stored snapshot from the configured backend.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the snapshots table`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite handle before removing its file.
		persist.CloseStores()
		dbFilePath := contract.GetDBFilePath()
		if cfg.StoreBackend == schema.SQLiteBackend && cfg.StoreDBConnect != "" {
			dbFilePath = cfg.StoreDBConnect
		}
		if err := persist.ClearSnapshots(cfg.StoreBackend, dbFilePath, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear snapshots", err)
		}
		fmt.Println("Snapshots cleared successfully.")
	},
}
