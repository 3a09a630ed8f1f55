// Package cmd defines the command-line interface for powerrank.
package cmd

import (
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(algorithmsCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the snapshot subcommands to the parent snapshots command
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsStatusCmd)
	snapshotsCmd.AddCommand(snapshotsHistoryCmd)
	snapshotsCmd.AddCommand(snapshotsPromoteCmd)
	snapshotsCmd.AddCommand(snapshotsExportCmd)
	snapshotsCmd.AddCommand(snapshotsMigrateCmd)
	snapshotsCmd.AddCommand(snapshotsClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("algorithm", schema.DefaultAlgorithmVersion, "Algorithm version used for scoring")
	rootCmd.PersistentFlags().String("algorithms-file", "", "Optional TOML file with extra or replacement algorithm versions")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent scoring workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Snapshot store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Structured log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Optional rotated JSON log file")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("max-duplicate-pct", "", "Maximum percent of tools sharing a rounded score")
	rootCmd.PersistentFlags().String("min-movement-coverage", "", "Minimum fraction of tools carrying movement when a previous snapshot exists")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// The rank and schedule commands share the pipeline inputs
	for _, c := range []*cobra.Command{rankCmd, scheduleCmd} {
		c.Flags().String("tools", "", "Path to the tools JSON file")
		c.Flags().String("news", "", "Optional path to the news articles JSON file")
		c.Flags().String("previous", "", "Optional previous payload JSON file (defaults to the stored snapshot)")
		c.Flags().String("news-window", contract.DefaultNewsWindow, "Window for recent news mentions (e.g., 30d, 2 weeks)")
		c.Flags().Bool("force", false, "Promote the snapshot even when distribution checks fail")
		c.Flags().Bool("dry-run", false, "Build and print the ranking without saving a snapshot")
	}
	rankCmd.Flags().String("period", "", "Ranking period as YYYY-MM (defaults to the period of --at)")
	rankCmd.Flags().String("at", "", "Evaluation time in RFC3339 or YYYY-MM-DD (defaults to now)")

	// Command-local flags below are bound to Viper in PreRunE (see bindCommandFlags)
	scheduleCmd.Flags().String("schedule", contract.DefaultSchedule, "Cron expression in UTC (minute hour day month weekday)")

	validateCmd.Flags().String("snapshot-id", "", "Stored snapshot to validate (defaults to the current snapshot)")
	validateCmd.Flags().String("input", "", "Validate a payload JSON file instead of a stored snapshot")

	snapshotsPromoteCmd.Flags().Bool("force", false, "Promote even when distribution checks fail")

	snapshotsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
