// Package core has core logic for scoring, ranking and validating AI tools.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/internal/outwriter"
	"github.com/huangsam/powerrank/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteRank runs the ranking pipeline, persists the snapshot and prints the ranking.
// It serves as the main entry point for the 'rank' command.
func ExecuteRank(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	run, err := GetRankingResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	if err := outwriter.NewOutWriter().WriteRankings(run.Result, cfg, duration); err != nil {
		return err
	}
	if !run.Report.Passed {
		for _, f := range run.Report.Failed() {
			contract.LogWarn("distribution check "+f.Check, errors.New(f.Detail))
		}
		if run.Result.Persisted && !run.Result.Promoted {
			contract.LogWarn("promotion skipped", fmt.Errorf("%w, snapshot %s saved unpromoted (use --force to override)", ErrValidationFailed, run.Result.SnapshotID))
		}
	}
	return nil
}

// ExecuteValidate runs the distribution checks on a stored snapshot or a payload file.
// It returns ErrValidationFailed when any check fails so CI can gate on the exit code.
func ExecuteValidate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	report, err := GetSnapshotValidation(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteValidation(report, cfg); err != nil {
		return err
	}
	if !report.Passed {
		return ErrValidationFailed
	}
	return nil
}

// ExecuteAlgorithms prints every registered algorithm version.
func ExecuteAlgorithms(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	if cfg.Registry == nil {
		return &schema.ConfigurationError{Reason: "algorithm registry is not loaded"}
	}
	versions := cfg.Registry.Versions()
	algos := make([]*schema.AlgorithmConfig, 0, len(versions))
	for _, v := range versions {
		algo, err := cfg.Registry.Get(v)
		if err != nil {
			return err
		}
		algos = append(algos, algo)
	}
	return outwriter.NewOutWriter().WriteAlgorithms(algos, cfg)
}

// ExecuteSnapshotList prints stored snapshots, newest first.
func ExecuteSnapshotList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	store, err := requireStore(mgr)
	if err != nil {
		return err
	}
	records, err := store.ListSnapshots(ctx, cfg.ResultLimit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	return outwriter.NewOutWriter().WriteSnapshots(records, cfg)
}

// ExecuteToolHistory prints one tool's rank across every stored snapshot.
func ExecuteToolHistory(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	points, err := GetToolHistory(ctx, mgr, cfg.ToolID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("tool %q does not appear in any stored snapshot", cfg.ToolID)
	}
	return outwriter.NewOutWriter().WriteToolHistory(cfg.ToolID, points, cfg)
}

// ExecuteSnapshotPromote makes a stored snapshot current. The snapshot must pass the
// distribution checks unless --force is given.
func ExecuteSnapshotPromote(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	store, err := requireStore(mgr)
	if err != nil {
		return err
	}
	if cfg.SnapshotID == "" {
		return errors.New("snapshot id is required")
	}
	report, err := GetSnapshotValidation(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !report.Passed && !cfg.Force {
		for _, f := range report.Failed() {
			contract.LogWarn("distribution check "+f.Check, errors.New(f.Detail))
		}
		return fmt.Errorf("refusing to promote %s: %w", cfg.SnapshotID, ErrValidationFailed)
	}
	if err := store.PromoteExisting(ctx, cfg.SnapshotID); err != nil {
		return fmt.Errorf("failed to promote snapshot %s: %w", cfg.SnapshotID, err)
	}
	_, err = fmt.Fprintf(os.Stdout, "✅ Snapshot %s (%s) is now current\n", cfg.SnapshotID, report.Period)
	return err
}

// requireStore returns the snapshot store or an error when none is configured.
func requireStore(mgr contract.StoreManager) (contract.SnapshotStore, error) {
	if mgr == nil || mgr.GetSnapshotStore() == nil {
		return nil, errors.New("snapshot store is not initialized")
	}
	return mgr.GetSnapshotStore(), nil
}

// printRunHeader writes a one-line banner for a ranking run to stderr.
func printRunHeader(ctx context.Context, cfg *contract.Config, tools int) {
	if shouldSuppressHeader(ctx) {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "🏁 Ranking %d tools for %s with algorithm v%s (at %s)\n",
		tools, cfg.Period, cfg.Algorithm.Version, cfg.At.Format(time.RFC3339))
}
