package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/internal/dataset"
	"github.com/huangsam/powerrank/schema"
)

// ErrNoCurrentSnapshot is returned when the store has no current snapshot to read.
var ErrNoCurrentSnapshot = errors.New("no current snapshot")

// RankRun is the outcome of a ranking run after persistence.
type RankRun struct {
	Result schema.RankingResult
	Report schema.ValidationReport
	Output *RunOutput
}

// GetRankingResults loads the inputs named in cfg, builds the ranking and persists it.
// The snapshot is promoted when the distribution checks pass or cfg.Force is set, and
// saved unpromoted otherwise. cfg.DryRun skips persistence entirely.
func GetRankingResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*RankRun, error) {
	if cfg.ToolsFile == "" {
		return nil, errors.New("a tools file is required (--tools)")
	}
	tools, warnings, err := dataset.LoadTools(cfg.ToolsFile)
	if err != nil {
		return nil, err
	}
	logWarnings("tools", warnings)

	news, warnings, err := dataset.LoadNews(cfg.NewsFile)
	if err != nil {
		return nil, err
	}
	logWarnings("news", warnings)

	var store contract.SnapshotStore
	if mgr != nil {
		store = mgr.GetSnapshotStore()
	}
	prev, err := loadPrevious(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	printRunHeader(ctx, cfg, len(tools))
	out, err := BuildRanking(ctx, RunInput{
		Tools:      tools,
		News:       news,
		Previous:   prev.payload,
		Algorithm:  cfg.Algorithm,
		Period:     cfg.Period,
		At:         cfg.At,
		NewsWindow: cfg.NewsWindow,
		Workers:    cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	snap := out.Snapshot
	in := ValidateInput{
		Payload:     snap.Payload,
		SnapshotID:  snap.SnapshotID,
		Algorithm:   cfg.Algorithm,
		HadPrevious: prev.payload != nil,
		Thresholds:  cfg.Thresholds,
	}
	report := ValidateDistribution(in)
	result := schema.RankingResult{
		SnapshotID:   snap.SnapshotID,
		Payload:      snap.Payload,
		Unranked:     len(out.Unranked),
		Degradations: len(out.Degradations),
	}

	log := contract.Logger()
	if store == nil || cfg.DryRun || cfg.StoreBackend == schema.NoneBackend {
		log.Info().Str("snapshot_id", snap.SnapshotID).Msg("snapshot not persisted")
		return &RankRun{Result: result, Report: report, Output: out}, nil
	}

	if report.Passed || cfg.Force {
		forced := cfg.Force && !report.Passed
		snap.IsCurrent = true
		if err := store.Promote(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to promote snapshot: %w", err)
		}
		result.Persisted, result.Promoted, result.Forced = true, true, forced

		history, err := store.ListSnapshots(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		in.History = history
		in.ExpectedPreviousID = prev.currentID
		report = ValidateDistribution(in)
		log.Info().Str("snapshot_id", snap.SnapshotID).Str("demoted", prev.currentID).Bool("forced", forced).Msg("snapshot promoted")
	} else {
		if err := store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
		result.Persisted = true
		log.Warn().Str("snapshot_id", snap.SnapshotID).Int("failed_checks", len(report.Failed())).Msg("snapshot saved without promotion")
	}
	return &RankRun{Result: result, Report: report, Output: out}, nil
}

// previousRun is the movement baseline of a run and the id of the snapshot it will demote.
type previousRun struct {
	payload   *schema.RankingPayload
	currentID string
}

// loadPrevious resolves the movement baseline. An explicit file wins; otherwise the
// newest stored snapshot from an earlier period is used, preferring the current one,
// so reruns of a period diff against the prior period rather than themselves.
func loadPrevious(ctx context.Context, cfg *contract.Config, store contract.SnapshotStore) (previousRun, error) {
	var prev previousRun
	if store != nil {
		current, err := store.GetCurrent(ctx)
		if err != nil {
			return prev, fmt.Errorf("failed to read current snapshot: %w", err)
		}
		if current != nil {
			prev.currentID = current.SnapshotID
		}
		if cfg.PreviousFile == "" {
			rec, err := baselineRecord(ctx, store, current, cfg.Period)
			if err != nil {
				return prev, err
			}
			if rec != nil {
				p, err := rec.DecodePayload()
				if err != nil {
					return prev, err
				}
				prev.payload = &p
				contract.Logger().Debug().Str("snapshot_id", rec.SnapshotID).Str("period", rec.Period).Msg("movement baseline")
			}
		}
	}
	if cfg.PreviousFile != "" {
		p, err := dataset.LoadPrevious(cfg.PreviousFile)
		if err != nil {
			return prev, err
		}
		prev.payload = p
	}
	return prev, nil
}

// baselineRecord picks the stored snapshot to diff against for a period.
func baselineRecord(ctx context.Context, store contract.SnapshotStore, current *schema.SnapshotRecord, period string) (*schema.SnapshotRecord, error) {
	if current != nil && current.Period < period {
		return current, nil
	}
	records, err := store.ListSnapshots(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	for _, r := range records {
		if r.Period < period {
			return store.GetSnapshot(ctx, r.SnapshotID)
		}
	}
	return nil, nil
}

// GetSnapshotValidation runs the distribution checks on cfg.InputFile when set, otherwise
// on the stored snapshot cfg.SnapshotID, otherwise on the current snapshot.
func GetSnapshotValidation(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.ValidationReport, error) {
	if cfg.InputFile != "" {
		p, err := dataset.LoadPayload(cfg.InputFile)
		if err != nil {
			return schema.ValidationReport{}, err
		}
		return ValidateDistribution(ValidateInput{
			Payload:     *p,
			Algorithm:   algorithmFor(cfg, p.AlgorithmVersion),
			HadPrevious: hasMovement(*p),
			Thresholds:  cfg.Thresholds,
		}), nil
	}

	store, err := requireStore(mgr)
	if err != nil {
		return schema.ValidationReport{}, err
	}
	var rec *schema.SnapshotRecord
	if cfg.SnapshotID != "" {
		rec, err = store.GetSnapshot(ctx, cfg.SnapshotID)
	} else {
		rec, err = store.GetCurrent(ctx)
	}
	if err != nil {
		return schema.ValidationReport{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if rec == nil {
		return schema.ValidationReport{}, ErrNoCurrentSnapshot
	}
	p, err := rec.DecodePayload()
	if err != nil {
		return schema.ValidationReport{}, err
	}
	history, err := store.ListSnapshots(ctx, 0)
	if err != nil {
		return schema.ValidationReport{}, fmt.Errorf("failed to list snapshots: %w", err)
	}

	in := ValidateInput{
		Payload:     p,
		SnapshotID:  rec.SnapshotID,
		Algorithm:   algorithmFor(cfg, p.AlgorithmVersion),
		HadPrevious: hasEarlier(history, *rec),
		Thresholds:  cfg.Thresholds,
	}
	// The store-wide currency invariant only applies once a current snapshot exists.
	if rec.IsCurrent {
		in.History = history
	}
	return ValidateDistribution(in), nil
}

// GetToolHistory returns one tool's entries across every stored snapshot, oldest first.
// Snapshots whose payload cannot be decoded are skipped with a warning.
func GetToolHistory(ctx context.Context, mgr contract.StoreManager, toolID string) ([]schema.ToolHistoryPoint, error) {
	if toolID == "" {
		return nil, errors.New("tool id is required")
	}
	store, err := requireStore(mgr)
	if err != nil {
		return nil, err
	}
	records, err := store.GetAllSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	var points []schema.ToolHistoryPoint
	for _, rec := range records {
		p, err := rec.DecodePayload()
		if err != nil {
			contract.Logger().Warn().Err(err).Str("snapshot_id", rec.SnapshotID).Msg("skipping snapshot")
			continue
		}
		if point, ok := rec.HistoryPoint(p, toolID); ok {
			points = append(points, point)
		}
	}
	return points, nil
}

// GetCurrentRankings returns the current snapshot with its payload trimmed to limit entries.
// A non-positive limit keeps every entry.
func GetCurrentRankings(ctx context.Context, mgr contract.StoreManager, limit int) (*schema.SnapshotRecord, schema.RankingPayload, error) {
	store, err := requireStore(mgr)
	if err != nil {
		return nil, schema.RankingPayload{}, err
	}
	rec, err := store.GetCurrent(ctx)
	if err != nil {
		return nil, schema.RankingPayload{}, fmt.Errorf("failed to read current snapshot: %w", err)
	}
	if rec == nil {
		return nil, schema.RankingPayload{}, ErrNoCurrentSnapshot
	}
	p, err := rec.DecodePayload()
	if err != nil {
		return nil, schema.RankingPayload{}, err
	}
	if limit > 0 && limit < len(p.Rankings) {
		p.Rankings = p.Rankings[:limit]
	}
	return rec, p, nil
}

// algorithmFor looks up the version that produced a payload. Unknown versions return nil,
// which skips the tier band check.
func algorithmFor(cfg *contract.Config, version string) *schema.AlgorithmConfig {
	if cfg.Registry == nil || !cfg.Registry.Has(version) {
		contract.Logger().Warn().Str("algorithm", version).Msg("unknown algorithm version, tier bands not checked")
		return nil
	}
	algo, _ := cfg.Registry.Get(version)
	return algo
}

// hasMovement reports whether any entry carries a previous rank.
func hasMovement(p schema.RankingPayload) bool {
	for _, e := range p.Rankings {
		if e.PreviousRank != nil {
			return true
		}
	}
	return false
}

// hasEarlier reports whether another snapshot was published before rec.
func hasEarlier(history []schema.SnapshotRecord, rec schema.SnapshotRecord) bool {
	for _, r := range history {
		if r.SnapshotID != rec.SnapshotID && r.PublishedAt.Before(rec.PublishedAt) {
			return true
		}
	}
	return false
}

func logWarnings(input string, warnings []dataset.Warning) {
	log := contract.Logger()
	for _, w := range warnings {
		log.Warn().Str("input", input).Int("index", w.Index).Str("id", w.ID).Msg(w.Reason)
	}
	if len(warnings) > 0 {
		contract.LogWarn("skipped "+input+" records", fmt.Errorf("%d invalid records, see log for details", len(warnings)))
	}
}
