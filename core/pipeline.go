package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
	"golang.org/x/sync/errgroup"
)

// RunInput holds the already materialized inputs of one ranking run.
type RunInput struct {
	Tools      []schema.Tool
	News       []schema.NewsArticle
	Previous   *schema.RankingPayload // nil on the first run
	Algorithm  *schema.AlgorithmConfig
	Period     string
	At         time.Time // evaluation time, the only clock the pipeline reads
	NewsWindow time.Duration
	Workers    int
}

// RunOutput is the complete result of one ranking run.
type RunOutput struct {
	Snapshot     schema.RankingSnapshot
	Ranked       []schema.RankedEntry
	Unranked     []schema.ScoredEntry
	Degradations []schema.Degradation
}

// BuildRanking scores every tool concurrently, then ranks and diffs against the previous
// snapshot once all scores are in. A cancelled context discards the partial run.
func BuildRanking(ctx context.Context, in RunInput) (*RunOutput, error) {
	if in.Algorithm == nil {
		return nil, &schema.ConfigurationError{Reason: "no algorithm selected"}
	}
	if err := in.Algorithm.ValidateWeights(); err != nil {
		return nil, err
	}
	workers := in.Workers
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}

	signals := AggregateNews(in.News, in.At, in.NewsWindow)

	scored := make([]schema.ScoredEntry, len(in.Tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, tool := range in.Tools {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored[i] = ScoreTool(tool, signals[tool.ID], in.Algorithm, in.At)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}

	ranked, unranked := RankEntries(scored, in.Algorithm)
	ranked = ApplyMovement(ranked, in.Previous)

	out := &RunOutput{
		Ranked:       ranked,
		Unranked:     unranked,
		Degradations: collectDegradations(scored),
		Snapshot: schema.RankingSnapshot{
			SnapshotID:       uuid.NewString(),
			Period:           in.Period,
			AlgorithmVersion: in.Algorithm.Version,
			PublishedAt:      in.At,
			Payload:          BuildPayload(in.Period, in.Algorithm, in.At, ranked),
		},
	}

	log := contract.Logger()
	for _, d := range out.Degradations {
		log.Debug().Str("tool_id", d.ToolID).Str("component", d.Component).Msg("defaulted")
	}
	log.Info().
		Str("period", in.Period).
		Str("algorithm", in.Algorithm.Version).
		Int("ranked", len(ranked)).
		Int("unranked", len(unranked)).
		Int("degradations", len(out.Degradations)).
		Msg("ranking built")

	return out, nil
}

// BuildPayload renders ranked entries into the persisted payload, rounding scores
// to the version precision. This is the only place scores are rounded.
func BuildPayload(period string, algo *schema.AlgorithmConfig, at time.Time, ranked []schema.RankedEntry) schema.RankingPayload {
	p := schema.RankingPayload{
		Period:           period,
		AlgorithmVersion: algo.Version,
		GeneratedAt:      at.UTC(),
		TotalTools:       len(ranked),
		Rankings:         make([]schema.PayloadEntry, len(ranked)),
	}
	for i, e := range ranked {
		factors := make(map[schema.FactorKey]float64, len(schema.AllFactors))
		for k, v := range e.Factors.Map() {
			factors[k] = schema.RoundScore(v, algo.ScorePrecision)
		}
		entry := schema.PayloadEntry{
			ToolID:       e.ToolID,
			ToolName:     e.Name,
			Rank:         e.Rank,
			Score:        schema.RoundScore(e.OverallScore, algo.ScorePrecision),
			Tier:         e.Tier,
			Category:     e.Category,
			FactorScores: factors,
		}
		if e.Movement != nil {
			prev, change := e.Movement.PreviousPosition, e.Movement.Change
			entry.PreviousRank = &prev
			entry.Movement = &change
		}
		p.Rankings[i] = entry
	}
	return p
}

// collectDegradations lists defaulted components and missing statuses in input order.
func collectDegradations(scored []schema.ScoredEntry) []schema.Degradation {
	var out []schema.Degradation
	for _, e := range scored {
		if e.Status == "" {
			out = append(out, schema.Degradation{ToolID: e.ToolID, Component: "status"})
		}
		for _, c := range e.Defaulted {
			out = append(out, schema.Degradation{ToolID: e.ToolID, Component: c})
		}
	}
	return out
}
