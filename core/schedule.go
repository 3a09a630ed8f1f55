package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
	"github.com/robfig/cron/v3"
)

// ExecuteSchedule runs ExecuteRank on cfg.Schedule until ctx is cancelled.
// Each tick evaluates at the tick time and derives the period from it.
func ExecuteSchedule(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	c, err := newRankCron(ctx, cfg, mgr, ExecuteRank)
	if err != nil {
		return err
	}
	c.Start()
	_, _ = fmt.Fprintf(os.Stderr, "⏰ Ranking on schedule %q (next run %s). Press Ctrl+C to stop.\n",
		cfg.Schedule, c.Entries()[0].Next.Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// newRankCron registers one job that clones cfg per tick and hands it to run.
// A failed tick is logged and the schedule keeps going.
func newRankCron(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, run ExecutorFunc) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(cfg.Schedule, func() {
		tickCfg := scheduledConfig(cfg, time.Now())
		log := contract.Logger()
		log.Info().Str("period", tickCfg.Period).Msg("scheduled ranking started")
		if err := run(WithSuppressHeader(ctx), tickCfg, mgr); err != nil {
			log.Error().Err(err).Str("period", tickCfg.Period).Msg("scheduled ranking failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	return c, nil
}

// scheduledConfig returns a copy of cfg evaluated at tick.
func scheduledConfig(cfg *contract.Config, tick time.Time) *contract.Config {
	clone := cfg.Clone()
	clone.At = tick.UTC().Truncate(time.Second)
	clone.Period = schema.PeriodOf(clone.At)
	return clone
}
