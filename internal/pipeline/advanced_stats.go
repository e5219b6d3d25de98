package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/store"
)

// AdvancedStats ingests season advanced metrics keyed by (player, as-of date).
type AdvancedStats struct {
	stats  extract.StatsClient
	st     store.Store
	season string

	now func() time.Time
}

// NewAdvancedStats creates the advanced_stats pipeline.
func NewAdvancedStats(stats extract.StatsClient, st store.Store, season string) *AdvancedStats {
	return &AdvancedStats{stats: stats, st: st, season: season, now: time.Now}
}

func (p *AdvancedStats) Config() Config {
	return Config{
		Name:        "advanced_stats",
		DisplayName: "Advanced Stats",
		Description: "Season advanced metrics (ratings, usage, pace, PIE)",
		TargetTable: "player_advanced_stats",
		Cadence:     Daily,
	}
}

func (p *AdvancedStats) Execute(ctx context.Context, run *Context) error {
	lines, err := p.stats.GetAdvancedStats(ctx, p.season)
	if err != nil {
		return eris.Wrap(err, "advanced_stats: fetch")
	}
	if len(lines) == 0 {
		return nil
	}

	asOf := p.now().UTC().Truncate(24 * time.Hour)
	n, err := p.st.UpsertAdvancedStats(ctx, asOf, lines)
	if err != nil {
		return eris.Wrap(err, "advanced_stats: upsert")
	}
	if n > 0 {
		run.IncrementRecords(int(n))
	}
	return nil
}
