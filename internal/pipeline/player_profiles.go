package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/store"
)

// PlayerProfiles refreshes biographical data one player at a time. The
// per-player endpoint is the touchiest one upstream, so calls are spaced by
// a fixed delay and a bad player is skipped rather than failing the run.
type PlayerProfiles struct {
	stats   extract.StatsClient
	st      store.Store
	delay   time.Duration
	timeout time.Duration
}

// NewPlayerProfiles creates the player_profiles pipeline. delay is the
// inter-call sleep; timeout bounds the whole run.
func NewPlayerProfiles(stats extract.StatsClient, st store.Store, delay, timeout time.Duration) *PlayerProfiles {
	if delay <= 0 {
		delay = 600 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &PlayerProfiles{stats: stats, st: st, delay: delay, timeout: timeout}
}

func (p *PlayerProfiles) Config() Config {
	return Config{
		Name:        "player_profiles",
		DisplayName: "Player Profiles",
		Description: "Biographical data, one slow call per player",
		TargetTable: "player_profiles",
		Timeout:     p.timeout,
		Cadence:     Weekly,
	}
}

func (p *PlayerProfiles) Execute(ctx context.Context, run *Context) error {
	ids, err := p.st.PlayerIDs(ctx)
	if err != nil {
		return eris.Wrap(err, "player_profiles: list players")
	}
	if len(ids) == 0 {
		return nil
	}

	log := zap.L().With(zap.String("pipeline", "player_profiles"))
	var failed int
	for i, id := range ids {
		if i > 0 {
			timer := time.NewTimer(p.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		info, err := p.stats.GetPlayerInfo(ctx, id)
		if err != nil {
			log.Warn("skipping player", zap.Int64("player_id", id), zap.Error(err))
			failed++
			continue
		}
		if err := p.st.UpsertPlayerInfo(ctx, info); err != nil {
			return eris.Wrapf(err, "player_profiles: upsert player %d", id)
		}
		run.IncrementRecords(1)
	}

	if failed == len(ids) {
		return eris.Errorf("player_profiles: all %d lookups failed", failed)
	}
	if failed > 0 {
		log.Warn("completed with skips", zap.Int("failed", failed), zap.Int("total", len(ids)))
	}
	return nil
}
