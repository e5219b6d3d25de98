package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/store"
)

// Scoreboard ingests the day's game schedule. The lineup-alert window gate
// reads these rows to find the first tip-off.
type Scoreboard struct {
	stats extract.StatsClient
	st    store.Store

	now func() time.Time
}

// NewScoreboard creates the scoreboard pipeline.
func NewScoreboard(stats extract.StatsClient, st store.Store) *Scoreboard {
	return &Scoreboard{stats: stats, st: st, now: time.Now}
}

func (p *Scoreboard) Config() Config {
	return Config{
		Name:        "scoreboard",
		DisplayName: "Scoreboard",
		Description: "Today's scheduled games and tip-off times",
		TargetTable: "games",
		Cadence:     Hourly,
	}
}

func (p *Scoreboard) Execute(ctx context.Context, run *Context) error {
	today := p.now().UTC().Truncate(24 * time.Hour)

	games, err := p.stats.GetScoreboardGames(ctx, today)
	if err != nil {
		return eris.Wrap(err, "scoreboard: fetch games")
	}
	if len(games) == 0 {
		zap.L().Info("scoreboard: no games today", zap.Time("date", today))
		return nil
	}

	for i := range games {
		if games[i].GameDate.IsZero() {
			games[i].GameDate = today
		}
		games[i].RunID = run.RunID
	}

	n, err := p.st.UpsertGames(ctx, games)
	if err != nil {
		return eris.Wrap(err, "scoreboard: upsert games")
	}
	if n > 0 {
		run.IncrementRecords(int(n))
	}
	return nil
}
