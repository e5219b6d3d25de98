package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

// CumulativeStats reconciles the league-leaders season snapshot against the
// stored season totals: players whose games-played moved get an inferred
// daily delta row, a wholesale-replaced season row, and a rank refresh.
type CumulativeStats struct {
	stats   extract.StatsClient
	fantasy extract.FantasyClient
	st      store.Store
	weights model.ScoringWeights
	season  string

	now func() time.Time

	// set by BeforeExecute for the duration of one run
	ownership map[string]model.FantasyPlayer
}

// NewCumulativeStats creates the cumulative_stats pipeline.
func NewCumulativeStats(stats extract.StatsClient, fantasy extract.FantasyClient, st store.Store, weights model.ScoringWeights, season string) *CumulativeStats {
	return &CumulativeStats{
		stats:   stats,
		fantasy: fantasy,
		st:      st,
		weights: weights,
		season:  season,
		now:     time.Now,
	}
}

func (p *CumulativeStats) Config() Config {
	return Config{
		Name:        "cumulative_stats",
		DisplayName: "Cumulative Stats",
		Description: "Season totals reconciliation with inferred daily deltas and rank maintenance",
		TargetTable: "player_season_totals",
		Cadence:     Daily,
	}
}

// BeforeExecute loads the fantasy ownership feed. Ownership enriches rows
// but is not load-bearing, so a failed fetch degrades to empty ownership
// instead of failing the run.
func (p *CumulativeStats) BeforeExecute(ctx context.Context, _ *Context) error {
	ownership, err := p.fantasy.GetPlayerData(ctx)
	if err != nil {
		zap.L().Warn("cumulative_stats: ownership feed unavailable", zap.Error(err))
		ownership = map[string]model.FantasyPlayer{}
	}
	p.ownership = ownership
	return nil
}

func (p *CumulativeStats) Execute(ctx context.Context, run *Context) error {
	fresh, err := p.stats.GetLeagueLeaders(ctx, p.season)
	if err != nil {
		return eris.Wrap(err, "cumulative_stats: fetch league leaders")
	}
	if len(fresh) == 0 {
		return eris.New("cumulative_stats: empty league leaders response")
	}

	for i := range fresh {
		if fp, ok := p.ownership[model.NormalizeName(fresh[i].Name)]; ok {
			fresh[i].OwnershipPct = fp.OwnershipPct
		}
	}

	prior, err := p.st.SeasonTotals(ctx)
	if err != nil {
		return eris.Wrap(err, "cumulative_stats: load season totals")
	}

	gameDate := p.now().UTC().AddDate(0, 0, -1)
	gameDate = time.Date(gameDate.Year(), gameDate.Month(), gameDate.Day(), 0, 0, 0, 0, time.UTC)

	rec := Reconcile(fresh, prior, p.weights, gameDate, run.RunID)
	if len(rec.Touched) == 0 {
		zap.L().Info("cumulative_stats: no players moved", zap.Int("snapshot_size", len(fresh)))
		return nil
	}

	players := make([]model.Player, 0, len(rec.Totals))
	for _, t := range rec.Totals {
		players = append(players, model.Player{ID: t.PlayerID, Name: t.Name})
	}
	if _, err := p.st.UpsertPlayers(ctx, players); err != nil {
		return eris.Wrap(err, "cumulative_stats: upsert players")
	}

	if _, err := p.st.UpsertDailyStats(ctx, rec.Dailies); err != nil {
		return eris.Wrap(err, "cumulative_stats: upsert daily deltas")
	}

	// Two-step rank maintenance: first snapshot the current rank into the
	// previous rank for touched players only, then re-rank everyone.
	if err := p.st.UpdatePrevRanks(ctx, rec.Touched); err != nil {
		return eris.Wrap(err, "cumulative_stats: update previous ranks")
	}
	if _, err := p.st.ReplaceSeasonTotals(ctx, rec.Totals); err != nil {
		return eris.Wrap(err, "cumulative_stats: replace season totals")
	}
	if err := p.st.ReassignRanks(ctx); err != nil {
		return eris.Wrap(err, "cumulative_stats: reassign ranks")
	}

	run.IncrementRecords(len(rec.Dailies))
	zap.L().Info("cumulative_stats: reconciled",
		zap.Int("touched", len(rec.Touched)),
		zap.Time("game_date", gameDate),
	)
	return nil
}
