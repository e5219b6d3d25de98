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

// GameStats ingests last night's box scores as literal per-game daily rows,
// joined against the fantasy feed by normalized name for ownership and the
// fantasy player id.
type GameStats struct {
	stats   extract.StatsClient
	fantasy extract.FantasyClient
	st      store.Store
	weights model.ScoringWeights
	season  string

	ownership map[string]model.FantasyPlayer
	now       func() time.Time
}

// NewGameStats creates the game_stats pipeline.
func NewGameStats(stats extract.StatsClient, fantasy extract.FantasyClient, st store.Store, weights model.ScoringWeights, season string) *GameStats {
	return &GameStats{
		stats:   stats,
		fantasy: fantasy,
		st:      st,
		weights: weights,
		season:  season,
		now:     time.Now,
	}
}

func (p *GameStats) Config() Config {
	return Config{
		Name:        "game_stats",
		DisplayName: "Game Stats",
		Description: "Per-game box scores for last night's games",
		TargetTable: "player_daily_stats",
		Cadence:     Daily,
	}
}

// BeforeExecute loads the fantasy feed. Ownership and fantasy ids enrich
// rows but are not load-bearing, so a failed fetch degrades to an empty join.
func (p *GameStats) BeforeExecute(ctx context.Context, _ *Context) error {
	ownership, err := p.fantasy.GetPlayerData(ctx)
	if err != nil {
		zap.L().Warn("game_stats: fantasy feed unavailable", zap.Error(err))
		ownership = map[string]model.FantasyPlayer{}
	}
	p.ownership = ownership
	return nil
}

func (p *GameStats) Execute(ctx context.Context, run *Context) error {
	gameDate := p.now().UTC().AddDate(0, 0, -1)
	gameDate = time.Date(gameDate.Year(), gameDate.Month(), gameDate.Day(), 0, 0, 0, 0, time.UTC)

	logs, err := p.stats.GetGameLogs(ctx, gameDate, p.season)
	if err != nil {
		return eris.Wrap(err, "game_stats: fetch game logs")
	}
	if len(logs) == 0 {
		zap.L().Info("game_stats: no games on date", zap.Time("date", gameDate))
		return nil
	}

	players := make([]model.Player, 0, len(logs))
	rows := make([]model.PlayerDaily, 0, len(logs))
	for _, gl := range logs {
		fp := p.ownership[model.NormalizeName(gl.Name)]
		players = append(players, model.Player{ID: gl.PlayerID, Name: gl.Name, FantasyID: fp.FantasyID})
		rows = append(rows, model.PlayerDaily{
			PlayerID:      gl.PlayerID,
			Name:          gl.Name,
			Team:          gl.Team,
			GameDate:      gameDate,
			FantasyPoints: p.weights.FantasyPoints(gl.Stats),
			Stats:         gl.Stats,
			OwnershipPct:  fp.OwnershipPct,
			RunID:         run.RunID,
		})
	}

	if _, err := p.st.UpsertPlayers(ctx, players); err != nil {
		return eris.Wrap(err, "game_stats: upsert players")
	}
	n, err := p.st.UpsertDailyStats(ctx, rows)
	if err != nil {
		return eris.Wrap(err, "game_stats: upsert daily stats")
	}
	if n > 0 {
		run.IncrementRecords(int(n))
	}
	return nil
}
