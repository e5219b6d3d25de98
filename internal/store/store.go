// Package store persists players, stats, games, alerts and the pipeline
// run log.
package store

import (
	"context"
	"time"

	"github.com/hoopline/statline-cli/internal/model"
)

// RunFilter specifies criteria for listing pipeline runs.
type RunFilter struct {
	Pipeline string          `json:"pipeline,omitempty"`
	Status   model.RunStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the persistence interface consumed by the pipelines.
type Store interface {
	// Players
	UpsertPlayers(ctx context.Context, players []model.Player) (int64, error)

	// Daily stats, keyed (player_id, game_date). Re-runs on the same day
	// overwrite rather than duplicate.
	UpsertDailyStats(ctx context.Context, rows []model.PlayerDaily) (int64, error)

	// Season totals, keyed player_id, replaced wholesale per update. The
	// rank columns are owned by UpdatePrevRanks and ReassignRanks and are
	// never written by the replace.
	SeasonTotals(ctx context.Context) ([]model.SeasonTotal, error)
	ReplaceSeasonTotals(ctx context.Context, rows []model.SeasonTotal) (int64, error)

	// UpdatePrevRanks copies current rank into previous rank for the given
	// players only; untouched rows keep their old previous rank.
	UpdatePrevRanks(ctx context.Context, playerIDs []int64) error

	// ReassignRanks recomputes current rank over all season totals, ordered
	// by fantasy points descending with player id as tie-break.
	ReassignRanks(ctx context.Context) error

	// Ownership
	RecordOwnership(ctx context.Context, date time.Time, rows []model.FantasyPlayer) (int64, error)

	// Advanced stats, keyed (player_id, as_of_date).
	UpsertAdvancedStats(ctx context.Context, asOf time.Time, rows []model.AdvancedLine) (int64, error)

	// Games
	UpsertGames(ctx context.Context, games []model.Game) (int64, error)
	EarliestTipOff(ctx context.Context, date time.Time) (*time.Time, error)

	// Lineup alerts
	SaveTeam(ctx context.Context, team model.SavedTeam) error
	SavedTeams(ctx context.Context) ([]model.SavedTeam, error)
	AlreadyNotified(ctx context.Context, teamID string, date time.Time) (bool, error)
	RecordAlerts(ctx context.Context, alerts []model.LineupAlert) (int64, error)

	// Matchup scores, keyed (team_id, matchup_period, date). Same-day
	// re-runs overwrite the snapshot.
	UpsertMatchupScore(ctx context.Context, score model.MatchupScore) error

	// Player profiles
	UpsertPlayerInfo(ctx context.Context, info *model.PlayerInfo) error
	PlayerIDs(ctx context.Context) ([]int64, error)

	// Run log
	StartRun(ctx context.Context, runID, pipeline string) error
	CompleteRun(ctx context.Context, runID string, records int) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)
	LastSuccess(ctx context.Context, pipeline string) (*time.Time, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
