// Package extract fetches raw data from the league stats API and the
// fantasy platform.
package extract

import (
	"context"
	"time"

	"github.com/hoopline/statline-cli/internal/model"
)

// StatsClient fetches data from the league stats provider.
type StatsClient interface {
	// GetGameLogs returns every player box score for games on the given date.
	GetGameLogs(ctx context.Context, date time.Time, season string) ([]model.GameLog, error)

	// GetLeagueLeaders returns season-to-date cumulative totals for all players.
	GetLeagueLeaders(ctx context.Context, season string) ([]model.SeasonSnapshot, error)

	// GetAdvancedStats returns season advanced metrics for all players.
	GetAdvancedStats(ctx context.Context, season string) ([]model.AdvancedLine, error)

	// GetPlayerInfo returns biographical data for a single player.
	GetPlayerInfo(ctx context.Context, playerID int64) (*model.PlayerInfo, error)

	// GetScoreboardGames returns the day's scheduled games.
	GetScoreboardGames(ctx context.Context, date time.Time) ([]model.Game, error)
}

// FantasyClient fetches data from the fantasy platform.
type FantasyClient interface {
	// GetPlayerData returns the league's player feed keyed by normalized name.
	GetPlayerData(ctx context.Context) (map[string]model.FantasyPlayer, error)

	// GetRosterWithSlots returns the lineup slots for a named team in a league.
	GetRosterWithSlots(ctx context.Context, leagueID, teamName string) ([]model.RosterSlot, error)

	// GetMatchupScore returns the live head-to-head score for a named team
	// in the given matchup period.
	GetMatchupScore(ctx context.Context, leagueID, teamName string, period int) (*model.LiveMatchup, error)
}
