package model

import (
	"fmt"
	"time"
)

// Player is the dimension record keyed by the upstream stats API player id.
type Player struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FantasyID int64  `json:"fantasy_id,omitempty"`
}

// GameLog is one player's box score for a single game, as returned by the
// stats API game-log endpoint.
type GameLog struct {
	PlayerID int64    `json:"player_id"`
	Name     string   `json:"player_name"`
	Team     string   `json:"team"`
	GameDate string   `json:"game_date"`
	Stats    StatLine `json:"stats"`
}

// SeasonSnapshot is one player's season-to-date cumulative totals as reported
// by the league-leaders endpoint. The upstream publishes only snapshots; the
// reconciliation engine derives daily deltas from consecutive ones.
type SeasonSnapshot struct {
	PlayerID     int64    `json:"player_id"`
	Name         string   `json:"name"`
	Team         string   `json:"team"`
	GamesPlayed  int      `json:"gp"`
	OwnershipPct float64  `json:"ownership_pct"`
	Stats        StatLine `json:"stats"`
}

// PlayerDaily is a persisted per-(player, date) stat row. For the game-stats
// pipeline it is a literal box score; for the cumulative pipeline it is the
// inferred delta since the previous run.
type PlayerDaily struct {
	PlayerID      int64     `json:"player_id"`
	Name          string    `json:"name"`
	Team          string    `json:"team"`
	GameDate      time.Time `json:"game_date"`
	FantasyPoints int       `json:"fpts"`
	Stats         StatLine  `json:"stats"`
	OwnershipPct  float64   `json:"ownership_pct"`
	RunID         string    `json:"run_id"`
}

// SeasonTotal is the rolling season aggregate per player. It is replaced
// wholesale on every update rather than appended to.
//
// CurrentRank over all rows is a dense permutation of 1..N ordered by
// descending fantasy points; PreviousRank holds the pre-update CurrentRank
// for rows touched by the most recent run.
type SeasonTotal struct {
	PlayerID      int64     `json:"player_id"`
	Name          string    `json:"name"`
	Team          string    `json:"team"`
	LastPlayed    time.Time `json:"last_played"`
	FantasyPoints int       `json:"fpts"`
	Stats         StatLine  `json:"stats"`
	GamesPlayed   int       `json:"gp"`
	OwnershipPct  float64   `json:"ownership_pct"`
	CurrentRank   int       `json:"c_rank"`
	PreviousRank  int       `json:"p_rank"`
	RunID         string    `json:"run_id"`
}

// RankChange returns how many places the player moved since the last run a
// rank pass touched them. Positive means the player climbed.
func (t SeasonTotal) RankChange() int {
	if t.PreviousRank == 0 {
		return 0
	}
	return t.PreviousRank - t.CurrentRank
}

// AdvancedLine holds the efficiency/usage/impact metrics from the advanced
// stats endpoint. Values are kept as float64; the upstream reports them with
// three decimal places.
type AdvancedLine struct {
	PlayerID    int64   `json:"player_id"`
	Name        string  `json:"name"`
	Team        string  `json:"team"`
	GamesPlayed int     `json:"gp"`
	OffRating   float64 `json:"off_rating"`
	DefRating   float64 `json:"def_rating"`
	NetRating   float64 `json:"net_rating"`
	TsPct       float64 `json:"ts_pct"`
	UsgPct      float64 `json:"usg_pct"`
	RebPct      float64 `json:"reb_pct"`
	AstPct      float64 `json:"ast_pct"`
	Pace        float64 `json:"pace"`
	Pie         float64 `json:"pie"`
}

// PlayerInfo is the biographical record from the per-player info endpoint.
type PlayerInfo struct {
	PlayerID  int64  `json:"player_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Birthdate string `json:"birthdate"`
	Height    string `json:"height"`
	Weight    int    `json:"weight"`
	Position  string `json:"position"`
	Team      string `json:"team"`
	DraftYear int    `json:"draft_year"`
	Country   string `json:"country"`
}

// Game is one scheduled or completed game from the scoreboard endpoint.
type Game struct {
	GameID   string    `json:"game_id"`
	GameDate time.Time `json:"game_date"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	TipOff   time.Time `json:"tip_off"`
	Status   string    `json:"status"`
	RunID    string    `json:"run_id"`
}

// FantasyPlayer is one entry from the fantasy league's player feed, keyed by
// normalized name when joined against stats-API data.
type FantasyPlayer struct {
	FantasyID    int64   `json:"fantasy_id"`
	Name         string  `json:"name"`
	Team         string  `json:"team"`
	OwnershipPct float64 `json:"ownership_pct"`
}

// RosterSlot is one lineup slot on a saved fantasy team.
type RosterSlot struct {
	PlayerName string `json:"player_name"`
	Team       string `json:"team"`
	Slot       string `json:"slot"` // e.g. "PG", "UT", "BE", "IR"
	Injured    bool   `json:"injured"`
}

// SavedTeam is a fantasy team a user registered for lineup alerts.
type SavedTeam struct {
	TeamID   string `json:"team_id"`
	UserID   string `json:"user_id"`
	LeagueID int64  `json:"league_id"`
	TeamName string `json:"team_name"`
}

// SeasonFor derives the season string ("2025-26") for a given date. The
// season rolls over in August, between the finals and training camp.
func SeasonFor(t time.Time) string {
	year := t.Year()
	if t.Month() < time.August {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}
