package extract

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/resilience"
)

// StatsAPI implements StatsClient against the league's tabular stats
// endpoints. Responses arrive as named result sets, each a header row plus
// a row set of heterogeneous values.
type StatsAPI struct {
	api *apiClient
}

// NewStatsAPI creates a stats client for the given base URL.
func NewStatsAPI(baseURL string, timeout time.Duration, perSecond, burst int) *StatsAPI {
	return &StatsAPI{api: newAPIClient(baseURL, timeout, perSecond, burst)}
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

type statsResponse struct {
	ResultSets []resultSet `json:"resultSets"`
}

// findSet returns the named result set, or the first one if name is empty.
func (r *statsResponse) findSet(name string) (*resultSet, error) {
	if len(r.ResultSets) == 0 {
		return nil, resilience.NewPermanentError(eris.New("extract: response has no result sets"), 0)
	}
	if name == "" {
		return &r.ResultSets[0], nil
	}
	for i := range r.ResultSets {
		if r.ResultSets[i].Name == name {
			return &r.ResultSets[i], nil
		}
	}
	return nil, resilience.NewPermanentError(eris.Errorf("extract: result set %q not found", name), 0)
}

// rowReader resolves row values by header name.
type rowReader struct {
	idx map[string]int
	row []any
}

func (rs *resultSet) reader() rowReader {
	idx := make(map[string]int, len(rs.Headers))
	for i, h := range rs.Headers {
		idx[h] = i
	}
	return rowReader{idx: idx}
}

func (r *rowReader) get(col string) any {
	i, ok := r.idx[col]
	if !ok || i >= len(r.row) {
		return nil
	}
	return r.row[i]
}

func (r *rowReader) str(col string) string {
	if s, ok := r.get(col).(string); ok {
		return s
	}
	return ""
}

// numbers decode as float64 from JSON; some feeds quote them.
func (r *rowReader) float(col string) float64 {
	switch v := r.get(col).(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func (r *rowReader) int(col string) int {
	return int(r.float(col))
}

func (r *rowReader) int64(col string) int64 {
	return int64(r.float(col))
}

func (r *rowReader) statLine() model.StatLine {
	return model.StatLine{
		Min:  r.int("MIN"),
		Pts:  r.int("PTS"),
		Reb:  r.int("REB"),
		Ast:  r.int("AST"),
		Stl:  r.int("STL"),
		Blk:  r.int("BLK"),
		Tov:  r.int("TOV"),
		Fgm:  r.int("FGM"),
		Fga:  r.int("FGA"),
		Fg3m: r.int("FG3M"),
		Fg3a: r.int("FG3A"),
		Ftm:  r.int("FTM"),
		Fta:  r.int("FTA"),
	}
}

// GetGameLogs returns every player box score for games on the given date.
func (s *StatsAPI) GetGameLogs(ctx context.Context, date time.Time, season string) ([]model.GameLog, error) {
	day := date.Format("01/02/2006")
	params := url.Values{
		"Season":       {season},
		"LeagueID":     {"00"},
		"PlayerOrTeam": {"P"},
		"DateFrom":     {day},
		"DateTo":       {day},
	}

	var resp statsResponse
	if err := s.api.getJSON(ctx, "/leaguegamelog", params, &resp); err != nil {
		return nil, err
	}
	rs, err := resp.findSet("LeagueGameLog")
	if err != nil {
		return nil, err
	}

	rd := rs.reader()
	logs := make([]model.GameLog, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		rd.row = row
		logs = append(logs, model.GameLog{
			PlayerID: rd.int64("PLAYER_ID"),
			Name:     rd.str("PLAYER_NAME"),
			Team:     rd.str("TEAM_ABBREVIATION"),
			GameDate: rd.str("GAME_DATE"),
			Stats:    rd.statLine(),
		})
	}
	return logs, nil
}

// GetLeagueLeaders returns season-to-date cumulative totals for all players.
func (s *StatsAPI) GetLeagueLeaders(ctx context.Context, season string) ([]model.SeasonSnapshot, error) {
	params := url.Values{
		"Season":       {season},
		"LeagueID":     {"00"},
		"PerMode":      {"Totals"},
		"StatCategory": {"PTS"},
		"Scope":        {"S"},
	}

	var resp statsResponse
	if err := s.api.getJSON(ctx, "/leagueleaders", params, &resp); err != nil {
		return nil, err
	}
	rs, err := resp.findSet("LeagueLeaders")
	if err != nil {
		return nil, err
	}

	rd := rs.reader()
	snaps := make([]model.SeasonSnapshot, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		rd.row = row
		snaps = append(snaps, model.SeasonSnapshot{
			PlayerID:    rd.int64("PLAYER_ID"),
			Name:        rd.str("PLAYER"),
			Team:        rd.str("TEAM"),
			GamesPlayed: rd.int("GP"),
			Stats:       rd.statLine(),
		})
	}
	return snaps, nil
}

// GetAdvancedStats returns season advanced metrics for all players.
func (s *StatsAPI) GetAdvancedStats(ctx context.Context, season string) ([]model.AdvancedLine, error) {
	params := url.Values{
		"Season":      {season},
		"LeagueID":    {"00"},
		"MeasureType": {"Advanced"},
		"PerMode":     {"Totals"},
	}

	var resp statsResponse
	if err := s.api.getJSON(ctx, "/leaguedashplayerstats", params, &resp); err != nil {
		return nil, err
	}
	rs, err := resp.findSet("LeagueDashPlayerStats")
	if err != nil {
		return nil, err
	}

	rd := rs.reader()
	lines := make([]model.AdvancedLine, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		rd.row = row
		lines = append(lines, model.AdvancedLine{
			PlayerID:    rd.int64("PLAYER_ID"),
			Name:        rd.str("PLAYER_NAME"),
			Team:        rd.str("TEAM_ABBREVIATION"),
			GamesPlayed: rd.int("GP"),
			OffRating:   rd.float("OFF_RATING"),
			DefRating:   rd.float("DEF_RATING"),
			NetRating:   rd.float("NET_RATING"),
			TsPct:       rd.float("TS_PCT"),
			UsgPct:      rd.float("USG_PCT"),
			RebPct:      rd.float("REB_PCT"),
			AstPct:      rd.float("AST_PCT"),
			Pace:        rd.float("PACE"),
			Pie:         rd.float("PIE"),
		})
	}
	return lines, nil
}

// GetPlayerInfo returns biographical data for a single player.
func (s *StatsAPI) GetPlayerInfo(ctx context.Context, playerID int64) (*model.PlayerInfo, error) {
	params := url.Values{
		"PlayerID": {strconv.FormatInt(playerID, 10)},
		"LeagueID": {"00"},
	}

	var resp statsResponse
	if err := s.api.getJSON(ctx, "/commonplayerinfo", params, &resp); err != nil {
		return nil, err
	}
	rs, err := resp.findSet("CommonPlayerInfo")
	if err != nil {
		return nil, err
	}
	if len(rs.RowSet) == 0 {
		return nil, resilience.NewPermanentError(eris.Errorf("extract: no info for player %d", playerID), 0)
	}

	rd := rs.reader()
	rd.row = rs.RowSet[0]
	return &model.PlayerInfo{
		PlayerID:  rd.int64("PERSON_ID"),
		FirstName: rd.str("FIRST_NAME"),
		LastName:  rd.str("LAST_NAME"),
		Birthdate: rd.str("BIRTHDATE"),
		Height:    rd.str("HEIGHT"),
		Weight:    rd.int("WEIGHT"),
		Position:  rd.str("POSITION"),
		Team:      rd.str("TEAM_ABBREVIATION"),
		DraftYear: rd.int("DRAFT_YEAR"),
		Country:   rd.str("COUNTRY"),
	}, nil
}

// GetScoreboardGames returns the day's scheduled games.
func (s *StatsAPI) GetScoreboardGames(ctx context.Context, date time.Time) ([]model.Game, error) {
	params := url.Values{
		"GameDate": {date.Format("01/02/2006")},
		"LeagueID": {"00"},
	}

	var resp statsResponse
	if err := s.api.getJSON(ctx, "/scoreboardv2", params, &resp); err != nil {
		return nil, err
	}
	rs, err := resp.findSet("GameHeader")
	if err != nil {
		return nil, err
	}

	rd := rs.reader()
	games := make([]model.Game, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		rd.row = row
		g := model.Game{
			GameID:   rd.str("GAME_ID"),
			HomeTeam: rd.str("HOME_TEAM_ABBREVIATION"),
			AwayTeam: rd.str("VISITOR_TEAM_ABBREVIATION"),
			Status:   rd.str("GAME_STATUS_TEXT"),
		}
		if d, err := time.Parse("2006-01-02T15:04:05", rd.str("GAME_DATE_EST")); err == nil {
			g.GameDate = d
		}
		if t, err := time.Parse(time.RFC3339, rd.str("GAME_TIME_UTC")); err == nil {
			g.TipOff = t
		}
		games = append(games, g)
	}
	return games, nil
}
