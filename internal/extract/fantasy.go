package extract

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/resilience"
)

// FantasyAPI implements FantasyClient against the fantasy platform's
// request endpoint.
type FantasyAPI struct {
	api      *apiClient
	leagueID string
}

// NewFantasyAPI creates a fantasy client for the given base URL and league.
func NewFantasyAPI(baseURL, leagueID string, timeout time.Duration) *FantasyAPI {
	return &FantasyAPI{
		api:      newAPIClient(baseURL, timeout, 2, 4),
		leagueID: leagueID,
	}
}

type fantasyPlayersResponse struct {
	Players []struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		Team     string  `json:"team"`
		PctOwned float64 `json:"pct_owned"`
	} `json:"players"`
}

// GetPlayerData returns the league's player feed keyed by normalized name.
// Stats-API rows join against this map to pick up fantasy ids and ownership.
func (f *FantasyAPI) GetPlayerData(ctx context.Context) (map[string]model.FantasyPlayer, error) {
	params := url.Values{
		"leagueId": {f.leagueID},
		"view":     {"ALL"},
	}

	var resp fantasyPlayersResponse
	if err := f.api.getJSON(ctx, "/players", params, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]model.FantasyPlayer, len(resp.Players))
	for _, p := range resp.Players {
		out[model.NormalizeName(p.Name)] = model.FantasyPlayer{
			FantasyID:    p.ID,
			Name:         p.Name,
			Team:         p.Team,
			OwnershipPct: p.PctOwned,
		}
	}
	return out, nil
}

type fantasyRosterResponse struct {
	Teams []struct {
		Name  string `json:"name"`
		Slots []struct {
			PlayerName string `json:"player_name"`
			Team       string `json:"team"`
			Slot       string `json:"slot"`
			Injured    bool   `json:"injured"`
		} `json:"slots"`
	} `json:"teams"`
}

// GetRosterWithSlots returns the lineup slots for a named team in a league.
// An unknown team name is permanent; alerts for it can never succeed.
func (f *FantasyAPI) GetRosterWithSlots(ctx context.Context, leagueID, teamName string) ([]model.RosterSlot, error) {
	params := url.Values{
		"leagueId": {leagueID},
		"view":     {"ROSTER"},
	}

	var resp fantasyRosterResponse
	if err := f.api.getJSON(ctx, "/rosters", params, &resp); err != nil {
		return nil, err
	}

	for _, team := range resp.Teams {
		if !strings.EqualFold(team.Name, teamName) {
			continue
		}
		slots := make([]model.RosterSlot, 0, len(team.Slots))
		for _, s := range team.Slots {
			slots = append(slots, model.RosterSlot{
				PlayerName: s.PlayerName,
				Team:       s.Team,
				Slot:       s.Slot,
				Injured:    s.Injured,
			})
		}
		return slots, nil
	}

	return nil, resilience.NewPermanentError(
		eris.Errorf("extract: team %q not found in league %s", teamName, leagueID), 0)
}

type fantasyMatchupResponse struct {
	Matchups []struct {
		Home struct {
			Name  string  `json:"name"`
			Score float64 `json:"score"`
		} `json:"home"`
		Away struct {
			Name  string  `json:"name"`
			Score float64 `json:"score"`
		} `json:"away"`
	} `json:"matchups"`
}

// GetMatchupScore returns the live head-to-head score for a named team in
// the given matchup period. A team on neither side of any matchup is
// permanent; the schedule will not change mid-period.
func (f *FantasyAPI) GetMatchupScore(ctx context.Context, leagueID, teamName string, period int) (*model.LiveMatchup, error) {
	params := url.Values{
		"leagueId":      {leagueID},
		"matchupPeriod": {strconv.Itoa(period)},
		"view":          {"MATCHUP"},
	}

	var resp fantasyMatchupResponse
	if err := f.api.getJSON(ctx, "/matchups", params, &resp); err != nil {
		return nil, err
	}

	for _, m := range resp.Matchups {
		switch {
		case strings.EqualFold(m.Home.Name, teamName):
			return &model.LiveMatchup{
				TeamName:      m.Home.Name,
				OpponentName:  m.Away.Name,
				Score:         m.Home.Score,
				OpponentScore: m.Away.Score,
			}, nil
		case strings.EqualFold(m.Away.Name, teamName):
			return &model.LiveMatchup{
				TeamName:      m.Away.Name,
				OpponentName:  m.Home.Name,
				Score:         m.Away.Score,
				OpponentScore: m.Home.Score,
			}, nil
		}
	}

	return nil, resilience.NewPermanentError(
		eris.Errorf("extract: team %q has no matchup in period %d of league %s", teamName, period, leagueID), 0)
}
