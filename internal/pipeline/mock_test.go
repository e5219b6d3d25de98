package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeStore is an in-memory store.Store for pipeline tests.
type fakeStore struct {
	players       map[int64]model.Player
	dailies       []model.PlayerDaily
	totals        map[int64]model.SeasonTotal
	ownership     []model.FantasyPlayer
	advanced      []model.AdvancedLine
	games         []model.Game
	teams         []model.SavedTeam
	alerts        []model.LineupAlert
	matchupScores []model.MatchupScore
	profiles      map[int64]model.PlayerInfo
	runs          map[string]*model.RunRecord
	runOrder      []string

	prevRankCalls [][]int64
	rankPasses    int

	tipOff *time.Time

	errOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:  make(map[int64]model.Player),
		totals:   make(map[int64]model.SeasonTotal),
		profiles: make(map[int64]model.PlayerInfo),
		runs:     make(map[string]*model.RunRecord),
		errOn:    make(map[string]error),
	}
}

func (f *fakeStore) fail(op string) error { return f.errOn[op] }

func (f *fakeStore) UpsertPlayers(_ context.Context, players []model.Player) (int64, error) {
	if err := f.fail("UpsertPlayers"); err != nil {
		return 0, err
	}
	for _, p := range players {
		// A zero fantasy id keeps the previously resolved one.
		if old, ok := f.players[p.ID]; ok && p.FantasyID == 0 {
			p.FantasyID = old.FantasyID
		}
		f.players[p.ID] = p
	}
	return int64(len(players)), nil
}

func (f *fakeStore) UpsertDailyStats(_ context.Context, rows []model.PlayerDaily) (int64, error) {
	if err := f.fail("UpsertDailyStats"); err != nil {
		return 0, err
	}
	f.dailies = append(f.dailies, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) SeasonTotals(_ context.Context) ([]model.SeasonTotal, error) {
	if err := f.fail("SeasonTotals"); err != nil {
		return nil, err
	}
	out := make([]model.SeasonTotal, 0, len(f.totals))
	for _, t := range f.totals {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ReplaceSeasonTotals(_ context.Context, rows []model.SeasonTotal) (int64, error) {
	if err := f.fail("ReplaceSeasonTotals"); err != nil {
		return 0, err
	}
	for _, t := range rows {
		// Rank columns belong to UpdatePrevRanks and ReassignRanks.
		if old, ok := f.totals[t.PlayerID]; ok {
			t.CurrentRank = old.CurrentRank
			t.PreviousRank = old.PreviousRank
		}
		f.totals[t.PlayerID] = t
	}
	return int64(len(rows)), nil
}

func (f *fakeStore) UpdatePrevRanks(_ context.Context, playerIDs []int64) error {
	if err := f.fail("UpdatePrevRanks"); err != nil {
		return err
	}
	ids := make([]int64, len(playerIDs))
	copy(ids, playerIDs)
	f.prevRankCalls = append(f.prevRankCalls, ids)
	for _, id := range playerIDs {
		if t, ok := f.totals[id]; ok {
			t.PreviousRank = t.CurrentRank
			f.totals[id] = t
		}
	}
	return nil
}

func (f *fakeStore) ReassignRanks(_ context.Context) error {
	if err := f.fail("ReassignRanks"); err != nil {
		return err
	}
	f.rankPasses++
	all := make([]model.SeasonTotal, 0, len(f.totals))
	for _, t := range f.totals {
		all = append(all, t)
	}
	RankTotals(all)
	for _, t := range all {
		f.totals[t.PlayerID] = t
	}
	return nil
}

func (f *fakeStore) RecordOwnership(_ context.Context, _ time.Time, rows []model.FantasyPlayer) (int64, error) {
	if err := f.fail("RecordOwnership"); err != nil {
		return 0, err
	}
	f.ownership = append(f.ownership, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) UpsertAdvancedStats(_ context.Context, _ time.Time, rows []model.AdvancedLine) (int64, error) {
	if err := f.fail("UpsertAdvancedStats"); err != nil {
		return 0, err
	}
	f.advanced = append(f.advanced, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) UpsertGames(_ context.Context, games []model.Game) (int64, error) {
	if err := f.fail("UpsertGames"); err != nil {
		return 0, err
	}
	f.games = append(f.games, games...)
	return int64(len(games)), nil
}

func (f *fakeStore) EarliestTipOff(_ context.Context, _ time.Time) (*time.Time, error) {
	if err := f.fail("EarliestTipOff"); err != nil {
		return nil, err
	}
	return f.tipOff, nil
}

func (f *fakeStore) SaveTeam(_ context.Context, team model.SavedTeam) error {
	if err := f.fail("SaveTeam"); err != nil {
		return err
	}
	f.teams = append(f.teams, team)
	return nil
}

func (f *fakeStore) SavedTeams(_ context.Context) ([]model.SavedTeam, error) {
	if err := f.fail("SavedTeams"); err != nil {
		return nil, err
	}
	return f.teams, nil
}

func (f *fakeStore) AlreadyNotified(_ context.Context, teamID string, date time.Time) (bool, error) {
	if err := f.fail("AlreadyNotified"); err != nil {
		return false, err
	}
	for _, a := range f.alerts {
		if a.TeamID == teamID && a.GameDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) RecordAlerts(_ context.Context, alerts []model.LineupAlert) (int64, error) {
	if err := f.fail("RecordAlerts"); err != nil {
		return 0, err
	}
	f.alerts = append(f.alerts, alerts...)
	return int64(len(alerts)), nil
}

func (f *fakeStore) UpsertMatchupScore(_ context.Context, score model.MatchupScore) error {
	if err := f.fail("UpsertMatchupScore"); err != nil {
		return err
	}
	for i, s := range f.matchupScores {
		if s.TeamID == score.TeamID && s.MatchupPeriod == score.MatchupPeriod && s.Date.Equal(score.Date) {
			f.matchupScores[i] = score
			return nil
		}
	}
	f.matchupScores = append(f.matchupScores, score)
	return nil
}

func (f *fakeStore) UpsertPlayerInfo(_ context.Context, info *model.PlayerInfo) error {
	if err := f.fail("UpsertPlayerInfo"); err != nil {
		return err
	}
	f.profiles[info.PlayerID] = *info
	return nil
}

func (f *fakeStore) PlayerIDs(_ context.Context) ([]int64, error) {
	if err := f.fail("PlayerIDs"); err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(f.players))
	for id := range f.players {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) StartRun(_ context.Context, runID, pipeline string) error {
	if err := f.fail("StartRun"); err != nil {
		return err
	}
	f.runs[runID] = &model.RunRecord{ID: runID, Pipeline: pipeline, Status: model.RunStatusRunning, StartedAt: time.Now()}
	f.runOrder = append(f.runOrder, runID)
	return nil
}

func (f *fakeStore) CompleteRun(_ context.Context, runID string, records int) error {
	if err := f.fail("CompleteRun"); err != nil {
		return err
	}
	if r, ok := f.runs[runID]; ok {
		r.Status = model.RunStatusSuccess
		r.Records = records
	}
	return nil
}

func (f *fakeStore) FailRun(_ context.Context, runID string, errMsg string) error {
	if err := f.fail("FailRun"); err != nil {
		return err
	}
	if r, ok := f.runs[runID]; ok {
		r.Status = model.RunStatusFailed
		r.Error = errMsg
	}
	return nil
}

func (f *fakeStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.RunRecord, error) {
	out := make([]model.RunRecord, 0, len(f.runOrder))
	for _, id := range f.runOrder {
		out = append(out, *f.runs[id])
	}
	return out, nil
}

func (f *fakeStore) LastSuccess(_ context.Context, _ string) (*time.Time, error) {
	return nil, nil
}

func (f *fakeStore) Migrate(_ context.Context) error { return nil }
func (f *fakeStore) Close() error                    { return nil }

// fakeStatsClient serves canned responses.
type fakeStatsClient struct {
	gameLogs []model.GameLog
	leaders  []model.SeasonSnapshot
	advanced []model.AdvancedLine
	info     map[int64]*model.PlayerInfo
	games    []model.Game

	err     error
	infoErr map[int64]error
}

func (f *fakeStatsClient) GetGameLogs(_ context.Context, _ time.Time, _ string) ([]model.GameLog, error) {
	return f.gameLogs, f.err
}

func (f *fakeStatsClient) GetLeagueLeaders(_ context.Context, _ string) ([]model.SeasonSnapshot, error) {
	return f.leaders, f.err
}

func (f *fakeStatsClient) GetAdvancedStats(_ context.Context, _ string) ([]model.AdvancedLine, error) {
	return f.advanced, f.err
}

func (f *fakeStatsClient) GetPlayerInfo(_ context.Context, playerID int64) (*model.PlayerInfo, error) {
	if err := f.infoErr[playerID]; err != nil {
		return nil, err
	}
	if info, ok := f.info[playerID]; ok {
		return info, nil
	}
	return &model.PlayerInfo{PlayerID: playerID}, nil
}

func (f *fakeStatsClient) GetScoreboardGames(_ context.Context, _ time.Time) ([]model.Game, error) {
	return f.games, f.err
}

// fakeFantasyClient serves canned fantasy data.
type fakeFantasyClient struct {
	players  map[string]model.FantasyPlayer
	rosters  map[string][]model.RosterSlot
	matchups map[string]model.LiveMatchup

	playersErr    error
	rosterErr     error
	rosterErrFor  map[string]error
	matchupErrFor map[string]error
}

func (f *fakeFantasyClient) GetPlayerData(_ context.Context) (map[string]model.FantasyPlayer, error) {
	return f.players, f.playersErr
}

func (f *fakeFantasyClient) GetRosterWithSlots(_ context.Context, _, teamName string) ([]model.RosterSlot, error) {
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	if err := f.rosterErrFor[teamName]; err != nil {
		return nil, err
	}
	return f.rosters[teamName], nil
}

func (f *fakeFantasyClient) GetMatchupScore(_ context.Context, _, teamName string, _ int) (*model.LiveMatchup, error) {
	if err := f.matchupErrFor[teamName]; err != nil {
		return nil, err
	}
	m, ok := f.matchups[teamName]
	if !ok {
		return nil, eris.Errorf("no matchup for %s", teamName)
	}
	return &m, nil
}

// fixedNow pins a pipeline's clock for tests.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
