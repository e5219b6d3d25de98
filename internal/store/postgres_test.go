package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopline/statline-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_UpdatePrevRanks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE stats.player_season_totals SET p_rank = c_rank WHERE player_id = ANY\(\$1\)`).
		WithArgs([]int64{201, 203}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	err := s.UpdatePrevRanks(context.Background(), []int64{201, 203})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdatePrevRanks_EmptyIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.UpdatePrevRanks(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReassignRanks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ROW_NUMBER\(\) OVER \(ORDER BY fpts DESC, player_id ASC\)`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 5))

	err := s.ReassignRanks(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EarliestTipOff_NoGames(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT MIN\(tip_off\) FROM stats.games WHERE game_date = \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"min"}).AddRow((*time.Time)(nil)))

	tip, err := s.EarliestTipOff(context.Background(), time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, tip)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EarliestTipOff_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	tipOff := time.Date(2026, 1, 15, 19, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT MIN\(tip_off\) FROM stats.games`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"min"}).AddRow(&tipOff))

	tip, err := s.EarliestTipOff(context.Background(), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, tip)
	assert.True(t, tip.Equal(tipOff))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AlreadyNotified(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("t1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	notified, err := s.AlreadyNotified(context.Background(), "t1", time.Now())
	require.NoError(t, err)
	assert.True(t, notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertGames_BulkUpsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_stats_games"}, gameColumns).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "stats"."games".*ON CONFLICT \("game_id"\) DO UPDATE`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.UpsertGames(context.Background(), []model.Game{
		{GameID: "0022600551", GameDate: time.Now(), HomeTeam: "LAL", AwayTeam: "MEM", TipOff: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertPlayers_KeepsFantasyIDOnZero(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_stats_players"}, playerColumns).
		WillReturnResult(1)
	mock.ExpectExec(`CASE WHEN EXCLUDED\.fantasy_id = 0 THEN players\.fantasy_id ELSE EXCLUDED\.fantasy_id END`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.UpsertPlayers(context.Background(), []model.Player{
		{ID: 201, Name: "Luka Doncic"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertDailyStats_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.UpsertDailyStats(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SeasonTotals_Scan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{
		"player_id", "name", "team", "last_played", "fpts",
		"min", "pts", "reb", "ast", "stl", "blk", "tov",
		"fgm", "fga", "fg3m", "fg3a", "ftm", "fta",
		"gp", "ownership_pct", "c_rank", "p_rank", "run_id",
	}
	lastPlayed := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT player_id, name, team, last_played, fpts`).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			int64(201), "Luka Doncic", "LAL", lastPlayed, 1100,
			1520, 800, 300, 350, 60, 20, 120,
			290, 600, 90, 250, 130, 150,
			40, 99.8, 1, 2, "run-1",
		))

	totals, err := s.SeasonTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(201), totals[0].PlayerID)
	assert.Equal(t, 800, totals[0].Stats.Pts)
	assert.Equal(t, 1, totals[0].CurrentRank)
	assert.Equal(t, 2, totals[0].PreviousRank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE stats.pipeline_runs SET status = \$1, records = \$2`).
		WithArgs("success", 12, pgxmock.AnyArg(), "missing-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing-run", 12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastSuccess_NeverRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT started_at FROM stats.pipeline_runs`).
		WithArgs("game_stats").
		WillReturnError(pgx.ErrNoRows)

	last, err := s.LastSuccess(context.Background(), "game_stats")
	require.NoError(t, err)
	assert.Nil(t, last)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	completed := started.Add(40 * time.Second)
	mock.ExpectQuery(`FROM stats.pipeline_runs WHERE true AND pipeline = \$1 AND status = \$2`).
		WithArgs("game_stats", "failed", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "pipeline", "started_at", "completed_at", "status", "records", "error"}).
			AddRow("run-1", "game_stats", started, &completed, model.RunStatusFailed, 0, "upstream down"))

	runs, err := s.ListRuns(context.Background(), RunFilter{
		Pipeline: "game_stats",
		Status:   model.RunStatusFailed,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "upstream down", runs[0].Error)
	require.NotNil(t, runs[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
