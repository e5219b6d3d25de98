package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hoopline/statline-cli/internal/db"
	"github.com/hoopline/statline-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"start_run":        `INSERT INTO stats.pipeline_runs (id, pipeline, status, started_at) VALUES ($1, $2, $3, $4)`,
	"complete_run":     `UPDATE stats.pipeline_runs SET status = $1, records = $2, completed_at = $3 WHERE id = $4`,
	"fail_run":         `UPDATE stats.pipeline_runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
	"last_success":     `SELECT started_at FROM stats.pipeline_runs WHERE pipeline = $1 AND status = 'success' ORDER BY started_at DESC LIMIT 1`,
	"earliest_tip_off": `SELECT MIN(tip_off) FROM stats.games WHERE game_date = $1`,
	"already_notified": `SELECT EXISTS (SELECT 1 FROM stats.lineup_alerts WHERE team_id = $1 AND game_date = $2)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Pool sizing, falling back to defaults when unset.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g. the rankings export).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Column lists shared by the bulk upsert paths. Order must match the row
// builders below.

var playerColumns = []string{"player_id", "name", "fantasy_id", "updated_at"}

var dailyColumns = []string{
	"player_id", "game_date", "name", "team", "fpts",
	"min", "pts", "reb", "ast", "stl", "blk", "tov",
	"fgm", "fga", "fg3m", "fg3a", "ftm", "fta",
	"ownership_pct", "run_id",
}

// Rank columns are deliberately absent: they belong to UpdatePrevRanks and
// ReassignRanks, and a wholesale replace must not clobber them.
var seasonColumns = []string{
	"player_id", "name", "team", "last_played", "fpts",
	"min", "pts", "reb", "ast", "stl", "blk", "tov",
	"fgm", "fga", "fg3m", "fg3a", "ftm", "fta",
	"gp", "ownership_pct", "run_id",
}

var ownershipColumns = []string{"snapshot_date", "fantasy_id", "name", "team", "ownership_pct"}

var advancedColumns = []string{
	"player_id", "as_of_date", "name", "team", "gp",
	"off_rating", "def_rating", "net_rating",
	"ts_pct", "usg_pct", "reb_pct", "ast_pct", "pace", "pie",
}

var gameColumns = []string{"game_id", "game_date", "home_team", "away_team", "tip_off", "status", "run_id"}

var alertColumns = []string{"team_id", "game_date", "player_name", "slot", "reason", "created_at"}

var profileColumns = []string{
	"player_id", "first_name", "last_name", "birthdate",
	"height", "weight", "position", "team", "draft_year", "country", "updated_at",
}

func statValues(st model.StatLine) []any {
	return []any{
		st.Min, st.Pts, st.Reb, st.Ast, st.Stl, st.Blk, st.Tov,
		st.Fgm, st.Fga, st.Fg3m, st.Fg3a, st.Ftm, st.Fta,
	}
}

func (s *PostgresStore) UpsertPlayers(ctx context.Context, players []model.Player) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(players))
	for _, p := range players {
		rows = append(rows, []any{p.ID, p.Name, p.FantasyID, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "stats.players",
		Columns:      playerColumns,
		ConflictKeys: []string{"player_id"},
		// A zero fantasy id means the fantasy feed had no match this
		// run; keep whatever id an earlier run resolved.
		UpdateExprs: map[string]string{
			"fantasy_id": "CASE WHEN EXCLUDED.fantasy_id = 0 THEN players.fantasy_id ELSE EXCLUDED.fantasy_id END",
		},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert players")
}

func (s *PostgresStore) UpsertDailyStats(ctx context.Context, dailies []model.PlayerDaily) (int64, error) {
	rows := make([][]any, 0, len(dailies))
	for _, d := range dailies {
		row := []any{d.PlayerID, d.GameDate, d.Name, d.Team, d.FantasyPoints}
		row = append(row, statValues(d.Stats)...)
		row = append(row, d.OwnershipPct, d.RunID)
		rows = append(rows, row)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "stats.player_daily_stats",
		Columns:      dailyColumns,
		ConflictKeys: []string{"player_id", "game_date"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert daily stats")
}

func (s *PostgresStore) SeasonTotals(ctx context.Context) ([]model.SeasonTotal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT player_id, name, team, last_played, fpts,
		        min, pts, reb, ast, stl, blk, tov,
		        fgm, fga, fg3m, fg3a, ftm, fta,
		        gp, ownership_pct, c_rank, p_rank, run_id
		 FROM stats.player_season_totals`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: season totals")
	}
	defer rows.Close()

	var totals []model.SeasonTotal
	for rows.Next() {
		var t model.SeasonTotal
		st := &t.Stats
		if err := rows.Scan(
			&t.PlayerID, &t.Name, &t.Team, &t.LastPlayed, &t.FantasyPoints,
			&st.Min, &st.Pts, &st.Reb, &st.Ast, &st.Stl, &st.Blk, &st.Tov,
			&st.Fgm, &st.Fga, &st.Fg3m, &st.Fg3a, &st.Ftm, &st.Fta,
			&t.GamesPlayed, &t.OwnershipPct, &t.CurrentRank, &t.PreviousRank, &t.RunID,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan season total")
		}
		totals = append(totals, t)
	}
	return totals, eris.Wrap(rows.Err(), "postgres: season totals iterate")
}

func (s *PostgresStore) ReplaceSeasonTotals(ctx context.Context, totals []model.SeasonTotal) (int64, error) {
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		row := []any{t.PlayerID, t.Name, t.Team, t.LastPlayed, t.FantasyPoints}
		row = append(row, statValues(t.Stats)...)
		row = append(row, t.GamesPlayed, t.OwnershipPct, t.RunID)
		rows = append(rows, row)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "stats.player_season_totals",
		Columns:      seasonColumns,
		ConflictKeys: []string{"player_id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: replace season totals")
}

func (s *PostgresStore) UpdatePrevRanks(ctx context.Context, playerIDs []int64) error {
	if len(playerIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE stats.player_season_totals SET p_rank = c_rank WHERE player_id = ANY($1)`,
		playerIDs,
	)
	return eris.Wrap(err, "postgres: update previous ranks")
}

func (s *PostgresStore) ReassignRanks(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE stats.player_season_totals t
		 SET c_rank = r.rn
		 FROM (SELECT player_id,
		              ROW_NUMBER() OVER (ORDER BY fpts DESC, player_id ASC) AS rn
		       FROM stats.player_season_totals) r
		 WHERE r.player_id = t.player_id`,
	)
	return eris.Wrap(err, "postgres: reassign ranks")
}

func (s *PostgresStore) RecordOwnership(ctx context.Context, date time.Time, players []model.FantasyPlayer) (int64, error) {
	rows := make([][]any, 0, len(players))
	for _, p := range players {
		rows = append(rows, []any{date, p.FantasyID, p.Name, p.Team, p.OwnershipPct})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "stats.player_ownership",
		Columns:      ownershipColumns,
		ConflictKeys: []string{"snapshot_date", "fantasy_id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: record ownership")
}

func (s *PostgresStore) UpsertAdvancedStats(ctx context.Context, asOf time.Time, lines []model.AdvancedLine) (int64, error) {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{
			l.PlayerID, asOf, l.Name, l.Team, l.GamesPlayed,
			l.OffRating, l.DefRating, l.NetRating,
			l.TsPct, l.UsgPct, l.RebPct, l.AstPct, l.Pace, l.Pie,
		})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "stats.player_advanced_stats",
		Columns:      advancedColumns,
		ConflictKeys: []string{"player_id", "as_of_date"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert advanced stats")
}

func (s *PostgresStore) UpsertGames(ctx context.Context, games []model.Game) (int64, error) {
	rows := make([][]any, 0, len(games))
	for _, g := range games {
		rows = append(rows, []any{g.GameID, g.GameDate, g.HomeTeam, g.AwayTeam, g.TipOff, g.Status, g.RunID})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "stats.games",
		Columns:      gameColumns,
		ConflictKeys: []string{"game_id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert games")
}

func (s *PostgresStore) EarliestTipOff(ctx context.Context, date time.Time) (*time.Time, error) {
	var tipOff *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MIN(tip_off) FROM stats.games WHERE game_date = $1`,
		date,
	).Scan(&tipOff)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: earliest tip-off")
	}
	return tipOff, nil
}

// SaveTeam registers a fantasy team for lineup alerts.
func (s *PostgresStore) SaveTeam(ctx context.Context, team model.SavedTeam) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stats.saved_teams (team_id, user_id, league_id, team_name) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (team_id) DO UPDATE SET
		   user_id = $2, league_id = $3, team_name = $4`,
		team.TeamID, team.UserID, team.LeagueID, team.TeamName,
	)
	return eris.Wrapf(err, "postgres: save team %s", team.TeamID)
}

func (s *PostgresStore) SavedTeams(ctx context.Context) ([]model.SavedTeam, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT team_id, user_id, league_id, team_name FROM stats.saved_teams ORDER BY team_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: saved teams")
	}
	defer rows.Close()

	var teams []model.SavedTeam
	for rows.Next() {
		var t model.SavedTeam
		if err := rows.Scan(&t.TeamID, &t.UserID, &t.LeagueID, &t.TeamName); err != nil {
			return nil, eris.Wrap(err, "postgres: scan saved team")
		}
		teams = append(teams, t)
	}
	return teams, eris.Wrap(rows.Err(), "postgres: saved teams iterate")
}

func (s *PostgresStore) AlreadyNotified(ctx context.Context, teamID string, date time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stats.lineup_alerts WHERE team_id = $1 AND game_date = $2)`,
		teamID, date,
	).Scan(&exists)
	return exists, eris.Wrap(err, "postgres: check notified")
}

func (s *PostgresStore) RecordAlerts(ctx context.Context, alerts []model.LineupAlert) (int64, error) {
	rows := make([][]any, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []any{a.TeamID, a.GameDate, a.PlayerName, a.Slot, a.Reason, a.CreatedAt})
	}
	n, err := db.CopyFromSchema(ctx, s.pool, "stats", "lineup_alerts", alertColumns, rows)
	return n, eris.Wrap(err, "postgres: record alerts")
}

// UpsertMatchupScore records a team's daily matchup snapshot, replacing the
// scores when the same day is recorded twice.
func (s *PostgresStore) UpsertMatchupScore(ctx context.Context, ms model.MatchupScore) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stats.daily_matchup_scores
		 (team_id, team_name, matchup_period, opponent_name, score_date, day_of_matchup, score, opponent_score, run_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (team_id, matchup_period, score_date) DO UPDATE SET
		   team_name = $2, opponent_name = $4, day_of_matchup = $6,
		   score = $7, opponent_score = $8, run_id = $9`,
		ms.TeamID, ms.TeamName, ms.MatchupPeriod, ms.OpponentName, ms.Date,
		ms.DayOfMatchup, ms.Score, ms.OpponentScore, ms.RunID,
	)
	return eris.Wrapf(err, "postgres: upsert matchup score for %s", ms.TeamID)
}

func (s *PostgresStore) UpsertPlayerInfo(ctx context.Context, info *model.PlayerInfo) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stats.player_profiles
		 (player_id, first_name, last_name, birthdate, height, weight, position, team, draft_year, country, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (player_id) DO UPDATE SET
		   first_name = $2, last_name = $3, birthdate = $4, height = $5,
		   weight = $6, position = $7, team = $8, draft_year = $9,
		   country = $10, updated_at = $11`,
		info.PlayerID, info.FirstName, info.LastName, info.Birthdate,
		info.Height, info.Weight, info.Position, info.Team,
		info.DraftYear, info.Country, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert profile %d", info.PlayerID)
}

func (s *PostgresStore) PlayerIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT player_id FROM stats.players ORDER BY player_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: player ids")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan player id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: player ids iterate")
}

func (s *PostgresStore) StartRun(ctx context.Context, runID, pipeline string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stats.pipeline_runs (id, pipeline, status, started_at) VALUES ($1, $2, $3, $4)`,
		runID, pipeline, string(model.RunStatusRunning), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: start run %s", runID)
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, records int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE stats.pipeline_runs SET status = $1, records = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusSuccess), records, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE stats.pipeline_runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT id, pipeline, started_at, completed_at, status, records, COALESCE(error, '')
	          FROM stats.pipeline_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Pipeline != "" {
		query += fmt.Sprintf(` AND pipeline = $%d`, argIdx)
		args = append(args, filter.Pipeline)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		if err := rows.Scan(&r.ID, &r.Pipeline, &r.StartedAt, &r.CompletedAt, &r.Status, &r.Records, &r.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) LastSuccess(ctx context.Context, pipeline string) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT started_at FROM stats.pipeline_runs
		 WHERE pipeline = $1 AND status = 'success'
		 ORDER BY started_at DESC LIMIT 1`,
		pipeline,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: last success for %s", pipeline)
	}
	return &t, nil
}
