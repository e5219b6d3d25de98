package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hoopline/statline-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It targets local
// development and tests; production runs use PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS players (
	player_id  INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	fantasy_id INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS player_daily_stats (
	player_id     INTEGER NOT NULL,
	game_date     DATE NOT NULL,
	name          TEXT NOT NULL,
	team          TEXT NOT NULL DEFAULT '',
	fpts          INTEGER NOT NULL DEFAULT 0,
	min           INTEGER NOT NULL DEFAULT 0,
	pts           INTEGER NOT NULL DEFAULT 0,
	reb           INTEGER NOT NULL DEFAULT 0,
	ast           INTEGER NOT NULL DEFAULT 0,
	stl           INTEGER NOT NULL DEFAULT 0,
	blk           INTEGER NOT NULL DEFAULT 0,
	tov           INTEGER NOT NULL DEFAULT 0,
	fgm           INTEGER NOT NULL DEFAULT 0,
	fga           INTEGER NOT NULL DEFAULT 0,
	fg3m          INTEGER NOT NULL DEFAULT 0,
	fg3a          INTEGER NOT NULL DEFAULT 0,
	ftm           INTEGER NOT NULL DEFAULT 0,
	fta           INTEGER NOT NULL DEFAULT 0,
	ownership_pct REAL NOT NULL DEFAULT 0,
	run_id        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (player_id, game_date)
);

CREATE INDEX IF NOT EXISTS idx_daily_game_date ON player_daily_stats(game_date);

CREATE TABLE IF NOT EXISTS player_season_totals (
	player_id     INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	team          TEXT NOT NULL DEFAULT '',
	last_played   DATE,
	fpts          INTEGER NOT NULL DEFAULT 0,
	min           INTEGER NOT NULL DEFAULT 0,
	pts           INTEGER NOT NULL DEFAULT 0,
	reb           INTEGER NOT NULL DEFAULT 0,
	ast           INTEGER NOT NULL DEFAULT 0,
	stl           INTEGER NOT NULL DEFAULT 0,
	blk           INTEGER NOT NULL DEFAULT 0,
	tov           INTEGER NOT NULL DEFAULT 0,
	fgm           INTEGER NOT NULL DEFAULT 0,
	fga           INTEGER NOT NULL DEFAULT 0,
	fg3m          INTEGER NOT NULL DEFAULT 0,
	fg3a          INTEGER NOT NULL DEFAULT 0,
	ftm           INTEGER NOT NULL DEFAULT 0,
	fta           INTEGER NOT NULL DEFAULT 0,
	gp            INTEGER NOT NULL DEFAULT 0,
	ownership_pct REAL NOT NULL DEFAULT 0,
	c_rank        INTEGER NOT NULL DEFAULT 0,
	p_rank        INTEGER NOT NULL DEFAULT 0,
	run_id        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS player_ownership (
	snapshot_date DATE NOT NULL,
	fantasy_id    INTEGER NOT NULL,
	name          TEXT NOT NULL,
	team          TEXT NOT NULL DEFAULT '',
	ownership_pct REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (snapshot_date, fantasy_id)
);

CREATE TABLE IF NOT EXISTS player_advanced_stats (
	player_id  INTEGER NOT NULL,
	as_of_date DATE NOT NULL,
	name       TEXT NOT NULL,
	team       TEXT NOT NULL DEFAULT '',
	gp         INTEGER NOT NULL DEFAULT 0,
	off_rating REAL NOT NULL DEFAULT 0,
	def_rating REAL NOT NULL DEFAULT 0,
	net_rating REAL NOT NULL DEFAULT 0,
	ts_pct     REAL NOT NULL DEFAULT 0,
	usg_pct    REAL NOT NULL DEFAULT 0,
	reb_pct    REAL NOT NULL DEFAULT 0,
	ast_pct    REAL NOT NULL DEFAULT 0,
	pace       REAL NOT NULL DEFAULT 0,
	pie        REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, as_of_date)
);

CREATE TABLE IF NOT EXISTS games (
	game_id   TEXT PRIMARY KEY,
	game_date DATE NOT NULL,
	home_team TEXT NOT NULL,
	away_team TEXT NOT NULL,
	tip_off   DATETIME NOT NULL,
	status    TEXT NOT NULL DEFAULT '',
	run_id    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_games_date ON games(game_date);

CREATE TABLE IF NOT EXISTS saved_teams (
	team_id   TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL,
	league_id INTEGER NOT NULL,
	team_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lineup_alerts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	team_id     TEXT NOT NULL,
	game_date   DATE NOT NULL,
	player_name TEXT NOT NULL DEFAULT '',
	slot        TEXT NOT NULL,
	reason      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_alerts_team_date ON lineup_alerts(team_id, game_date);

CREATE TABLE IF NOT EXISTS daily_matchup_scores (
	team_id        TEXT NOT NULL,
	team_name      TEXT NOT NULL DEFAULT '',
	matchup_period INTEGER NOT NULL,
	opponent_name  TEXT NOT NULL DEFAULT '',
	score_date     DATE NOT NULL,
	day_of_matchup INTEGER NOT NULL DEFAULT 0,
	score          REAL NOT NULL DEFAULT 0,
	opponent_score REAL NOT NULL DEFAULT 0,
	run_id         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (team_id, matchup_period, score_date)
);

CREATE TABLE IF NOT EXISTS player_profiles (
	player_id  INTEGER PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	birthdate  TEXT NOT NULL DEFAULT '',
	height     TEXT NOT NULL DEFAULT '',
	weight     INTEGER NOT NULL DEFAULT 0,
	position   TEXT NOT NULL DEFAULT '',
	team       TEXT NOT NULL DEFAULT '',
	draft_year INTEGER NOT NULL DEFAULT 0,
	country    TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id           TEXT PRIMARY KEY,
	pipeline     TEXT NOT NULL,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	status       TEXT NOT NULL DEFAULT 'running',
	records      INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON pipeline_runs(pipeline, started_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dateKey normalizes date-keyed columns so equality comparisons work
// regardless of how the caller's time.Time was built.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *SQLiteStore) UpsertPlayers(ctx context.Context, players []model.Player) (int64, error) {
	if len(players) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert players begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (player_id, name, fantasy_id, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (player_id) DO UPDATE SET
				name = excluded.name,
				fantasy_id = CASE WHEN excluded.fantasy_id = 0 THEN players.fantasy_id ELSE excluded.fantasy_id END,
				updated_at = excluded.updated_at`,
			p.ID, p.Name, p.FantasyID, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert player %d", p.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert players commit")
	}
	return int64(len(players)), nil
}

func (s *SQLiteStore) UpsertDailyStats(ctx context.Context, dailies []model.PlayerDaily) (int64, error) {
	if len(dailies) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert daily begin")
	}
	defer tx.Rollback()

	stmt := `INSERT INTO player_daily_stats
	 (player_id, game_date, name, team, fpts,
	  min, pts, reb, ast, stl, blk, tov, fgm, fga, fg3m, fg3a, ftm, fta,
	  ownership_pct, run_id)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	 ON CONFLICT (player_id, game_date) DO UPDATE SET
	   name = excluded.name, team = excluded.team, fpts = excluded.fpts,
	   min = excluded.min, pts = excluded.pts, reb = excluded.reb,
	   ast = excluded.ast, stl = excluded.stl, blk = excluded.blk,
	   tov = excluded.tov, fgm = excluded.fgm, fga = excluded.fga,
	   fg3m = excluded.fg3m, fg3a = excluded.fg3a, ftm = excluded.ftm,
	   fta = excluded.fta, ownership_pct = excluded.ownership_pct,
	   run_id = excluded.run_id`
	for _, d := range dailies {
		st := d.Stats
		if _, err := tx.ExecContext(ctx, stmt,
			d.PlayerID, dateKey(d.GameDate), d.Name, d.Team, d.FantasyPoints,
			st.Min, st.Pts, st.Reb, st.Ast, st.Stl, st.Blk, st.Tov,
			st.Fgm, st.Fga, st.Fg3m, st.Fg3a, st.Ftm, st.Fta,
			d.OwnershipPct, d.RunID,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert daily for %d", d.PlayerID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert daily commit")
	}
	return int64(len(dailies)), nil
}

func (s *SQLiteStore) SeasonTotals(ctx context.Context) ([]model.SeasonTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, name, team, COALESCE(last_played, ''), fpts,
		        min, pts, reb, ast, stl, blk, tov, fgm, fga, fg3m, fg3a, ftm, fta,
		        gp, ownership_pct, c_rank, p_rank, run_id
		 FROM player_season_totals`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: season totals")
	}
	defer rows.Close()

	var totals []model.SeasonTotal
	for rows.Next() {
		var t model.SeasonTotal
		var lastPlayed string
		st := &t.Stats
		if err := rows.Scan(
			&t.PlayerID, &t.Name, &t.Team, &lastPlayed, &t.FantasyPoints,
			&st.Min, &st.Pts, &st.Reb, &st.Ast, &st.Stl, &st.Blk, &st.Tov,
			&st.Fgm, &st.Fga, &st.Fg3m, &st.Fg3a, &st.Ftm, &st.Fta,
			&t.GamesPlayed, &t.OwnershipPct, &t.CurrentRank, &t.PreviousRank, &t.RunID,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan season total")
		}
		if lastPlayed != "" {
			if d, err := time.Parse("2006-01-02", lastPlayed); err == nil {
				t.LastPlayed = d
			}
		}
		totals = append(totals, t)
	}
	return totals, eris.Wrap(rows.Err(), "sqlite: season totals iterate")
}

func (s *SQLiteStore) ReplaceSeasonTotals(ctx context.Context, totals []model.SeasonTotal) (int64, error) {
	if len(totals) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: replace totals begin")
	}
	defer tx.Rollback()

	// Rank columns are left alone; UpdatePrevRanks and ReassignRanks own them.
	stmt := `INSERT INTO player_season_totals
	 (player_id, name, team, last_played, fpts,
	  min, pts, reb, ast, stl, blk, tov, fgm, fga, fg3m, fg3a, ftm, fta,
	  gp, ownership_pct, run_id)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	 ON CONFLICT (player_id) DO UPDATE SET
	   name = excluded.name, team = excluded.team, last_played = excluded.last_played,
	   fpts = excluded.fpts, min = excluded.min, pts = excluded.pts,
	   reb = excluded.reb, ast = excluded.ast, stl = excluded.stl,
	   blk = excluded.blk, tov = excluded.tov, fgm = excluded.fgm,
	   fga = excluded.fga, fg3m = excluded.fg3m, fg3a = excluded.fg3a,
	   ftm = excluded.ftm, fta = excluded.fta, gp = excluded.gp,
	   ownership_pct = excluded.ownership_pct, run_id = excluded.run_id`
	for _, t := range totals {
		st := t.Stats
		if _, err := tx.ExecContext(ctx, stmt,
			t.PlayerID, t.Name, t.Team, dateKey(t.LastPlayed), t.FantasyPoints,
			st.Min, st.Pts, st.Reb, st.Ast, st.Stl, st.Blk, st.Tov,
			st.Fgm, st.Fga, st.Fg3m, st.Fg3a, st.Ftm, st.Fta,
			t.GamesPlayed, t.OwnershipPct, t.RunID,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: replace total for %d", t.PlayerID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: replace totals commit")
	}
	return int64(len(totals)), nil
}

func (s *SQLiteStore) UpdatePrevRanks(ctx context.Context, playerIDs []int64) error {
	if len(playerIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(playerIDs)), ",")
	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE player_season_totals SET p_rank = c_rank WHERE player_id IN (%s)`, placeholders),
		args...,
	)
	return eris.Wrap(err, "sqlite: update previous ranks")
}

func (s *SQLiteStore) ReassignRanks(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE player_season_totals SET c_rank = (
			SELECT rn FROM (
				SELECT player_id, ROW_NUMBER() OVER (ORDER BY fpts DESC, player_id ASC) AS rn
				FROM player_season_totals
			) ranked WHERE ranked.player_id = player_season_totals.player_id
		)`,
	)
	return eris.Wrap(err, "sqlite: reassign ranks")
}

func (s *SQLiteStore) RecordOwnership(ctx context.Context, date time.Time, players []model.FantasyPlayer) (int64, error) {
	if len(players) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: record ownership begin")
	}
	defer tx.Rollback()

	for _, p := range players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_ownership (snapshot_date, fantasy_id, name, team, ownership_pct)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (snapshot_date, fantasy_id) DO UPDATE SET
			   name = excluded.name, team = excluded.team, ownership_pct = excluded.ownership_pct`,
			dateKey(date), p.FantasyID, p.Name, p.Team, p.OwnershipPct,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: record ownership for %d", p.FantasyID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: record ownership commit")
	}
	return int64(len(players)), nil
}

func (s *SQLiteStore) UpsertAdvancedStats(ctx context.Context, asOf time.Time, lines []model.AdvancedLine) (int64, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert advanced begin")
	}
	defer tx.Rollback()

	for _, l := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_advanced_stats
			 (player_id, as_of_date, name, team, gp,
			  off_rating, def_rating, net_rating, ts_pct, usg_pct, reb_pct, ast_pct, pace, pie)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (player_id, as_of_date) DO UPDATE SET
			   name = excluded.name, team = excluded.team, gp = excluded.gp,
			   off_rating = excluded.off_rating, def_rating = excluded.def_rating,
			   net_rating = excluded.net_rating, ts_pct = excluded.ts_pct,
			   usg_pct = excluded.usg_pct, reb_pct = excluded.reb_pct,
			   ast_pct = excluded.ast_pct, pace = excluded.pace, pie = excluded.pie`,
			l.PlayerID, dateKey(asOf), l.Name, l.Team, l.GamesPlayed,
			l.OffRating, l.DefRating, l.NetRating,
			l.TsPct, l.UsgPct, l.RebPct, l.AstPct, l.Pace, l.Pie,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert advanced for %d", l.PlayerID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert advanced commit")
	}
	return int64(len(lines)), nil
}

func (s *SQLiteStore) UpsertGames(ctx context.Context, games []model.Game) (int64, error) {
	if len(games) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert games begin")
	}
	defer tx.Rollback()

	for _, g := range games {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO games (game_id, game_date, home_team, away_team, tip_off, status, run_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (game_id) DO UPDATE SET
			   game_date = excluded.game_date, home_team = excluded.home_team,
			   away_team = excluded.away_team, tip_off = excluded.tip_off,
			   status = excluded.status, run_id = excluded.run_id`,
			g.GameID, dateKey(g.GameDate), g.HomeTeam, g.AwayTeam,
			g.TipOff.UTC().Format(time.RFC3339), g.Status, g.RunID,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert game %s", g.GameID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert games commit")
	}
	return int64(len(games)), nil
}

func (s *SQLiteStore) EarliestTipOff(ctx context.Context, date time.Time) (*time.Time, error) {
	var tipOff sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(tip_off) FROM games WHERE game_date = ?`,
		dateKey(date),
	).Scan(&tipOff)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: earliest tip-off")
	}
	if !tipOff.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, tipOff.String)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: parse tip-off")
	}
	return &t, nil
}

func (s *SQLiteStore) SavedTeams(ctx context.Context) ([]model.SavedTeam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team_id, user_id, league_id, team_name FROM saved_teams ORDER BY team_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: saved teams")
	}
	defer rows.Close()

	var teams []model.SavedTeam
	for rows.Next() {
		var t model.SavedTeam
		if err := rows.Scan(&t.TeamID, &t.UserID, &t.LeagueID, &t.TeamName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan saved team")
		}
		teams = append(teams, t)
	}
	return teams, eris.Wrap(rows.Err(), "sqlite: saved teams iterate")
}

// SaveTeam registers a fantasy team for lineup alerts.
func (s *SQLiteStore) SaveTeam(ctx context.Context, team model.SavedTeam) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_teams (team_id, user_id, league_id, team_name) VALUES (?, ?, ?, ?)
		 ON CONFLICT (team_id) DO UPDATE SET
		   user_id = excluded.user_id, league_id = excluded.league_id, team_name = excluded.team_name`,
		team.TeamID, team.UserID, team.LeagueID, team.TeamName,
	)
	return eris.Wrapf(err, "sqlite: save team %s", team.TeamID)
}

func (s *SQLiteStore) AlreadyNotified(ctx context.Context, teamID string, date time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lineup_alerts WHERE team_id = ? AND game_date = ?)`,
		teamID, dateKey(date),
	).Scan(&exists)
	return exists, eris.Wrap(err, "sqlite: check notified")
}

func (s *SQLiteStore) RecordAlerts(ctx context.Context, alerts []model.LineupAlert) (int64, error) {
	if len(alerts) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: record alerts begin")
	}
	defer tx.Rollback()

	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lineup_alerts (team_id, game_date, player_name, slot, reason, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.TeamID, dateKey(a.GameDate), a.PlayerName, a.Slot, a.Reason, a.CreatedAt.UTC(),
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: record alert for %s", a.TeamID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: record alerts commit")
	}
	return int64(len(alerts)), nil
}

// UpsertMatchupScore records a team's daily matchup snapshot, replacing the
// scores when the same day is recorded twice.
func (s *SQLiteStore) UpsertMatchupScore(ctx context.Context, ms model.MatchupScore) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_matchup_scores
		 (team_id, team_name, matchup_period, opponent_name, score_date, day_of_matchup, score, opponent_score, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (team_id, matchup_period, score_date) DO UPDATE SET
		   team_name = excluded.team_name, opponent_name = excluded.opponent_name,
		   day_of_matchup = excluded.day_of_matchup, score = excluded.score,
		   opponent_score = excluded.opponent_score, run_id = excluded.run_id`,
		ms.TeamID, ms.TeamName, ms.MatchupPeriod, ms.OpponentName, dateKey(ms.Date),
		ms.DayOfMatchup, ms.Score, ms.OpponentScore, ms.RunID,
	)
	return eris.Wrapf(err, "sqlite: upsert matchup score for %s", ms.TeamID)
}

func (s *SQLiteStore) UpsertPlayerInfo(ctx context.Context, info *model.PlayerInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_profiles
		 (player_id, first_name, last_name, birthdate, height, weight, position, team, draft_year, country, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (player_id) DO UPDATE SET
		   first_name = excluded.first_name, last_name = excluded.last_name,
		   birthdate = excluded.birthdate, height = excluded.height,
		   weight = excluded.weight, position = excluded.position,
		   team = excluded.team, draft_year = excluded.draft_year,
		   country = excluded.country, updated_at = excluded.updated_at`,
		info.PlayerID, info.FirstName, info.LastName, info.Birthdate,
		info.Height, info.Weight, info.Position, info.Team,
		info.DraftYear, info.Country, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert profile %d", info.PlayerID)
}

func (s *SQLiteStore) PlayerIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id FROM players ORDER BY player_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: player ids")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan player id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: player ids iterate")
}

func (s *SQLiteStore) StartRun(ctx context.Context, runID, pipeline string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, pipeline, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, pipeline, string(model.RunStatusRunning), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: start run %s", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, records int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, records = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusSuccess), records, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT id, pipeline, started_at, completed_at, status, records, COALESCE(error, '')
	          FROM pipeline_runs WHERE 1=1`
	var args []any

	if filter.Pipeline != "" {
		query += ` AND pipeline = ?`
		args = append(args, filter.Pipeline)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.Pipeline, &r.StartedAt, &completed, &r.Status, &r.Records, &r.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) LastSuccess(ctx context.Context, pipeline string) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM pipeline_runs
		 WHERE pipeline = ? AND status = 'success'
		 ORDER BY started_at DESC LIMIT 1`,
		pipeline,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: last success for %s", pipeline)
	}
	return &t, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
