package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

// MatchupScores snapshots each saved team's live head-to-head score once a
// day. The snapshots are keyed (team, period, date) so score-trend views can
// chart a matchup day by day.
type MatchupScores struct {
	fantasy  extract.FantasyClient
	st       store.Store
	schedule model.MatchupSchedule

	now func() time.Time
}

// NewMatchupScores creates the matchup scores pipeline.
func NewMatchupScores(fantasy extract.FantasyClient, st store.Store, schedule model.MatchupSchedule) *MatchupScores {
	return &MatchupScores{fantasy: fantasy, st: st, schedule: schedule, now: time.Now}
}

func (p *MatchupScores) Config() Config {
	return Config{
		Name:        "matchup_scores",
		DisplayName: "Matchup Scores",
		Description: "Daily score snapshots for saved teams' head-to-head matchups",
		TargetTable: "daily_matchup_scores",
		Cadence:     Daily,
	}
}

func (p *MatchupScores) Execute(ctx context.Context, run *Context) error {
	log := zap.L().With(zap.String("pipeline", "matchup_scores"))
	today := p.now().UTC().Truncate(24 * time.Hour)

	period, dayIndex, ok := p.schedule.Current(today)
	if !ok {
		log.Info("no active matchup period", zap.Time("date", today))
		return nil
	}
	log.Info("matchup period",
		zap.Int("period", period.Number),
		zap.Int("day_index", dayIndex),
	)

	teams, err := p.st.SavedTeams(ctx)
	if err != nil {
		return eris.Wrap(err, "matchup_scores: list saved teams")
	}

	// One bad team never fails the run; the rest still get their snapshot.
	for _, team := range teams {
		live, err := p.fantasy.GetMatchupScore(ctx,
			strconv.FormatInt(team.LeagueID, 10), team.TeamName, period.Number)
		if err != nil {
			log.Warn("skipping team",
				zap.String("team", team.TeamName),
				zap.Error(err),
			)
			continue
		}

		score := model.MatchupScore{
			TeamID:        team.TeamID,
			TeamName:      live.TeamName,
			OpponentName:  live.OpponentName,
			MatchupPeriod: period.Number,
			Date:          today,
			DayOfMatchup:  dayIndex,
			Score:         live.Score,
			OpponentScore: live.OpponentScore,
			RunID:         run.RunID,
		}
		if err := p.st.UpsertMatchupScore(ctx, score); err != nil {
			log.Warn("failed to record snapshot",
				zap.String("team", team.TeamName),
				zap.Error(err),
			)
			continue
		}
		run.IncrementRecords(1)
	}

	return nil
}
