package model

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MatchupPeriod is one head-to-head scoring period in the fantasy league's
// schedule. Start and End are inclusive calendar dates.
type MatchupPeriod struct {
	Number int       `yaml:"number"`
	Start  time.Time `yaml:"start"`
	End    time.Time `yaml:"end"`
}

// MatchupSchedule is the league's full list of matchup periods. The zero
// value has no periods; Current then never matches.
type MatchupSchedule struct {
	Periods []MatchupPeriod `yaml:"periods"`
}

// LoadMatchupSchedule reads the matchup schedule from a YAML file. An empty
// path or missing file yields an empty schedule.
func LoadMatchupSchedule(path string) (MatchupSchedule, error) {
	if path == "" {
		return MatchupSchedule{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MatchupSchedule{}, nil
		}
		return MatchupSchedule{}, eris.Wrapf(err, "matchup: read %s", path)
	}

	var s MatchupSchedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return MatchupSchedule{}, eris.Wrapf(err, "matchup: parse %s", path)
	}
	return s, nil
}

// Current returns the period containing the given date and the zero-based
// day index within it. ok is false when no period covers the date.
func (s MatchupSchedule) Current(date time.Time) (period MatchupPeriod, dayIndex int, ok bool) {
	day := date.UTC().Truncate(24 * time.Hour)
	for _, p := range s.Periods {
		start := p.Start.UTC().Truncate(24 * time.Hour)
		end := p.End.UTC().Truncate(24 * time.Hour)
		if day.Before(start) || day.After(end) {
			continue
		}
		return p, int(day.Sub(start).Hours() / 24), true
	}
	return MatchupPeriod{}, 0, false
}

// LiveMatchup is one side's view of a head-to-head matchup in progress, as
// reported by the fantasy platform.
type LiveMatchup struct {
	TeamName      string  `json:"team_name"`
	OpponentName  string  `json:"opponent_name"`
	Score         float64 `json:"score"`
	OpponentScore float64 `json:"opponent_score"`
}

// MatchupScore is a daily snapshot of a saved team's head-to-head score,
// keyed (team_id, matchup_period, date). Re-running on the same day
// overwrites the scores rather than adding a row.
type MatchupScore struct {
	TeamID        string    `json:"team_id"`
	TeamName      string    `json:"team_name"`
	OpponentName  string    `json:"opponent_name"`
	MatchupPeriod int       `json:"matchup_period"`
	Date          time.Time `json:"date"`
	DayOfMatchup  int       `json:"day_of_matchup"`
	Score         float64   `json:"score"`
	OpponentScore float64   `json:"opponent_score"`
	RunID         string    `json:"run_id"`
}
