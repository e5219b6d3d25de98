package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ScoringWeights holds the per-category point values used to convert a
// StatLine into fantasy points. Field goal and free throw efficiency are
// scored as (make_weight * makes + attempt_weight * attempts), which with the
// default weights reduces to the familiar (2*FGM - FGA) and (FTM - FTA).
type ScoringWeights struct {
	Pts        int `yaml:"pts"`
	Reb        int `yaml:"reb"`
	Ast        int `yaml:"ast"`
	Stl        int `yaml:"stl"`
	Blk        int `yaml:"blk"`
	Tov        int `yaml:"tov"`
	Fg3m       int `yaml:"fg3m"`
	FgmWeight  int `yaml:"fgm"`
	FgaWeight  int `yaml:"fga"`
	FtmWeight  int `yaml:"ftm"`
	FtaWeight  int `yaml:"fta"`
}

// DefaultScoring returns the league's standard scoring weights.
func DefaultScoring() ScoringWeights {
	return ScoringWeights{
		Pts:       1,
		Reb:       1,
		Ast:       2,
		Stl:       4,
		Blk:       4,
		Tov:       -2,
		Fg3m:      1,
		FgmWeight: 2,
		FgaWeight: -1,
		FtmWeight: 1,
		FtaWeight: -1,
	}
}

// LoadScoring reads custom scoring weights from a YAML file. Missing file is
// not an error: the defaults are returned so a bare deployment works.
func LoadScoring(path string) (ScoringWeights, error) {
	if path == "" {
		return DefaultScoring(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultScoring(), nil
		}
		return ScoringWeights{}, eris.Wrapf(err, "scoring: read %s", path)
	}

	w := DefaultScoring()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return ScoringWeights{}, eris.Wrapf(err, "scoring: parse %s", path)
	}
	return w, nil
}

// FantasyPoints applies the scoring formula to a stat line. The same formula
// is used for single-game lines and for daily deltas; callers computing a
// delta must apply it to the delta stat line itself, not difference two
// cumulative fantasy-point values.
func (w ScoringWeights) FantasyPoints(s StatLine) int {
	return w.Pts*s.Pts +
		w.Reb*s.Reb +
		w.Ast*s.Ast +
		w.Stl*s.Stl +
		w.Blk*s.Blk +
		w.Tov*s.Tov +
		w.Fg3m*s.Fg3m +
		w.FgmWeight*s.Fgm + w.FgaWeight*s.Fga +
		w.FtmWeight*s.Ftm + w.FtaWeight*s.Fta
}
