// Package model defines the domain types shared across pipelines and stores.
package model

// StatLine holds the box-score counting stats tracked for every player.
// Depending on context the values are either single-game, single-day deltas,
// or season-to-date cumulative totals.
type StatLine struct {
	Min  int `json:"min"`
	Pts  int `json:"pts"`
	Reb  int `json:"reb"`
	Ast  int `json:"ast"`
	Stl  int `json:"stl"`
	Blk  int `json:"blk"`
	Tov  int `json:"tov"`
	Fgm  int `json:"fgm"`
	Fga  int `json:"fga"`
	Fg3m int `json:"fg3m"`
	Fg3a int `json:"fg3a"`
	Ftm  int `json:"ftm"`
	Fta  int `json:"fta"`
}

// Sub returns the component-wise difference s - o. Used to derive a daily
// delta from two cumulative season snapshots.
func (s StatLine) Sub(o StatLine) StatLine {
	return StatLine{
		Min:  s.Min - o.Min,
		Pts:  s.Pts - o.Pts,
		Reb:  s.Reb - o.Reb,
		Ast:  s.Ast - o.Ast,
		Stl:  s.Stl - o.Stl,
		Blk:  s.Blk - o.Blk,
		Tov:  s.Tov - o.Tov,
		Fgm:  s.Fgm - o.Fgm,
		Fga:  s.Fga - o.Fga,
		Fg3m: s.Fg3m - o.Fg3m,
		Fg3a: s.Fg3a - o.Fg3a,
		Ftm:  s.Ftm - o.Ftm,
		Fta:  s.Fta - o.Fta,
	}
}

// IsZero reports whether every counting stat is zero.
func (s StatLine) IsZero() bool {
	return s == StatLine{}
}
