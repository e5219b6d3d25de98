package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatLine_Sub(t *testing.T) {
	fresh := StatLine{Min: 1200, Pts: 825, Reb: 300, Ast: 210, Fgm: 319, Fga: 660}
	prior := StatLine{Min: 1165, Pts: 800, Reb: 292, Ast: 204, Fgm: 310, Fga: 640}

	delta := fresh.Sub(prior)
	assert.Equal(t, StatLine{Min: 35, Pts: 25, Reb: 8, Ast: 6, Fgm: 9, Fga: 20}, delta)
}

func TestStatLine_SubSelfIsZero(t *testing.T) {
	s := StatLine{Pts: 10, Reb: 4, Fga: 9}
	assert.True(t, s.Sub(s).IsZero())
	assert.False(t, s.IsZero())
}

func TestSeasonFor(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2025-11-15", "2025-26"},
		{"2026-02-01", "2025-26"},
		{"2026-07-31", "2025-26"},
		{"2026-08-01", "2026-27"},
		{"2025-01-05", "2024-25"},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, SeasonFor(d), "date %s", tt.date)
	}
}

func TestSeasonTotal_RankChange(t *testing.T) {
	assert.Equal(t, 3, SeasonTotal{CurrentRank: 5, PreviousRank: 8}.RankChange())
	assert.Equal(t, -2, SeasonTotal{CurrentRank: 10, PreviousRank: 8}.RankChange())
	// Never ranked before: no movement reported.
	assert.Equal(t, 0, SeasonTotal{CurrentRank: 12}.RankChange())
}
