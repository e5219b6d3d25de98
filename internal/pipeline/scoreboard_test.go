package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopline/statline-cli/internal/model"
)

func TestScoreboard_UpsertsGames(t *testing.T) {
	st := newFakeStore()
	stats := &fakeStatsClient{
		games: []model.Game{
			{GameID: "0022600551", HomeTeam: "LAL", AwayTeam: "MEM", TipOff: time.Date(2026, 1, 15, 19, 30, 0, 0, time.UTC), Status: "7:30 pm ET"},
			{GameID: "0022600552", HomeTeam: "BOS", AwayTeam: "MIA", TipOff: time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC), Status: "8:00 pm ET"},
		},
	}
	p := NewScoreboard(stats, st)
	p.now = fixedNow(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))

	run := NewContext("scoreboard", st)
	require.NoError(t, p.Execute(context.Background(), run))

	require.Len(t, st.games, 2)
	today := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, g := range st.games {
		assert.Equal(t, today, g.GameDate, "zero game dates get filled with today")
		assert.Equal(t, run.RunID, g.RunID)
	}
	assert.Equal(t, 2, run.Records)
}

func TestScoreboard_OffDayIsClean(t *testing.T) {
	st := newFakeStore()
	p := NewScoreboard(&fakeStatsClient{}, st)
	p.now = fixedNow(time.Date(2026, 7, 10, 10, 0, 0, 0, time.UTC))

	run := NewContext("scoreboard", st)
	assert.NoError(t, p.Execute(context.Background(), run))
	assert.Empty(t, st.games)
	assert.Zero(t, run.Records)
}
