package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopline/statline-cli/internal/model"
)

func profileStore(ids ...int64) *fakeStore {
	st := newFakeStore()
	for _, id := range ids {
		st.players[id] = model.Player{ID: id}
	}
	return st
}

func TestPlayerProfiles_RefreshesAllPlayers(t *testing.T) {
	st := profileStore(201, 202, 203)
	stats := &fakeStatsClient{info: map[int64]*model.PlayerInfo{
		201: {PlayerID: 201, FirstName: "Luka", LastName: "Doncic", Position: "Guard"},
	}}
	p := NewPlayerProfiles(stats, st, time.Millisecond, 0)

	run := NewContext("player_profiles", st)
	require.NoError(t, p.Execute(context.Background(), run))

	assert.Len(t, st.profiles, 3)
	assert.Equal(t, "Luka", st.profiles[201].FirstName)
	assert.Equal(t, 3, run.Records)
}

func TestPlayerProfiles_SkipsBadPlayer(t *testing.T) {
	st := profileStore(201, 202)
	stats := &fakeStatsClient{
		infoErr: map[int64]error{201: eris.New("player not found")},
	}
	p := NewPlayerProfiles(stats, st, time.Millisecond, 0)

	run := NewContext("player_profiles", st)
	require.NoError(t, p.Execute(context.Background(), run))

	assert.NotContains(t, st.profiles, int64(201))
	assert.Contains(t, st.profiles, int64(202))
	assert.Equal(t, 1, run.Records)
}

func TestPlayerProfiles_AllFailuresFailTheRun(t *testing.T) {
	st := profileStore(201, 202)
	stats := &fakeStatsClient{
		infoErr: map[int64]error{
			201: eris.New("player not found"),
			202: eris.New("player not found"),
		},
	}
	p := NewPlayerProfiles(stats, st, time.Millisecond, 0)

	run := NewContext("player_profiles", st)
	assert.Error(t, p.Execute(context.Background(), run))
}

func TestPlayerProfiles_NoPlayersIsClean(t *testing.T) {
	st := newFakeStore()
	p := NewPlayerProfiles(&fakeStatsClient{}, st, time.Millisecond, 0)

	run := NewContext("player_profiles", st)
	assert.NoError(t, p.Execute(context.Background(), run))
	assert.Zero(t, run.Records)
}

func TestPlayerProfiles_TimeoutConfigurable(t *testing.T) {
	st := newFakeStore()

	p := NewPlayerProfiles(&fakeStatsClient{}, st, time.Millisecond, 45*time.Minute)
	assert.Equal(t, 45*time.Minute, p.Config().Timeout)

	// Unset falls back to the long default; the profile crawl is slow.
	p = NewPlayerProfiles(&fakeStatsClient{}, st, time.Millisecond, 0)
	assert.Equal(t, 30*time.Minute, p.Config().Timeout)
}

func TestPlayerProfiles_CancelStopsBetweenCalls(t *testing.T) {
	st := profileStore(201, 202, 203)
	p := NewPlayerProfiles(&fakeStatsClient{}, st, 50*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	run := NewContext("player_profiles", st)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Execute(ctx, run)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(st.profiles), 3)
}
