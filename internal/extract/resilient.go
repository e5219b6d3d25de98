package extract

import (
	"context"
	"time"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/resilience"
)

// Service names used in the breaker registry.
const (
	ServiceStatsAPI   = "stats_api"
	ServiceFantasyAPI = "fantasy_api"
)

// guard runs fn through the circuit breaker, with the whole guarded call
// wrapped in retries. A breaker rejection is not transient, so retries stop
// as soon as the circuit opens.
func guard[T any](ctx context.Context, retry resilience.RetryConfig, cb *resilience.CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		return resilience.ExecuteVal(ctx, cb, fn)
	})
}

// ResilientStatsClient wraps a StatsClient with retry and circuit breaking.
type ResilientStatsClient struct {
	inner   StatsClient
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilientStatsClient wraps inner with the given retry config and the
// registry's stats-API breaker.
func NewResilientStatsClient(inner StatsClient, retry resilience.RetryConfig, breakers *resilience.ServiceBreakers) *ResilientStatsClient {
	return &ResilientStatsClient{
		inner:   inner,
		retry:   retry,
		breaker: breakers.Get(ServiceStatsAPI),
	}
}

func (c *ResilientStatsClient) GetGameLogs(ctx context.Context, date time.Time, season string) ([]model.GameLog, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) ([]model.GameLog, error) {
		return c.inner.GetGameLogs(ctx, date, season)
	})
}

func (c *ResilientStatsClient) GetLeagueLeaders(ctx context.Context, season string) ([]model.SeasonSnapshot, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) ([]model.SeasonSnapshot, error) {
		return c.inner.GetLeagueLeaders(ctx, season)
	})
}

func (c *ResilientStatsClient) GetAdvancedStats(ctx context.Context, season string) ([]model.AdvancedLine, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) ([]model.AdvancedLine, error) {
		return c.inner.GetAdvancedStats(ctx, season)
	})
}

func (c *ResilientStatsClient) GetPlayerInfo(ctx context.Context, playerID int64) (*model.PlayerInfo, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) (*model.PlayerInfo, error) {
		return c.inner.GetPlayerInfo(ctx, playerID)
	})
}

func (c *ResilientStatsClient) GetScoreboardGames(ctx context.Context, date time.Time) ([]model.Game, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) ([]model.Game, error) {
		return c.inner.GetScoreboardGames(ctx, date)
	})
}

// ResilientFantasyClient wraps a FantasyClient with retry and circuit breaking.
type ResilientFantasyClient struct {
	inner   FantasyClient
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilientFantasyClient wraps inner with the given retry config and the
// registry's fantasy-API breaker.
func NewResilientFantasyClient(inner FantasyClient, retry resilience.RetryConfig, breakers *resilience.ServiceBreakers) *ResilientFantasyClient {
	return &ResilientFantasyClient{
		inner:   inner,
		retry:   retry,
		breaker: breakers.Get(ServiceFantasyAPI),
	}
}

func (c *ResilientFantasyClient) GetPlayerData(ctx context.Context) (map[string]model.FantasyPlayer, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) (map[string]model.FantasyPlayer, error) {
		return c.inner.GetPlayerData(ctx)
	})
}

func (c *ResilientFantasyClient) GetRosterWithSlots(ctx context.Context, leagueID, teamName string) ([]model.RosterSlot, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) ([]model.RosterSlot, error) {
		return c.inner.GetRosterWithSlots(ctx, leagueID, teamName)
	})
}

func (c *ResilientFantasyClient) GetMatchupScore(ctx context.Context, leagueID, teamName string, period int) (*model.LiveMatchup, error) {
	return guard(ctx, c.retry, c.breaker, func(ctx context.Context) (*model.LiveMatchup, error) {
		return c.inner.GetMatchupScore(ctx, leagueID, teamName, period)
	})
}
