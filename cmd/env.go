package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/pipeline"
	"github.com/hoopline/statline-cli/internal/resilience"
	"github.com/hoopline/statline-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "statline.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildRegistry wires the extractors, resilience stack, and scoring weights
// into the full pipeline registry. Registration order is execution order for
// run-all: game stats must land before the cumulative reconciliation reads them.
func buildRegistry(st store.Store) (*pipeline.Registry, error) {
	retryCfg := resilience.FromRetryConfig(
		cfg.Resilience.MaxAttempts,
		cfg.Resilience.InitialBackoffMs,
		cfg.Resilience.MaxBackoffMs,
		cfg.Resilience.BackoffMultiplier,
		cfg.Resilience.JitterFraction,
	)
	breakers := resilience.NewServiceBreakers(resilience.FromCircuitConfig(
		cfg.Resilience.FailureThreshold,
		cfg.Resilience.ResetTimeoutSecs,
	))

	stats := extract.NewResilientStatsClient(
		extract.NewStatsAPI(
			cfg.StatsAPI.BaseURL,
			time.Duration(cfg.StatsAPI.TimeoutSecs)*time.Second,
			cfg.StatsAPI.RatePerSecond,
			cfg.StatsAPI.RateBurst,
		),
		retryCfg, breakers,
	)
	fantasy := extract.NewResilientFantasyClient(
		extract.NewFantasyAPI(
			cfg.FantasyAPI.BaseURL,
			cfg.FantasyAPI.LeagueID,
			time.Duration(cfg.FantasyAPI.TimeoutSecs)*time.Second,
		),
		retryCfg, breakers,
	)

	weights, err := model.LoadScoring(cfg.Scoring.WeightsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load scoring weights")
	}

	schedule, err := model.LoadMatchupSchedule(cfg.Pipeline.MatchupScheduleFile)
	if err != nil {
		return nil, eris.Wrap(err, "load matchup schedule")
	}

	season := cfg.Pipeline.Season
	if season == "" {
		season = model.SeasonFor(time.Now())
	}

	window := pipeline.DefaultAlertWindow()
	if cfg.Pipeline.AlertWindowMins > 0 {
		window.Open = time.Duration(cfg.Pipeline.AlertWindowMins) * time.Minute
	}
	if cfg.Pipeline.AlertCloseMins > 0 {
		window.Close = time.Duration(cfg.Pipeline.AlertCloseMins) * time.Minute
	}

	profileDelay := time.Duration(cfg.StatsAPI.ProfileDelayMs) * time.Millisecond
	profileTimeout := time.Duration(cfg.Pipeline.ProfileTimeoutSecs) * time.Second

	reg := pipeline.NewRegistry()
	for _, p := range []pipeline.Pipeline{
		pipeline.NewGameStats(stats, fantasy, st, weights, season),
		pipeline.NewCumulativeStats(stats, fantasy, st, weights, season),
		pipeline.NewOwnership(fantasy, st),
		pipeline.NewAdvancedStats(stats, st, season),
		pipeline.NewScoreboard(stats, st),
		pipeline.NewMatchupScores(fantasy, st, schedule),
		pipeline.NewPlayerProfiles(stats, st, profileDelay, profileTimeout),
		pipeline.NewLineupAlerts(fantasy, st, window),
	} {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newRunner(st store.Store) *pipeline.Runner {
	return pipeline.NewRunner(st, time.Duration(cfg.Pipeline.DefaultTimeoutSecs)*time.Second)
}
