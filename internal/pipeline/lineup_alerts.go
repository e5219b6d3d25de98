package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

// Lineup slots that do not need an active player.
const (
	slotBench    = "BE"
	slotInjured  = "IR"
	emptySlotTag = ""
)

// rosterFetchConcurrency bounds parallel roster lookups against the fantasy API.
const rosterFetchConcurrency = 4

// LineupAlerts warns users about injured or empty starting slots shortly
// before the day's first tip-off. The pipeline gates itself: outside the
// alert window it exits cleanly, so it can be scheduled aggressively.
type LineupAlerts struct {
	fantasy extract.FantasyClient
	st      store.Store
	window  AlertWindow

	now func() time.Time
}

// NewLineupAlerts creates the lineup_alerts pipeline.
func NewLineupAlerts(fantasy extract.FantasyClient, st store.Store, window AlertWindow) *LineupAlerts {
	return &LineupAlerts{fantasy: fantasy, st: st, window: window, now: time.Now}
}

func (p *LineupAlerts) Config() Config {
	return Config{
		Name:        "lineup_alerts",
		DisplayName: "Lineup Alerts",
		Description: "Pre-tip-off alerts for injured or empty starting slots",
		TargetTable: "lineup_alerts",
		Cadence:     Hourly,
	}
}

func (p *LineupAlerts) Execute(ctx context.Context, run *Context) error {
	now := p.now().UTC()
	today := now.Truncate(24 * time.Hour)
	log := zap.L().With(zap.String("pipeline", "lineup_alerts"))

	tipOff, err := p.st.EarliestTipOff(ctx, today)
	if err != nil {
		return eris.Wrap(err, "lineup_alerts: find first tip-off")
	}
	if tipOff == nil {
		log.Info("no games today, nothing to alert on")
		return nil
	}
	if !p.window.Contains(now, *tipOff) {
		log.Debug("outside alert window",
			zap.Time("now", now),
			zap.Time("tip_off", *tipOff),
		)
		return nil
	}

	teams, err := p.st.SavedTeams(ctx)
	if err != nil {
		return eris.Wrap(err, "lineup_alerts: list saved teams")
	}

	var pending []model.SavedTeam
	for _, team := range teams {
		notified, err := p.st.AlreadyNotified(ctx, team.TeamID, today)
		if err != nil {
			return eris.Wrapf(err, "lineup_alerts: check dedup for team %s", team.TeamID)
		}
		if !notified {
			pending = append(pending, team)
		}
	}

	// Rosters are independent per team; fetch them in parallel. A failed
	// fetch skips that team, it never fails the run.
	rosters := make([][]model.RosterSlot, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rosterFetchConcurrency)
	for i, team := range pending {
		g.Go(func() error {
			slots, err := p.fantasy.GetRosterWithSlots(gctx, strconv.FormatInt(team.LeagueID, 10), team.TeamName)
			if err != nil {
				log.Warn("skipping team",
					zap.String("team", team.TeamName),
					zap.Error(err),
				)
				return nil
			}
			rosters[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "lineup_alerts: fetch rosters")
	}

	for i, team := range pending {
		alerts := buildAlerts(team, rosters[i], today, now)
		if len(alerts) == 0 {
			continue
		}
		n, err := p.st.RecordAlerts(ctx, alerts)
		if err != nil {
			return eris.Wrapf(err, "lineup_alerts: record alerts for team %s", team.TeamID)
		}
		if n > 0 {
			run.IncrementRecords(int(n))
		}
	}

	return nil
}

// buildAlerts flags starting slots holding an injured player or no player
// at all. Bench and injured-reserve slots are just storage.
func buildAlerts(team model.SavedTeam, slots []model.RosterSlot, gameDate, now time.Time) []model.LineupAlert {
	var alerts []model.LineupAlert
	for _, s := range slots {
		if s.Slot == slotBench || s.Slot == slotInjured {
			continue
		}
		var reason string
		switch {
		case s.PlayerName == emptySlotTag:
			reason = "empty slot"
		case s.Injured:
			reason = "injured starter"
		default:
			continue
		}
		alerts = append(alerts, model.LineupAlert{
			TeamID:     team.TeamID,
			GameDate:   gameDate,
			PlayerName: s.PlayerName,
			Slot:       s.Slot,
			Reason:     reason,
			CreatedAt:  now,
		})
	}
	return alerts
}
