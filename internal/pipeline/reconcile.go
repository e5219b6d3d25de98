package pipeline

import (
	"sort"
	"time"

	"github.com/hoopline/statline-cli/internal/model"
)

// Reconciliation is the outcome of diffing fresh season snapshots against
// the stored season totals.
type Reconciliation struct {
	// Dailies holds one inferred per-date stat row per player who played.
	Dailies []model.PlayerDaily

	// Totals holds the full replacement season row for each touched player.
	// Untouched players keep their stored rows.
	Totals []model.SeasonTotal

	// Touched lists the player ids whose rows changed this run. Only these
	// get their previous rank refreshed before the rank pass.
	Touched []int64
}

// Reconcile classifies which players have new games, infers their daily
// stat deltas, and builds replacement season rows.
//
// A player is treated as having played when they are absent from the stored
// totals or their games-played count moved. The daily delta is computed per
// raw stat (fresh minus prior, or fresh outright on first appearance) and
// its fantasy points are scored from the delta line itself, so the daily
// value is exactly what the night's box score was worth.
func Reconcile(
	fresh []model.SeasonSnapshot,
	prior []model.SeasonTotal,
	weights model.ScoringWeights,
	gameDate time.Time,
	runID string,
) Reconciliation {
	priorByID := make(map[int64]model.SeasonTotal, len(prior))
	for _, t := range prior {
		priorByID[t.PlayerID] = t
	}

	var rec Reconciliation
	for _, snap := range fresh {
		old, known := priorByID[snap.PlayerID]
		if known && old.GamesPlayed == snap.GamesPlayed {
			continue
		}

		delta := snap.Stats
		if known {
			delta = snap.Stats.Sub(old.Stats)
		}

		rec.Dailies = append(rec.Dailies, model.PlayerDaily{
			PlayerID:      snap.PlayerID,
			Name:          snap.Name,
			Team:          snap.Team,
			GameDate:      gameDate,
			FantasyPoints: weights.FantasyPoints(delta),
			Stats:         delta,
			OwnershipPct:  snap.OwnershipPct,
			RunID:         runID,
		})

		total := model.SeasonTotal{
			PlayerID:      snap.PlayerID,
			Name:          snap.Name,
			Team:          snap.Team,
			LastPlayed:    gameDate,
			FantasyPoints: weights.FantasyPoints(snap.Stats),
			Stats:         snap.Stats,
			GamesPlayed:   snap.GamesPlayed,
			OwnershipPct:  snap.OwnershipPct,
			RunID:         runID,
		}
		if known {
			// The current rank carries over until the rank pass rewrites
			// it; the previous rank snapshots where the player stood
			// before this run.
			total.CurrentRank = old.CurrentRank
			total.PreviousRank = old.CurrentRank
		}
		rec.Totals = append(rec.Totals, total)
		rec.Touched = append(rec.Touched, snap.PlayerID)
	}

	return rec
}

// RankTotals assigns current ranks 1..N over the given season rows, ordered
// by fantasy points descending with player id ascending as the tie-break so
// repeated passes over equal scores never reshuffle.
func RankTotals(totals []model.SeasonTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].FantasyPoints != totals[j].FantasyPoints {
			return totals[i].FantasyPoints > totals[j].FantasyPoints
		}
		return totals[i].PlayerID < totals[j].PlayerID
	})
	for i := range totals {
		totals[i].CurrentRank = i + 1
	}
}
