package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hoopline/statline-cli/internal/extract"
	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

// Ownership snapshots the fantasy platform's roster-percentage feed.
type Ownership struct {
	fantasy extract.FantasyClient
	st      store.Store

	now func() time.Time
}

// NewOwnership creates the ownership pipeline.
func NewOwnership(fantasy extract.FantasyClient, st store.Store) *Ownership {
	return &Ownership{fantasy: fantasy, st: st, now: time.Now}
}

func (p *Ownership) Config() Config {
	return Config{
		Name:        "ownership",
		DisplayName: "Ownership",
		Description: "Daily snapshot of fantasy roster percentages",
		TargetTable: "player_ownership",
		Cadence:     Daily,
	}
}

func (p *Ownership) Execute(ctx context.Context, run *Context) error {
	feed, err := p.fantasy.GetPlayerData(ctx)
	if err != nil {
		return eris.Wrap(err, "ownership: fetch player feed")
	}

	rows := make([]model.FantasyPlayer, 0, len(feed))
	for _, fp := range feed {
		rows = append(rows, fp)
	}

	today := p.now().UTC().Truncate(24 * time.Hour)
	n, err := p.st.RecordOwnership(ctx, today, rows)
	if err != nil {
		return eris.Wrap(err, "ownership: record snapshot")
	}
	if n > 0 {
		run.IncrementRecords(int(n))
	}
	return nil
}
