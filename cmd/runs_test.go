package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopline/statline-cli/internal/model"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{
			ID: "run-1", Pipeline: "game_stats", Status: model.RunStatusSuccess,
			Records: 120, StartedAt: now, CompletedAt: ptrTime(now.Add(10 * time.Second)),
		},
		{
			ID: "run-2", Pipeline: "game_stats", Status: model.RunStatusSuccess,
			Records: 80, StartedAt: now.Add(-time.Hour), CompletedAt: ptrTime(now.Add(-time.Hour).Add(20 * time.Second)),
		},
		{
			ID: "run-3", Pipeline: "ownership", Status: model.RunStatusFailed,
			StartedAt: now, CompletedAt: ptrTime(now.Add(time.Second)),
		},
		{
			ID: "run-4", Pipeline: "ownership", Status: model.RunStatusRunning,
			StartedAt: now,
		},
	}

	stats := computeRunStats(runs)
	require.Len(t, stats, 2)

	gs := stats[0]
	assert.Equal(t, "game_stats", gs.Pipeline)
	assert.Equal(t, 2, gs.Total)
	assert.Equal(t, 2, gs.Succeeded)
	assert.Equal(t, 0, gs.Failed)
	assert.Equal(t, 200, gs.Records)
	assert.InDelta(t, 15.0, gs.AvgDurSecs, 0.001)

	own := stats[1]
	assert.Equal(t, "ownership", own.Pipeline)
	assert.Equal(t, 2, own.Total)
	assert.Equal(t, 0, own.Succeeded)
	assert.Equal(t, 1, own.Failed)
	assert.InDelta(t, 1.0, own.AvgDurSecs, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	assert.Empty(t, computeRunStats(nil))
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Pipeline:    "game_stats",
			Status:      model.RunStatusSuccess,
			Records:     120,
			StartedAt:   now,
			CompletedAt: ptrTime(now.Add(90 * time.Second)),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Pipeline:  "lineup_alerts",
			Status:    model.RunStatusRunning,
			StartedAt: now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "PIPELINE")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "game_stats")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "lineup_alerts")
	assert.Contains(t, out, "2026-01-16 08:00")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, []runStats{
		{Pipeline: "game_stats", Total: 3, Succeeded: 2, Failed: 1, Records: 250, AvgDurSecs: 12.34},
	})

	out := buf.String()
	assert.Contains(t, out, "game_stats")
	assert.Contains(t, out, "12.3s")
	assert.Contains(t, out, "250")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
}
