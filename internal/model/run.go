package model

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID          string     `json:"id"`
	Pipeline    string     `json:"pipeline"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`
	Records     int        `json:"records"`
	Error       string     `json:"error,omitempty"`
}

// LineupAlert is one notification sent for an unfilled or injured lineup slot.
type LineupAlert struct {
	TeamID     string    `json:"team_id"`
	GameDate   time.Time `json:"game_date"`
	PlayerName string    `json:"player_name"`
	Slot       string    `json:"slot"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
