// Package pipeline provides the ingestion pipeline framework: declarative
// pipeline configs, run tracking, a sequential runner, the registry, and the
// stat reconciliation engine.
package pipeline

import (
	"time"

	"github.com/rotisserie/eris"
)

// Cadence describes how often a pipeline should run.
type Cadence string

const (
	Hourly Cadence = "hourly"
	Daily  Cadence = "daily"
	Weekly Cadence = "weekly"
)

// Config is the immutable declarative description of a pipeline.
type Config struct {
	// Name is the unique identifier used on the CLI and over HTTP.
	Name string

	// DisplayName is the human-readable name for status output.
	DisplayName string

	// Description explains what the pipeline ingests.
	Description string

	// TargetTable is the primary table the pipeline writes.
	TargetTable string

	// Timeout bounds a single run. Zero means the runner default.
	Timeout time.Duration

	// Cadence is how often the pipeline is due.
	Cadence Cadence
}

// Validate checks the required fields. Misconfigured pipelines are refused
// at registry construction, before anything runs.
func (c Config) Validate() error {
	if c.Name == "" {
		return eris.New("pipeline: config missing name")
	}
	if c.TargetTable == "" {
		return eris.Errorf("pipeline: config for %q missing target table", c.Name)
	}
	return nil
}
