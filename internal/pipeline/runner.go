package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

// Pipeline is one ingestion job. Execute does the fetch-transform-load work,
// counting records through the run context.
type Pipeline interface {
	Config() Config
	Execute(ctx context.Context, run *Context) error
}

// BeforeExecutor is an optional setup hook run before Execute. An error here
// fails the run without invoking Execute.
type BeforeExecutor interface {
	BeforeExecute(ctx context.Context, run *Context) error
}

// AfterExecutor is an optional teardown hook run after a successful Execute.
type AfterExecutor interface {
	AfterExecute(ctx context.Context, run *Context) error
}

// Result is the outcome of a single pipeline run.
type Result struct {
	Pipeline string          `json:"pipeline"`
	RunID    string          `json:"run_id"`
	Status   model.RunStatus `json:"status"`
	Records  int             `json:"records"`
	Duration time.Duration   `json:"duration"`
	Err      error           `json:"-"`
	Error    string          `json:"error,omitempty"`
}

// Runner executes pipelines one at a time against a store. The mutex
// enforces that within one process no two pipelines ever run concurrently,
// no matter how many goroutines trigger runs.
type Runner struct {
	mu             sync.Mutex
	st             store.Store
	defaultTimeout time.Duration
}

// NewRunner creates a runner. defaultTimeout bounds runs whose config does
// not set its own.
func NewRunner(st store.Store, defaultTimeout time.Duration) *Runner {
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Minute
	}
	return &Runner{st: st, defaultTimeout: defaultTimeout}
}

// Run executes a single pipeline through its full lifecycle: fresh run
// context, before hook, execute, after hook. Panics are recovered and every
// failure mode comes back as a failed Result, never as a Go error; one bad
// pipeline must not take down a batch.
func (r *Runner) Run(ctx context.Context, p Pipeline) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := p.Config()
	log := zap.L().With(zap.String("pipeline", cfg.Name))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := NewContext(cfg.Name, r.st)
	run.StartTracking(runCtx)
	log.Info("run starting", zap.String("run_id", run.RunID))

	start := time.Now()
	err := r.execute(runCtx, p, run)
	elapsed := time.Since(start)

	result := Result{
		Pipeline: cfg.Name,
		RunID:    run.RunID,
		Records:  run.Records,
		Duration: elapsed,
	}

	if err != nil {
		run.MarkFailed(runCtx, err)
		result.Status = model.RunStatusFailed
		result.Err = err
		result.Error = err.Error()
		log.Error("run failed",
			zap.String("run_id", run.RunID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return result
	}

	run.MarkSuccess(runCtx)
	result.Status = model.RunStatusSuccess
	log.Info("run complete",
		zap.String("run_id", run.RunID),
		zap.Int("records", run.Records),
		zap.Duration("elapsed", elapsed),
	)
	return result
}

// execute runs the hook chain with panic recovery.
func (r *Runner) execute(ctx context.Context, p Pipeline, run *Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = eris.Errorf("pipeline: panic in %s: %v", run.Pipeline, rec)
		}
	}()

	if before, ok := p.(BeforeExecutor); ok {
		if err := before.BeforeExecute(ctx, run); err != nil {
			return eris.Wrapf(err, "pipeline: %s before hook", run.Pipeline)
		}
	}

	if err := p.Execute(ctx, run); err != nil {
		return err
	}

	if after, ok := p.(AfterExecutor); ok {
		if err := after.AfterExecute(ctx, run); err != nil {
			return eris.Wrapf(err, "pipeline: %s after hook", run.Pipeline)
		}
	}

	return nil
}
