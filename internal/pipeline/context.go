package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

// Context carries per-run state through a pipeline execution: the run id,
// record counter, and timing. It also mirrors its lifecycle into the
// persistent run log.
type Context struct {
	RunID     string
	Pipeline  string
	StartedAt time.Time
	Records   int

	status model.RunStatus
	errMsg string
	st     store.Store
}

// NewContext creates a run context with a fresh run id.
func NewContext(pipelineName string, st store.Store) *Context {
	return &Context{
		RunID:    uuid.NewString(),
		Pipeline: pipelineName,
		status:   model.RunStatusRunning,
		st:       st,
	}
}

// StartTracking records the run start in the run log.
func (c *Context) StartTracking(ctx context.Context) {
	c.StartedAt = time.Now().UTC()
	if err := c.st.StartRun(ctx, c.RunID, c.Pipeline); err != nil {
		zap.L().Warn("pipeline: failed to record run start",
			zap.String("pipeline", c.Pipeline),
			zap.String("run_id", c.RunID),
			zap.Error(err),
		)
	}
}

// IncrementRecords adds n to the processed-record counter. A non-positive n
// is a programming error and panics; the runner's recover turns it into a
// failed run.
func (c *Context) IncrementRecords(n int) {
	if n < 1 {
		panic(fmt.Sprintf("pipeline: IncrementRecords called with %d", n))
	}
	c.Records += n
}

// MarkSuccess records a successful run. Persistence failures are logged,
// never raised; the run itself succeeded.
func (c *Context) MarkSuccess(ctx context.Context) {
	c.status = model.RunStatusSuccess
	if err := c.st.CompleteRun(ctx, c.RunID, c.Records); err != nil {
		zap.L().Warn("pipeline: failed to record run completion",
			zap.String("pipeline", c.Pipeline),
			zap.String("run_id", c.RunID),
			zap.Error(err),
		)
	}
}

// MarkFailed records a failed run. Persistence failures are logged, never
// raised; the original failure is what matters.
func (c *Context) MarkFailed(ctx context.Context, runErr error) {
	c.status = model.RunStatusFailed
	c.errMsg = runErr.Error()
	if err := c.st.FailRun(ctx, c.RunID, c.errMsg); err != nil {
		zap.L().Warn("pipeline: failed to record run failure",
			zap.String("pipeline", c.Pipeline),
			zap.String("run_id", c.RunID),
			zap.Error(err),
		)
	}
}

// Status returns the run's current lifecycle state.
func (c *Context) Status() model.RunStatus {
	return c.status
}
