package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopline/statline-cli/internal/model"
)

// scriptedPipeline drives the runner in tests.
type scriptedPipeline struct {
	name       string
	beforeErr  error
	executeErr error
	afterErr   error
	panicMsg   string
	records    int

	beforeRan  bool
	executeRan bool
	afterRan   bool
}

func (s *scriptedPipeline) Config() Config {
	return Config{Name: s.name, TargetTable: "t", Cadence: Daily}
}

func (s *scriptedPipeline) BeforeExecute(_ context.Context, _ *Context) error {
	s.beforeRan = true
	return s.beforeErr
}

func (s *scriptedPipeline) Execute(_ context.Context, run *Context) error {
	s.executeRan = true
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.records > 0 {
		run.IncrementRecords(s.records)
	}
	return s.executeErr
}

func (s *scriptedPipeline) AfterExecute(_ context.Context, _ *Context) error {
	s.afterRan = true
	return s.afterErr
}

func TestRunner_SuccessfulRun(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "ok", records: 12}

	res := runner.Run(context.Background(), p)

	assert.Equal(t, model.RunStatusSuccess, res.Status)
	assert.Equal(t, 12, res.Records)
	assert.NoError(t, res.Err)
	assert.True(t, p.beforeRan)
	assert.True(t, p.executeRan)
	assert.True(t, p.afterRan)

	// Lifecycle persisted to the run log.
	require.Len(t, st.runs, 1)
	rec := st.runs[res.RunID]
	assert.Equal(t, "ok", rec.Pipeline)
	assert.Equal(t, model.RunStatusSuccess, rec.Status)
	assert.Equal(t, 12, rec.Records)
}

func TestRunner_ExecuteError_FailedResultNotGoError(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "bad", executeErr: errors.New("upstream down")}

	res := runner.Run(context.Background(), p)

	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.Contains(t, res.Error, "upstream down")
	assert.Equal(t, model.RunStatusFailed, st.runs[res.RunID].Status)
}

func TestRunner_PanicRecovered(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "panicky", panicMsg: "nil map write"}

	res := runner.Run(context.Background(), p)

	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.Contains(t, res.Error, "panic")
	assert.Contains(t, res.Error, "nil map write")
	assert.Equal(t, model.RunStatusFailed, st.runs[res.RunID].Status)
}

func TestRunner_BeforeHookError_SkipsExecute(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "gated", beforeErr: errors.New("setup failed")}

	res := runner.Run(context.Background(), p)

	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.True(t, p.beforeRan)
	assert.False(t, p.executeRan)
	assert.False(t, p.afterRan)
}

func TestRunner_AfterHookError_FailsRun(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "teardown", afterErr: errors.New("flush failed")}

	res := runner.Run(context.Background(), p)

	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.True(t, p.executeRan)
	assert.Contains(t, res.Error, "flush failed")
}

func TestRunner_FreshRunIDPerRun(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "ok"}

	r1 := runner.Run(context.Background(), p)
	r2 := runner.Run(context.Background(), p)

	assert.NotEqual(t, r1.RunID, r2.RunID)
	assert.Len(t, st.runs, 2)
}

func TestRunner_RunLogFailureDoesNotFailRun(t *testing.T) {
	st := newFakeStore()
	st.errOn["StartRun"] = errors.New("db gone")
	st.errOn["CompleteRun"] = errors.New("db gone")
	runner := NewRunner(st, time.Minute)
	p := &scriptedPipeline{name: "ok", records: 1}

	res := runner.Run(context.Background(), p)

	// Tracking is best-effort; the work itself succeeded.
	assert.Equal(t, model.RunStatusSuccess, res.Status)
}

// overlapPipeline detects concurrent executions of one shared instance. Its
// before hook writes shared state the way cumulative_stats loads ownership,
// so the race detector flags any unserialized overlap too.
type overlapPipeline struct {
	scratch    map[string]float64
	inFlight   atomic.Int32
	overlapped atomic.Bool
}

func (s *overlapPipeline) Config() Config {
	return Config{Name: "shared", TargetTable: "t", Cadence: Daily}
}

func (s *overlapPipeline) BeforeExecute(_ context.Context, _ *Context) error {
	s.scratch = map[string]float64{"luka doncic": 99.8}
	return nil
}

func (s *overlapPipeline) Execute(_ context.Context, run *Context) error {
	if s.inFlight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	defer s.inFlight.Add(-1)

	time.Sleep(10 * time.Millisecond)
	if len(s.scratch) == 0 {
		return errors.New("shared state missing")
	}
	run.IncrementRecords(1)
	return nil
}

func TestRunner_OverlappingTriggersRunSerially(t *testing.T) {
	st := newFakeStore()
	runner := NewRunner(st, time.Minute)
	p := &overlapPipeline{}

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runner.Run(context.Background(), p)
		}()
	}
	wg.Wait()

	assert.False(t, p.overlapped.Load(), "two pipeline executions overlapped in one process")
	for _, res := range results {
		assert.Equal(t, model.RunStatusSuccess, res.Status)
	}
	assert.Len(t, st.runs, 4)
}

func TestContext_IncrementRecordsPanicsOnNonPositive(t *testing.T) {
	run := NewContext("x", newFakeStore())

	assert.Panics(t, func() { run.IncrementRecords(0) })
	assert.Panics(t, func() { run.IncrementRecords(-3) })

	run.IncrementRecords(2)
	run.IncrementRecords(3)
	assert.Equal(t, 5, run.Records)
}
