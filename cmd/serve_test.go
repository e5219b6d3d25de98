package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopline/statline-cli/internal/pipeline"
	"github.com/hoopline/statline-cli/internal/store"
)

// stubPipeline counts executions so the async trigger paths can be observed.
type stubPipeline struct {
	name string
	runs atomic.Int32
}

func (p *stubPipeline) Config() pipeline.Config {
	return pipeline.Config{
		Name:        p.name,
		DisplayName: p.name,
		Description: "stub",
		TargetTable: "stats.noop",
		Cadence:     pipeline.Daily,
	}
}

func (p *stubPipeline) Execute(_ context.Context, run *pipeline.Context) error {
	p.runs.Add(1)
	run.IncrementRecords(1)
	return nil
}

func newServeEnv(t *testing.T, token string) (*http.ServeMux, *stubPipeline, *stubPipeline) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	first := &stubPipeline{name: "game_stats"}
	second := &stubPipeline{name: "ownership"}

	reg := pipeline.NewRegistry()
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(second))

	runner := pipeline.NewRunner(st, time.Second)
	return newServeMux(context.Background(), reg, runner, token), first, second
}

func TestServeMux_Health(t *testing.T) {
	mux, _, _ := newServeEnv(t, "")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeMux_HealthSkipsTokenCheck(t *testing.T) {
	mux, _, _ := newServeEnv(t, "hoops")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServeMux_ListPipelines(t *testing.T) {
	mux, _, _ := newServeEnv(t, "")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pipelines", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var infos []pipeline.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "game_stats", infos[0].Name)
	assert.Equal(t, "ownership", infos[1].Name)
}

func TestServeMux_TokenRequired(t *testing.T) {
	mux, _, _ := newServeEnv(t, "hoops")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pipelines", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/pipelines", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/pipelines", nil)
	req.Header.Set("Authorization", "Bearer hoops")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServeMux_TriggerPipeline(t *testing.T) {
	mux, first, second := newServeEnv(t, "")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/pipelines/game_stats/run", nil))

	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "game_stats", resp["pipeline"])

	require.Eventually(t, func() bool {
		return first.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), second.runs.Load())
}

func TestServeMux_TriggerUnknownPipeline(t *testing.T) {
	mux, _, _ := newServeEnv(t, "")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/pipelines/nope/run", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown pipeline")
}

func TestServeMux_TriggerRunAll(t *testing.T) {
	mux, first, second := newServeEnv(t, "")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/pipelines/run-all", nil))

	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp struct {
		Status    string   `json:"status"`
		Pipelines []string `json:"pipelines"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"game_stats", "ownership"}, resp.Pipelines)

	require.Eventually(t, func() bool {
		return first.runs.Load() == 1 && second.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)
}
