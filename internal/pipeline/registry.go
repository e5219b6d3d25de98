package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Registry holds pipelines in registration order, which is also execution
// order for batch runs: game stats must land before the cumulative
// reconciliation reads them.
type Registry struct {
	pipelines map[string]Pipeline
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string]Pipeline)}
}

// Register adds a pipeline. A nil config error or duplicate name is refused.
func (r *Registry) Register(p Pipeline) error {
	cfg := p.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, exists := r.pipelines[cfg.Name]; exists {
		return eris.Errorf("pipeline: duplicate registration for %q", cfg.Name)
	}
	r.pipelines[cfg.Name] = p
	r.order = append(r.order, cfg.Name)
	return nil
}

// Get returns a pipeline by name. Unknown names list the valid ones.
func (r *Registry) Get(name string) (Pipeline, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, eris.Errorf("pipeline: unknown pipeline %q (valid: %s)",
			name, strings.Join(r.order, ", "))
	}
	return p, nil
}

// Names returns all registered pipeline names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Info is a read-only summary of a registered pipeline.
type Info struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description"`
	TargetTable string  `json:"target_table"`
	Cadence     Cadence `json:"cadence"`
}

// List returns summaries of all registered pipelines in registration order.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		cfg := r.pipelines[name].Config()
		out = append(out, Info{
			Name:        cfg.Name,
			DisplayName: cfg.DisplayName,
			Description: cfg.Description,
			TargetTable: cfg.TargetTable,
			Cadence:     cfg.Cadence,
		})
	}
	return out
}

// All returns all pipelines in registration order.
func (r *Registry) All() []Pipeline {
	out := make([]Pipeline, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pipelines[name])
	}
	return out
}

// RunAll executes every registered pipeline in order through the runner.
// A failing pipeline is recorded and the batch continues; only context
// cancellation stops the sweep early.
func (r *Registry) RunAll(ctx context.Context, runner *Runner) []Result {
	log := zap.L().With(zap.String("component", "pipeline.registry"))
	log.Info("batch starting", zap.Int("pipelines", len(r.order)))

	results := make([]Result, 0, len(r.order))
	var succeeded, failed int

	start := time.Now()
	for _, name := range r.order {
		select {
		case <-ctx.Done():
			log.Warn("batch cancelled", zap.Int("remaining", len(r.order)-len(results)))
			return results
		default:
		}

		res := runner.Run(ctx, r.pipelines[name])
		results = append(results, res)
		if res.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	log.Info("batch complete",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}
