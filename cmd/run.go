package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/pipeline"
	"github.com/hoopline/statline-cli/internal/store"
)

var runForce bool

var runCmd = &cobra.Command{
	Use:   "run <pipeline>",
	Short: "Run a single ingestion pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		reg, err := buildRegistry(st)
		if err != nil {
			return err
		}
		p, err := reg.Get(args[0])
		if err != nil {
			return err
		}

		if !runForce {
			due, err := pipelineDue(ctx, st, p, time.Now())
			if err != nil {
				return err
			}
			if !due {
				zap.L().Info("pipeline already ran this period, skipping",
					zap.String("pipeline", args[0]),
					zap.String("cadence", string(p.Config().Cadence)),
				)
				return nil
			}
		}

		res := newRunner(st).Run(ctx, p)
		formatResults(os.Stdout, []pipeline.Result{res})
		if res.Err != nil {
			return eris.Errorf("pipeline %s failed: %s", res.Pipeline, res.Error)
		}
		return nil
	},
}

var runAllCmd = &cobra.Command{
	Use:   "run-all",
	Short: "Run every registered pipeline in order",
	Long: "Runs all pipelines sequentially in registration order. Pipelines " +
		"whose cadence already ran this period are skipped unless --force is set. " +
		"A failing pipeline does not stop the batch.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		reg, err := buildRegistry(st)
		if err != nil {
			return err
		}

		runner := newRunner(st)
		var results []pipeline.Result
		var failed int
		for _, p := range reg.All() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			name := p.Config().Name
			if !runForce {
				due, err := pipelineDue(ctx, st, p, time.Now())
				if err != nil {
					return err
				}
				if !due {
					zap.L().Info("pipeline already ran this period, skipping",
						zap.String("pipeline", name))
					continue
				}
			}

			res := runner.Run(ctx, p)
			results = append(results, res)
			if res.Err != nil {
				failed++
			}
		}

		formatResults(os.Stdout, results)
		if failed > 0 {
			return eris.Errorf("%d of %d pipelines failed", failed, len(results))
		}
		return nil
	},
}

// pipelineDue checks the run log against the pipeline's cadence.
func pipelineDue(ctx context.Context, st store.Store, p pipeline.Pipeline, now time.Time) (bool, error) {
	cfg := p.Config()
	last, err := st.LastSuccess(ctx, cfg.Name)
	if err != nil {
		return false, eris.Wrapf(err, "last success for %s", cfg.Name)
	}
	return pipeline.Due(cfg.Cadence, now, last), nil
}

// formatResults writes a tabular batch summary to out.
func formatResults(out io.Writer, results []pipeline.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "Nothing was due.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PIPELINE\tRUN\tSTATUS\tRECORDS\tDURATION\tERROR")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Pipeline,
			truncateID(r.RunID),
			r.Status,
			r.Records,
			r.Duration.Round(time.Millisecond),
			r.Error,
		)
	}
	_ = w.Flush()
}

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "run even if the cadence already ran this period")
	runAllCmd.Flags().BoolVar(&runForce, "force", false, "run every pipeline regardless of cadence")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runAllCmd)
}
