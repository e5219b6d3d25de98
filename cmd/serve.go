package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoopline/statline-cli/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server for cron and webhooks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
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

		mux := newServeMux(ctx, reg, runner, cfg.Server.Token)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newServeMux builds the trigger routes. Pipeline runs triggered over HTTP
// execute in the background against baseCtx, so a closed request connection
// does not cancel an ingestion mid-write.
func newServeMux(baseCtx context.Context, reg *pipeline.Registry, runner *pipeline.Runner, token string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /pipelines", requireToken(token, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reg.List())
	}))

	mux.HandleFunc("POST /pipelines/run-all", requireToken(token, func(w http.ResponseWriter, _ *http.Request) {
		go func() {
			results := reg.RunAll(baseCtx, runner)
			for _, res := range results {
				if res.Err != nil {
					zap.L().Error("triggered batch pipeline failed",
						zap.String("pipeline", res.Pipeline),
						zap.Error(res.Err),
					)
				}
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":    "accepted",
			"pipelines": reg.Names(),
		})
	}))

	mux.HandleFunc("POST /pipelines/{name}/run", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		p, err := reg.Get(name)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}

		go func() {
			res := runner.Run(baseCtx, p)
			if res.Err != nil {
				zap.L().Error("triggered pipeline failed",
					zap.String("pipeline", res.Pipeline),
					zap.Error(res.Err),
				)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":   "accepted",
			"pipeline": name,
		})
	}))

	return mux
}

// requireToken gates a handler behind a bearer token. An empty configured
// token disables the check.
func requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
