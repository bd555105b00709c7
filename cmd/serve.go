package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/qa"
	"github.com/dimi-labs/kensho-cli/internal/store"
	anthropicpkg "github.com/dimi-labs/kensho-cli/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for reports and QA",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := newRouter(ctx, env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API. Background pipeline runs started by POST
// /api/runs use runCtx so they outlive the triggering request.
func newRouter(runCtx context.Context, env *pipelineEnv) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		limit := 20
		if s := req.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				limit = n
			}
		}
		runs, err := env.Store.ListRuns(req.Context(), store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
			Ticker: req.URL.Query().Get("ticker"),
			Limit:  limit,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if run == nil {
			writeError(w, http.StatusNotFound, eris.New("run not found"))
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Post("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Ticker string `json:"ticker"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Ticker == "" {
			writeError(w, http.StatusBadRequest, eris.New("ticker is required"))
			return
		}

		// The scrape takes minutes; run it detached from the request.
		go func() {
			run, err := env.Pipeline.Run(runCtx, body.Ticker)
			if err != nil {
				zap.L().Error("api-triggered run failed",
					zap.String("ticker", body.Ticker),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("api-triggered run complete",
				zap.String("ticker", body.Ticker),
				zap.String("run_id", run.ID),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"ticker": body.Ticker,
		})
	})

	r.Get("/api/reports/{ticker}", func(w http.ResponseWriter, req *http.Request) {
		serveArtifact(w, req, env.Store, store.ArtifactReportJSON, "application/json; charset=utf-8")
	})

	r.Get("/api/reports/{ticker}/html", func(w http.ResponseWriter, req *http.Request) {
		serveArtifact(w, req, env.Store, store.ArtifactReportHTML, "text/html; charset=utf-8")
	})

	r.Post("/api/qa/{ticker}", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Question == "" {
			writeError(w, http.StatusBadRequest, eris.New("question is required"))
			return
		}

		ticker := chi.URLParam(req, "ticker")
		data, err := env.Store.LatestArtifact(req.Context(), ticker, store.ArtifactReportJSON)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if data == nil {
			writeError(w, http.StatusNotFound, eris.Errorf("no report for %s", ticker))
			return
		}

		var rpt model.Report
		if err := json.Unmarshal(data, &rpt); err != nil {
			writeError(w, http.StatusInternalServerError, eris.Wrap(err, "decode report"))
			return
		}

		engine := qa.NewEngine(&rpt, anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.SonnetModel)
		answer, err := engine.Ask(req.Context(), body.Question)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"ticker":   ticker,
			"question": body.Question,
			"answer":   answer,
		})
	})

	return r
}

// serveArtifact writes the latest stored artifact of the given kind for the
// ticker in the URL.
func serveArtifact(w http.ResponseWriter, req *http.Request, st store.Store, kind, contentType string) {
	ticker := chi.URLParam(req, "ticker")
	data, err := st.LatestArtifact(req.Context(), ticker, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, eris.Errorf("no report for %s", ticker))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
