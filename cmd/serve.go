package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/marketdesk/feedsync/internal/ingest"
	"github.com/marketdesk/feedsync/internal/metrics"
	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/respond"
	"github.com/marketdesk/feedsync/internal/store"
	"github.com/marketdesk/feedsync/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard-facing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		metrics.Init()

		api := &apiServer{
			st:       st,
			pipeline: buildPipeline(st),
			// One crawl at a time. Overlapping runs against the same
			// product double-create before the unique key catches them.
			ingestGate: semaphore.NewWeighted(1),
		}
		if cfg.Anthropic.Key != "" {
			api.responder = respond.NewResponder(st, anthropic.NewClient(cfg.Anthropic.Key), cfg)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiServer struct {
	st         store.Store
	pipeline   *ingest.Pipeline
	responder  *respond.Responder
	ingestGate *semaphore.Weighted
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest/{kind}", s.handleIngest)
		r.Delete("/tickets/source/{kind}", s.handlePurge)
		r.Post("/respond/batch", s.handleRespondBatch)
		r.Get("/tickets", s.handleListTickets)
		r.Get("/tickets/stats", s.handleTicketStats)
	})

	return r
}

func (s *apiServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		URL   string `json:"url"`
		Pages int    `json:"pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	if !s.ingestGate.TryAcquire(1) {
		writeError(w, http.StatusConflict, "an ingestion run is already in progress")
		return
	}
	defer s.ingestGate.Release(1)

	pages := req.Pages
	if pages == 0 && kind == model.SourceKindReview {
		pages = cfg.Crawler.ReviewPages
	}

	summary, err := s.pipeline.Run(r.Context(), kind, req.URL, pages)
	if err != nil {
		zap.L().Error("api ingestion failed",
			zap.String("kind", string(kind)),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) handlePurge(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := s.st.DeleteTicketsByDescriptionPrefix(r.Context(), ingest.SourcePrefix(kind))
	if err != nil {
		zap.L().Error("api purge failed", zap.String("kind", string(kind)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "purge failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func (s *apiServer) handleRespondBatch(w http.ResponseWriter, r *http.Request) {
	if s.responder == nil {
		writeError(w, http.StatusServiceUnavailable, "anthropic API key is not configured")
		return
	}

	var req struct {
		TicketIDs []string `json:"ticket_ids"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := s.responder.Run(r.Context(), req.TicketIDs)
	if err != nil {
		zap.L().Error("api batch respond failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "batch respond failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *apiServer) handleListTickets(w http.ResponseWriter, r *http.Request) {
	filter := store.TicketFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = model.TicketStatus(v)
	}
	if v := r.URL.Query().Get("source"); v != "" {
		kind, err := parseKind(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.SourcePrefix = ingest.SourcePrefix(kind)
	}

	tickets, err := s.st.ListTickets(r.Context(), filter)
	if err != nil {
		zap.L().Error("api list tickets failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list tickets failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tickets": tickets})
}

func (s *apiServer) handleTicketStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.st.TicketStats(r.Context())
	if err != nil {
		zap.L().Error("api ticket stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ticket stats failed")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
