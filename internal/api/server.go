// Package api exposes run results over HTTP for dashboards and downstream
// tooling. The API is read-only: runs are created by the process command, not
// over the wire.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/store"
)

// Server serves stored run results.
type Server struct {
	store   store.Store
	limiter *rate.Limiter
}

// NewServer creates a Server backed by the given store.
func NewServer(st store.Store, cfg config.ServerConfig) *Server {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 20
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = int(rps) * 2
	}
	return &Server{
		store:   st,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/runs/{id}/result", s.handleGetRunResult)
	r.Get("/runs/{id}/buckets/{tier}", s.handleGetBucket)

	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRunResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.GetRunResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	tier := model.Tier(chi.URLParam(r, "tier"))
	switch tier {
	case model.TierAutoAccept, model.TierReview, model.TierManual:
	default:
		writeError(w, http.StatusBadRequest, "unknown tier")
		return
	}

	result, err := s.store.GetRunResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run result not found")
		return
	}
	ids := result.Buckets[tier]
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":       tier,
		"source_ids": ids,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
