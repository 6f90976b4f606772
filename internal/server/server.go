// Package server exposes the operational HTTP endpoint: a liveness probe
// and the bot-wide counters. It is optional; an empty listen address
// disables it entirely.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/service"
)

const defaultOpsTimeout = 10 * time.Second

type OpsServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewOpsServer wires the /healthz and /stats routes. Returns nil when
// cfg.HTTPAddress is empty, the caller treats that as "disabled".
func NewOpsServer(users service.UserService, cfg config.Ops, log *logger.Logger) *OpsServer {
	if cfg.HTTPAddress == "" {
		return nil
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultOpsTimeout
	}

	h := &opsHandler{users: users, logger: log}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(timeout))
	router.Get("/healthz", h.healthz)
	router.Get("/stats", h.stats)

	return &OpsServer{
		server: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           router,
			ReadHeaderTimeout: timeout,
		},
		logger: log,
	}
}

// Run blocks serving requests until Shutdown is called.
func (s *OpsServer) Run() {
	s.logger.Info().Str("addr", s.server.Addr).Msg("ops server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Err(err).Msg("ops server stopped")
	}
}

func (s *OpsServer) Shutdown(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Err(err).Msg("ops server shutdown failed")
	}
}

type opsHandler struct {
	users  service.UserService
	logger *logger.Logger
}

func (h *opsHandler) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *opsHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.GlobalStats(r.Context())
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("failed to load global stats")
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(stats); err != nil {
		logger.FromRequest(r).Warn().Err(err).Msg("failed to encode stats")
	}
}
