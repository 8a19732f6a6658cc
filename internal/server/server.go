package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/config"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/store"
)

// Server wraps the HTTP server with its router and dependencies.
type Server struct {
	handler *Handler
	log     *zap.Logger
	http    *http.Server
}

// New builds a Server ready to listen on cfg.Addr.
func New(cfg *config.Config, log *zap.Logger, events store.EventRepo) *Server {
	h := NewHandler(cfg, log, events)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", h.handleGenerate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Delete("/", h.handleDeleteSession)
				r.Post("/challenge", h.handleLoadChallenge)
				r.Post("/question", h.handleSelectQuestion)
				r.Post("/run", h.handleRun)
			})
		})
	})

	return &Server{
		handler: h,
		log:     log,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs the server until it fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and tears down all live sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.handler.sessions.closeAll()
	return err
}
