package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lodgeway/checkin-server/internal/config"
	"github.com/lodgeway/checkin-server/internal/secrets"
	"github.com/lodgeway/checkin-server/internal/storage"
)

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	handlers *Handlers
	handler  http.Handler
	server   *http.Server
}

// NewServer wires the router, middleware and handlers.
func NewServer(cfg *config.Config, store *storage.Store, vault *secrets.Vault) *Server {
	handlers := NewHandlers(store, vault)
	router := setupRoutes(cfg, handlers)

	return &Server{
		cfg:      cfg,
		handlers: handlers,
		handler:  router,
	}
}

func setupRoutes(cfg *config.Config, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(jwtAuth(cfg.Auth.JWTSecret))
		}

		r.Route("/email-config", func(r chi.Router) {
			r.Get("/", h.GetEmailConfig)
			r.Post("/", h.SaveEmailConfig)
			r.Delete("/", h.DeleteEmailConfig)
			r.Get("/presets", h.ListEmailPresets)
			r.Get("/presets/{name}", h.GetEmailPreset)
			r.Post("/test", h.TestEmailConfig)
			r.Post("/migrate", h.MigrateEmailConfig)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", h.CreateReservation)
			r.Get("/", h.ListReservations)
			r.Get("/{id}", h.GetReservation)
			r.Patch("/{id}", h.UpdateReservation)
			r.Put("/{id}/status", h.UpdateReservationStatus)
			r.Post("/{id}/checkin-complete", h.CompleteCheckin)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", h.CreateRoom)
			r.Get("/", h.ListRooms)
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}", h.UpdateRoom)
			r.Delete("/{id}", h.DeleteRoom)
		})
	})

	return r
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
