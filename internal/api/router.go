package api

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds settings for the trigger router, passed from main so
// CORS and auth come from env vars.
type RouterConfig struct {
	// RunToken must match the token query parameter (or X-Run-Token header)
	// on /run. If empty, the endpoint is unprotected (development mode).
	RunToken string

	// CorsAllowedOrigins is a comma-separated list of allowed origins.
	// If empty, defaults to "*" (development mode).
	CorsAllowedOrigins string
}

func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (applied to all routes including /health)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// CORS: restrict origins when configured, otherwise allow all (dev mode)
	allowedOrigins := []string{"*"}
	if cfg.CorsAllowedOrigins != "" {
		origins := strings.Split(cfg.CorsAllowedOrigins, ",")
		trimmed := make([]string, 0, len(origins))
		for _, o := range origins {
			if s := strings.TrimSpace(o); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			allowedOrigins = trimmed
		}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "X-Run-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health and status — public, no auth required
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)

	// The run trigger — protected by the shared token
	r.Group(func(r chi.Router) {
		r.Use(RunTokenAuth(cfg.RunToken))
		r.Get("/run", h.Run)
	})

	return r
}
