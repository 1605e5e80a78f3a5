package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/beauty-leads/internal/config"
	"github.com/xavierca1/beauty-leads/internal/infra/http/handlers"
	"github.com/xavierca1/beauty-leads/internal/infra/http/middleware"
)

type routes struct {
	leads  *handlers.LeadHandler
	auth   *handlers.AuthHandler
	health *handlers.HealthHandler
	stream *handlers.StreamHandler
	tokens middleware.TokenValidator
}

func newRouter(cfg *config.Config, rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", handlers.ConfirmHeader},
	}))

	r.Get("/healthz", rt.health.Handle)
	r.Handle(cfg.MetricsPath, promhttp.Handler())

	// The stream authenticates with ?token= because browsers cannot set
	// headers on a websocket upgrade.
	r.Get("/api/leads/stream", rt.stream.Handle)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(rt.tokens))
		r.Get("/api/me", rt.auth.Me)
		r.Post("/api/logout", rt.auth.Logout)

		r.Get("/api/leads", rt.leads.List)
		r.Post("/api/leads", rt.leads.Create)
		r.Get("/api/leads/{id}", rt.leads.Get)
		r.Put("/api/leads/{id}", rt.leads.Update)
		r.Delete("/api/leads/{id}", rt.leads.Delete)
		r.Post("/api/leads/{id}/descriptions", rt.leads.AppendDescription)
	})

	return r
}
