package main

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/blogem/entrylog/controllers"
	"github.com/blogem/entrylog/logging"
	"github.com/blogem/entrylog/middleware"
)

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, log logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AllowAllOrigins())

	r.Get("/health", ctrl.Health.Index)

	r.Route("/items", func(r chi.Router) {
		r.Post("/", ctrl.Entries.Create)
		r.Get("/", ctrl.Entries.List)
		r.Put("/{id}", ctrl.Entries.Update)
		r.Delete("/{id}", ctrl.Entries.Delete)
	})

	return r
}
