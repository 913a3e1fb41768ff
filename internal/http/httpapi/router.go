package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imageforge/internal/http/handlers"
	"imageforge/internal/infra"
	"imageforge/internal/middleware"
)

// NewRouter builds the HTTP trigger surface.
func NewRouter(app *handlers.App, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(logger),
	)

	r.Get("/v1/healthz", app.Health)

	// Direct invocation: no backing record, errors propagate.
	r.Post("/v1/images/generate", app.DirectGenerate)

	r.Route("/v1/records", func(r chi.Router) {
		r.Post("/", app.UpsertRecord)
		r.Get("/{key}", app.GetRecord)
		r.Post("/{key}/generate", app.GenerateRecord)
		r.Post("/{key}/reconcile", app.ReconcileRecord)
	})

	if app.Static != nil {
		r.Get("/static/*", app.ServeArtifact)
	}

	return r
}
