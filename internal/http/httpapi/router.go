package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gbguki/modelcutAI/internal/http/handlers"
	"github.com/gbguki/modelcutAI/internal/middleware"
)

// NewRouter binds the handler set to the versioned API consumed by the
// browser UI. lookup may be nil when GeoIP is not configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		cors.Handler(cors.Options{
			AllowedOrigins:   app.Config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Locale", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.Locale(app.Config.DefaultLocale, lookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/profile", func(r chi.Router) {
		r.Get("/", app.GetProfile)
		r.Post("/", app.RegisterProfile)
	})

	r.Route("/v1/state", func(r chi.Router) {
		r.Get("/", app.GetState)
		r.Put("/base-image", app.SetBaseImage)
		r.Delete("/base-image", app.ClearBaseImage)
		r.Post("/product-images", app.AddProductImage)
		r.Delete("/product-images/{index}", app.RemoveProductImage)
		r.Put("/active-version", app.SelectVersion)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(10, time.Minute))
		r.Post("/v1/generate", app.Generate)
	})

	r.Route("/v1/workspaces", func(r chi.Router) {
		r.Get("/", app.ListWorkspaces)
		r.Post("/", app.SaveWorkspace)
		r.Post("/new", app.NewProject)
		r.Post("/{id}/load", app.LoadWorkspace)
		r.Post("/{id}/update", app.UpdateWorkspace)
		r.Delete("/{id}", app.DeleteWorkspace)
	})

	r.Post("/v1/confirm", app.Confirm)

	return r
}
