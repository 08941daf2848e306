package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// RouterOptions carries the cross-cutting settings the router wires in.
type RouterOptions struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

// NewRouter assembles the HTTP surface around the handler app.
func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/motions", app.Motions)

	r.Post("/auth/signup", app.Signup)
	r.Post("/auth/login", app.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(app.JWTSecret))

		r.Get("/me", app.Me)
		r.Post("/assets", app.UploadAsset)
		r.Post("/jobs", app.SubmitJob)
		r.Get("/jobs/{id}", app.GetJob)
		r.Get("/accounts/{id}/jobs", app.ListAccountJobs)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/stats", app.AdminStats)
			r.Get("/accounts", app.AdminListAccounts)
			r.Post("/accounts/{id}/ban", app.AdminBan)
			r.Post("/accounts/{id}/coins", app.AdminGrantCoins)
		})
	})

	return r
}
