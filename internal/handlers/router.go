package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kd-debug/fix-my-ride/internal/middleware"
	"github.com/kd-debug/fix-my-ride/internal/models"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Auth        *middleware.AuthMiddleware
	RateLimit   *middleware.RateLimitMiddleware
	Users       *UserHandler
	Mechanics   *MechanicHandler
	Services    *ServiceHandler
	Health      *HealthHandler
	CORSOrigins []string
}

// NewRouter assembles the full route table.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("FixMyRide API is running"))
	})
	r.Method(http.MethodGet, "/health", deps.Health)
	r.Handle("/metrics", middleware.MetricsHandler())

	authn := deps.Auth.Authenticate
	adminOnly := deps.Auth.RequireRole(models.RoleAdmin)
	mechanicOnly := deps.Auth.RequireRole(models.RoleMechanic)
	loginRate := deps.RateLimit.RateLimit(20, 60)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(loginRate).Post("/", deps.Users.Register)
			r.With(loginRate).Post("/login", deps.Users.Login)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/profile", deps.Users.GetProfile)
				r.Put("/profile", deps.Users.UpdateProfile)
				r.With(adminOnly).Get("/", deps.Users.ListUsers)
			})
		})

		r.Route("/mechanics", func(r chi.Router) {
			r.Get("/", deps.Mechanics.ListApprovedMechanics)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/apply", deps.Mechanics.Apply)
				r.With(adminOnly).Get("/applications", deps.Mechanics.ListApplications)
				r.With(adminOnly).Put("/applications/{id}", deps.Mechanics.Decide)
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", deps.Services.Create)
			r.Get("/user", deps.Services.ListMine)
			r.With(mechanicOnly).Get("/pending", deps.Services.ListPending)
			r.With(mechanicOnly).Get("/mechanic/active", deps.Services.ListMechanicActive)
			r.With(mechanicOnly).Get("/mechanic/completed", deps.Services.ListMechanicCompleted)
			r.With(mechanicOnly).Put("/{id}/status", deps.Services.UpdateStatus)
			r.With(adminOnly).Get("/", deps.Services.ListAll)
		})
	})

	return r
}
