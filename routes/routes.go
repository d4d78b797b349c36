package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/property-listings/app"
	"github.com/upb/property-listings/handlers"
	"github.com/upb/property-listings/internal/observability"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/utils"
)

// sessionRoles may call every protected route
var sessionRoles = []string{string(models.RoleUser), string(models.RoleAdmin)}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if deps.Config.Observability.MetricsEnabled {
		r.Use(observability.HTTPMetrics)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", observability.MetricsHandler())
	}

	// Uploaded listing images
	r.Handle("/storage/*", http.StripPrefix("/storage", deps.Uploader.Handler()))

	users := handlers.NewUserHandler(deps.UserService, deps.Logger)
	listings := handlers.NewListingHandler(deps.ListingService, deps.Config.Storage.MaxUploadBytes, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimitMiddleware.PerClient("auth", deps.AuthBucket()))
			r.Post("/register", users.HandleRegister)
			r.Post("/login", users.HandleLogin)
		})
		r.Post("/token/refresh", users.HandleRefresh)

		// Session-guarded routes
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireSession(sessionRoles...))

			r.Get("/test", users.HandleProbe)
			r.Get("/me", users.HandleMe)
			r.Post("/logout", users.HandleLogout)

			r.Route("/listings", func(r chi.Router) {
				r.Get("/", listings.HandleList)
				r.Post("/create", listings.HandleCreate)
				r.Get("/{id}", listings.HandleGet)
				r.Put("/{id}", listings.HandleUpdate)
				r.Delete("/{id}", listings.HandleDelete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
