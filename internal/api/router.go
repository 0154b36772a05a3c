package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nikhilbhutani/clinicstaff/internal/api/handlers"
	"github.com/nikhilbhutani/clinicstaff/internal/api/middleware"
	"github.com/nikhilbhutani/clinicstaff/internal/audit"
	"github.com/nikhilbhutani/clinicstaff/internal/auth"
	"github.com/nikhilbhutani/clinicstaff/internal/config"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
	"github.com/nikhilbhutani/clinicstaff/internal/staff"
	"github.com/nikhilbhutani/clinicstaff/internal/webhook"
)

// Deps are the services the router mounts. Audit and Webhooks need a
// database and may be nil, in which case their routes are not mounted.
type Deps struct {
	Config   *config.Config
	Staff    *staff.Service
	Auth     *auth.JWTMiddleware
	Audit    *audit.Service
	Webhooks *webhook.Service
	Health   map[string]handlers.Pinger
}

type Router struct {
	mux     *chi.Mux
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		deps:    deps,
		limiter: middleware.NewRateLimiter(deps.Config.HTTP.RateLimitRPS, deps.Config.HTTP.RateLimitBurst),
	}
}

func (rt *Router) Close() {
	rt.limiter.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	cfg := rt.deps.Config

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	r.Use(rt.limiter.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.Health)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	resolver := rt.deps.Staff.Resolver()
	enforce := auth.NewEnforcer(resolver, cfg.Permissions.Enforce)
	canViewStaff := enforce.Require(permission.PermManageUsers, permission.LevelView)
	canEditStaff := enforce.Require(permission.PermManageUsers, permission.LevelEdit)
	canManageSettings := enforce.Require(permission.PermManageSettings, permission.LevelEdit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.deps.Auth.Authenticate)

		catalogH := handlers.NewCatalogHandler(resolver)
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogH.Catalog)
			r.Get("/roles/{role}/defaults", catalogH.RoleDefaults)
		})

		staffH := handlers.NewStaffHandler(rt.deps.Staff)
		r.Route("/staff", func(r chi.Router) {
			r.With(canViewStaff).Get("/", staffH.List)
			r.With(canEditStaff).Post("/", staffH.Create)
			r.With(canViewStaff).Get("/{id}", staffH.Get)
			r.With(canEditStaff).Put("/{id}", staffH.Update)
			r.With(canEditStaff).Delete("/{id}", staffH.Delete)
			r.With(canViewStaff).Get("/{id}/permissions", staffH.Permissions)
			r.With(canEditStaff).Patch("/{id}/permissions", staffH.ChangePermissions)
		})

		if rt.deps.Webhooks != nil {
			webhookH := handlers.NewWebhookHandler(rt.deps.Webhooks)
			r.Route("/webhooks", func(r chi.Router) {
				r.Use(canManageSettings)
				r.Post("/", webhookH.Create)
				r.Get("/", webhookH.List)
				r.Delete("/{id}", webhookH.Delete)
			})
		}

		if rt.deps.Audit != nil {
			adminH := handlers.NewAdminHandler(rt.deps.Audit)
			r.Route("/admin", func(r chi.Router) {
				r.Use(canViewStaff)
				r.Get("/audit", adminH.AuditLogs)
			})
		}
	})

	return r
}
