package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riponahmed2201/taskmgr/internal/config"
	"github.com/riponahmed2201/taskmgr/internal/handlers"
	"github.com/riponahmed2201/taskmgr/internal/middleware"
	"github.com/riponahmed2201/taskmgr/internal/repo"
)

// newRouter wires repositories and handlers into the full chi router.
// All components are constructed here once and passed down explicitly;
// nothing reaches for globals.
func newRouter(database *sql.DB, cfg config.Config) chi.Router {
	userRepo := repo.NewUserRepo(database)
	taskRepo := repo.NewTaskRepo(database)
	auditRepo := repo.NewAuditRepo(database)

	secret := []byte(cfg.JWTSecret)

	authHandler := &handlers.AuthHandler{
		UserRepo: userRepo,
		Secret:   secret,
		TokenTTL: time.Duration(cfg.JWTExpireHours) * time.Hour,
	}
	taskHandler := &handlers.TaskHandler{Repo: taskRepo, AuditRepo: auditRepo}
	userHandler := &handlers.UserHandler{Repo: userRepo}
	auditHandler := &handlers.AuditHandler{Repo: auditRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := database.PingContext(req.Context()); err != nil {
			handlers.JSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ready")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public auth endpoints, rate limited per client IP
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	// Everything below requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWT(secret))
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Get("/{id}", taskHandler.GetTask)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Patch("/{id}/status", taskHandler.UpdateTaskStatus)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})

		r.Get("/users/me", userHandler.Me)
		r.Get("/audit", auditHandler.ListAudit)
	})

	return r
}
