package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/clinicstaff/internal/api"
	"github.com/nikhilbhutani/clinicstaff/internal/api/handlers"
	"github.com/nikhilbhutani/clinicstaff/internal/audit"
	"github.com/nikhilbhutani/clinicstaff/internal/auth"
	"github.com/nikhilbhutani/clinicstaff/internal/cache"
	"github.com/nikhilbhutani/clinicstaff/internal/config"
	"github.com/nikhilbhutani/clinicstaff/internal/database"
	"github.com/nikhilbhutani/clinicstaff/internal/directory"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
	"github.com/nikhilbhutani/clinicstaff/internal/queue"
	"github.com/nikhilbhutani/clinicstaff/internal/staff"
	"github.com/nikhilbhutani/clinicstaff/internal/tenant"
	"github.com/nikhilbhutani/clinicstaff/internal/webhook"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	health := map[string]handlers.Pinger{}

	resolver := permission.NewResolver(permission.DefaultMatrix(), cfg.Permissions.Mode)

	var (
		store    directory.Directory
		tenants  auth.TenantLookup
		auditSvc *audit.Service
		hooks    *webhook.Service
		opts     []staff.Option
	)

	// Without DATABASE_URL staff live in memory. A configured but
	// unreachable database is fatal.
	inMemory := cfg.Database.URL == ""
	if inMemory {
		slog.Warn("DATABASE_URL not set, using in-memory staff directory")
		store = directory.NewMemory()
		tenants = tenant.Unchecked{}
	} else {
		db, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		health["database"] = db

		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Warn("migrations failed", "error", err)
		}

		store = directory.NewPostgres(db)
		tenants = tenant.NewService(db)

		queueClient := queue.NewClient(cfg.Redis)
		defer queueClient.Close()

		auditSvc = audit.NewService(db)
		hooks = webhook.NewService(db, queueClient)
		opts = append(opts, staff.WithAuditor(auditSvc), staff.WithNotifier(hooks))
	}

	store = directory.NewRetrying(store, directory.RetryPolicy{
		MaxRetries: cfg.Directory.MaxRetries,
		BaseDelay:  cfg.Directory.RetryBase,
		MaxDelay:   cfg.Directory.RetryMax,
	})

	// Redis connection (optional)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without staff cache", "error", err)
	} else {
		health["redis"] = pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		if cfg.Directory.CacheTTL > 0 {
			store = directory.NewCached(store, cache.NewCache(rdb, "clinicstaff:"), cfg.Directory.CacheTTL)
		}
	}

	staffSvc := staff.NewService(store, resolver, opts...)

	if inMemory {
		if cfg.Bootstrap.AdminID == uuid.Nil {
			slog.Warn("no BOOTSTRAP_ADMIN_ID set, no staff member can authenticate against the in-memory directory")
		} else {
			admin, err := staffSvc.Bootstrap(ctx, cfg.Bootstrap.TenantID, cfg.Bootstrap.AdminID, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail)
			if err != nil {
				slog.Error("failed to seed bootstrap admin", "error", err)
				os.Exit(1)
			}
			slog.Info("seeded bootstrap admin", "user_id", admin.ID, "tenant_id", admin.TenantID)
		}
	}

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Staff:    staffSvc,
		Auth:     auth.NewJWTMiddleware(cfg.Auth.JWTSecret, tenants, store),
		Audit:    auditSvc,
		Webhooks: hooks,
		Health:   health,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "permission_mode", cfg.Permissions.Mode, "enforce", cfg.Permissions.Enforce)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
