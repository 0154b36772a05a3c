package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/clinicstaff/internal/config"
	"github.com/nikhilbhutani/clinicstaff/internal/database"
	"github.com/nikhilbhutani/clinicstaff/internal/queue"
	"github.com/nikhilbhutani/clinicstaff/internal/queue/workers"
	"github.com/nikhilbhutani/clinicstaff/internal/webhook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database required for webhook delivery", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hooks := webhook.NewService(db, nil)
	dispatcher := webhook.NewDispatcher(hooks)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeWebhookDeliver, workers.NewWebhookWorker(hooks, dispatcher))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
