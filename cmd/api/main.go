package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/civreg-backend/api/routes"
	"github.com/angelmondragon/civreg-backend/internal/assignment"
	"github.com/angelmondragon/civreg-backend/internal/conflict"
	"github.com/angelmondragon/civreg-backend/internal/dedup"
	"github.com/angelmondragon/civreg-backend/internal/drafts"
	"github.com/angelmondragon/civreg-backend/internal/events"
	"github.com/angelmondragon/civreg-backend/pkg/config"
	"github.com/angelmondragon/civreg-backend/pkg/db"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
	"github.com/angelmondragon/civreg-backend/pkg/metrics"
	"github.com/angelmondragon/civreg-backend/pkg/migrate"
	"github.com/angelmondragon/civreg-backend/pkg/outbox"
	"github.com/angelmondragon/civreg-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	guard, err := conflict.NewGuard(redisClient, cfg.ConflictGuard)
	if err != nil {
		logg.Error(context.Background(), "failed to create conflict guard", err)
		os.Exit(1)
	}

	actionMetrics := metrics.NewActionMetrics(prometheus.DefaultRegisterer)

	eventRepo := events.NewRepository(dbClient.DB())
	taskRepo := assignment.NewRepository(dbClient.DB())
	draftRepo := drafts.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	assignmentService := assignment.NewService(taskRepo, eventRepo, dbClient, outboxService, logg)

	eventService := events.NewService(events.Deps{
		Repo:        eventRepo,
		Tasks:       taskRepo,
		Drafts:      draftRepo,
		Tx:          dbClient,
		Guard:       guard,
		Dedup:       dedup.NewEngine(dedup.NewProvider(dbClient.DB()), nil, cfg.Dedup, actionMetrics),
		Assignments: assignmentService,
		Outbox:      outboxService,
		Metrics:     actionMetrics,
		Logger:      logg,
	})

	draftService := drafts.NewService(draftRepo, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, eventService, draftService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
