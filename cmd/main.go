package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"daily-squad/internal/auth"
	"daily-squad/internal/config"
	"daily-squad/internal/database"
	"daily-squad/internal/deadline"
	"daily-squad/internal/handlers"
	"daily-squad/internal/jobs"
	"daily-squad/internal/notify"
	"daily-squad/internal/repository"
	"daily-squad/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.Database.Dialect, cfg.GetDSN()); err != nil {
		fatal(logger, "Failed to connect to database", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		fatal(logger, "Failed to run migrations", err)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Outcome notifications
	notifiers := notify.Fanout{}
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := notify.NewRedisClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			fatal(logger, "Failed to connect to redis", err)
		}
		defer client.Close()
		notifiers = append(notifiers, notify.NewRedisNotifier(client, cfg.Redis.ChannelPrefix))
		logger.Info("Redis notifications enabled", "prefix", cfg.Redis.ChannelPrefix)
	}

	// Initialize services
	clock := deadline.SystemClock{}
	opts := services.OptionsFromConfig(cfg)
	opts.Clock = clock
	opts.Logger = logger
	opts.Metrics = services.NewMetrics(registry)
	opts.Notifier = notifiers

	repo := repository.NewRepository(database.GetDB())
	svc := services.New(repo, opts)

	// Start background jobs
	sweeper := jobs.NewDeadlineSweeper(svc.Outcomes, clock, logger, cfg.Schedule.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	lifecycleJob := jobs.NewLifecycleJob(svc.Lifecycle, clock, logger, cfg.Schedule.LifecycleInterval)
	lifecycleJob.Start()
	defer lifecycleJob.Stop()

	// Configure CORS
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router := handlers.NewRouter(svc, logger, handlers.RouterConfig{
		AllowedOrigins: allowedOrigins,
		Gatherer:       registry,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port, "dialect", cfg.Database.Dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
