package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryanahadi/canteen-bot/config"
	"github.com/aryanahadi/canteen-bot/internal/bot"
	"github.com/aryanahadi/canteen-bot/internal/cache"
	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/metrics"
	"github.com/aryanahadi/canteen-bot/internal/repository"
	"github.com/aryanahadi/canteen-bot/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// Flood guard bounds: updates allowed per sender per window.
const (
	floodLimit  = 20
	floodWindow = 10 * time.Second
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Bring the database schema up to date before opening the pool.
	dsn := repository.DSN(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err := repository.RunMigrations(dsn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	// Initialize the redis client
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	const redisTimeout = 5 * time.Second
	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	if err = redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	cancel()

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb)

	// Seed the bootstrap administrator so a fresh deployment has somebody
	// who can define menus and register employees.
	if err = repo.EnsureAdmin(ctx, cfg.Admin.NationalID, cfg.Admin.Phone, cfg.Admin.FullName); err != nil {
		log.Fatalf("Failed to seed bootstrap admin: %v", err)
	}

	reservations := ledger.New(logger, repo)
	menuCache := cache.NewMenuCache(logger, redisClient, repo)
	floodGuard := cache.NewFloodGuard(redisClient, floodLimit, floodWindow)

	// Initialize the bot with logger, repositories, token, and poller timeout.
	canteenBot, err := bot.NewBot(
		logger, repo, repo, reservations, menuCache, floodGuard, appMetrics,
		cfg.Token, cfg.Language, cfg.PollerTimeout,
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	defer stop() // Ensure stop is called to release resources related to signal handling.
	defer dtb.Close()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the bot in a goroutine to allow main to listen for signals.
	go canteenBot.Start()

	// Start the monitoring server
	go server.StartMonitoringServer(ctx, logger, reg, dtb, redisClient, cfg.MonitorPort)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Stop the bot gracefully.
	canteenBot.Stop()

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
