package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joshua-takyi/studenthub/internal/config"
	"github.com/joshua-takyi/studenthub/internal/connect"
	"github.com/joshua-takyi/studenthub/internal/container"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting StudentHub API server", "environment", cfg.Environment)

	ctx := context.Background()

	supaClient, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")
	supa := models.SupabaseNewRepo(supaClient)

	pool, err := connect.PostgresConnect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Connected to Postgres successfully")

	backends := container.Backends{
		Store:    supa,
		Lodgings: models.PostgresNewRepo(pool),
		Images:   supa,
		Mailer:   connect.NewMailer(cfg, logger),
	}

	mongoClient := connectMongo(ctx, cfg, logger, &backends)

	rdb, err := connect.RedisConnect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("Rate limiting disabled", "error", err)
	} else {
		backends.Redis = rdb.Client
		logger.Info("Rate limiter ready", "embedded", rdb.Embedded())
	}

	publisher, err := connect.NewPublisher(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up chat relay", "driver", cfg.RelayDriver, "error", err)
		os.Exit(1)
	}
	backends.Publisher = publisher
	logger.Info("Chat relay ready", "driver", cfg.RelayDriver)

	appContainer, err := container.NewContainer(logger, cfg, backends)
	if err != nil {
		logger.Error("Failed to build application", "error", err)
		os.Exit(1)
	}

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("Error closing chat relay", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("Error closing Redis", "error", err)
		}
	}
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

// connectMongo enables lodging view analytics when MONGODB_URI is set. A
// failure leaves analytics off rather than stopping the server.
func connectMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *container.Backends) *mongo.Client {
	if cfg.MongoDBURI == "" {
		logger.Info("MONGODB_URI not set, lodging view analytics disabled")
		return nil
	}
	client, err := connect.MongoDBConnect(cfg.MongoDBURI)
	if err != nil {
		logger.Warn("Lodging view analytics disabled", "error", err)
		return nil
	}

	views := models.MongodbNewRepo(client, cfg.MongoDBDatabase)
	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := views.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("Failed to create lodging view indexes", "error", err)
	}
	b.Views = views
	logger.Info("Connected to MongoDB successfully")
	return client
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	level := parseLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
