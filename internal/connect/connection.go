package connect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joshua-takyi/studenthub/internal/config"
	"github.com/joshua-takyi/studenthub/internal/mailer"
	"github.com/joshua-takyi/studenthub/internal/realtime"
)

// supabase init
func InitSupabase(url, key string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %v", err)
	}
	return client, nil
}

// PostgresConnect opens the pool used for transactional lodging writes.
func PostgresConnect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %v", err)
	}
	cfg.MinConns = 1
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %v", err)
	}
	return pool, nil
}

// mongo init

func MongoDBConnect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}
	return client, nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %v", err)
	}
	return nil
}

// Redis holds the rate limiter client and, without REDIS_URL, the embedded
// server behind it.
type Redis struct {
	Client   *redis.Client
	embedded *miniredis.Miniredis
}

// RedisConnect connects to REDIS_URL, or starts an in-process Redis when it is
// empty so limits still apply to a single instance.
func RedisConnect(ctx context.Context, url string) (*Redis, error) {
	if url == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		return &Redis{
			Client:   redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			embedded: mr,
		}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{Client: client}, nil
}

func (r *Redis) Embedded() bool {
	return r.embedded != nil
}

func (r *Redis) Close() error {
	err := r.Client.Close()
	if r.embedded != nil {
		r.embedded.Close()
	}
	return err
}

// NewMailer picks MailerSend when an API key is configured and the logging
// mailer otherwise.
func NewMailer(cfg *config.Config, logger *slog.Logger) mailer.Service {
	if cfg.MailerSendAPIKey == "" {
		return mailer.NewDevMailer(logger)
	}
	return mailer.NewMailerSend(cfg.MailerSendAPIKey, cfg.MailFromName, cfg.MailFrom)
}

// NewPublisher builds the chat relay named by RELAY_DRIVER.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (realtime.Publisher, error) {
	switch cfg.RelayDriver {
	case "pusher":
		return realtime.NewPusherPublisher(cfg.PusherAppID, cfg.PusherKey, cfg.PusherSecret, cfg.PusherCluster), nil
	case "nats":
		return realtime.NewNATSPublisher(cfg.NATSURL)
	case "log":
		return realtime.NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown relay driver %q", cfg.RelayDriver)
	}
}
