package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	SupabaseURL string
	SupabaseKey string
	DatabaseURL string

	MongoDBURI      string
	MongoDBDatabase string
	RedisURL        string

	JWTSecret       string
	JWTKeyID        string
	JWTPreviousKeys map[string]string
	SessionTTL      time.Duration
	MailTokenTTL    time.Duration

	CookieName   string
	CookieMaxAge time.Duration

	FrontendURL string
	CORSOrigins []string
	BodyLimit   int64

	// TrustedProxies are the IPs/CIDRs whose X-Forwarded-For is believed.
	// Empty means the client address is always the socket peer.
	TrustedProxies []string

	MailerSendAPIKey string
	MailFrom         string
	MailFromName     string

	RelayDriver   string
	PusherAppID   string
	PusherKey     string
	PusherSecret  string
	PusherCluster string
	NATSURL       string

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

var defaultOrigins = []string{
	"https://proyecto-ing-soft.pages.dev",
	"https://studenthubweb.me",
	"http://localhost:3000",
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),

		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBDatabase: getEnvWithDefault("MONGODB_DATABASE", "studenthub"),
		RedisURL:        os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTKeyID:  getEnvWithDefault("JWT_KEY_ID", "primary"),

		CookieName:  getEnvWithDefault("COOKIE_NAME", "token"),
		FrontendURL: strings.TrimRight(getEnvWithDefault("FRONTEND_URL", "https://studenthubweb.me"), "/"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS"), defaultOrigins),

		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES"), nil),

		MailerSendAPIKey: os.Getenv("MAILERSEND_API_KEY"),
		MailFrom:         getEnvWithDefault("MAIL_FROM", "noreply@studenthubweb.me"),
		MailFromName:     getEnvWithDefault("MAIL_FROM_NAME", "StudentHub"),

		RelayDriver:   strings.ToLower(getEnvWithDefault("RELAY_DRIVER", "auto")),
		PusherAppID:   os.Getenv("PUSHER_APP_ID"),
		PusherKey:     os.Getenv("PUSHER_KEY"),
		PusherSecret:  os.Getenv("PUSHER_SECRET"),
		PusherCluster: os.Getenv("PUSHER_CLUSTER"),
		NATSURL:       getEnvWithDefault("NATS_URL", "nats://localhost:4222"),
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.MailTokenTTL, err = durationEnv("MAIL_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CookieMaxAge, err = durationEnv("COOKIE_MAX_AGE", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = intEnv("RATE_LIMIT_REQUESTS", 10); err != nil {
		return nil, err
	}
	limit, err := intEnv("BODY_LIMIT", 100<<20)
	if err != nil {
		return nil, err
	}
	cfg.BodyLimit = int64(limit)

	if cfg.JWTPreviousKeys, err = parseKeys(os.Getenv("JWT_PREVIOUS_KEYS")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_KEY is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", proxy)
			}
		}
	}
	if _, clash := c.JWTPreviousKeys[c.JWTKeyID]; clash {
		return fmt.Errorf("JWT_PREVIOUS_KEYS reuses the current key id %q", c.JWTKeyID)
	}

	switch c.RelayDriver {
	case "auto":
		c.RelayDriver = "log"
		if c.PusherAppID != "" {
			c.RelayDriver = "pusher"
		}
	case "pusher":
		if c.PusherAppID == "" || c.PusherKey == "" || c.PusherSecret == "" {
			return fmt.Errorf("RELAY_DRIVER=pusher needs PUSHER_APP_ID, PUSHER_KEY and PUSHER_SECRET")
		}
	case "nats", "log":
	default:
		return fmt.Errorf("unknown RELAY_DRIVER %q (expected pusher, nats or log)", c.RelayDriver)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return n, nil
}

func splitList(raw string, def []string) []string {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseKeys reads "kid:secret,kid:secret".
func parseKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	for _, pair := range splitList(raw, nil) {
		kid, secret, ok := strings.Cut(pair, ":")
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("JWT_PREVIOUS_KEYS: malformed entry %q", pair)
		}
		keys[kid] = secret
	}
	return keys, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
