package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("DATABASE_URL", "postgres://localhost/studenthub")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "token", cfg.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.CookieMaxAge)
	assert.Equal(t, time.Hour, cfg.MailTokenTTL)
	assert.Zero(t, cfg.SessionTTL)
	assert.Equal(t, defaultOrigins, cfg.CORSOrigins)
	assert.Equal(t, "log", cfg.RelayDriver)
	assert.Equal(t, int64(100<<20), cfg.BodyLimit)
	assert.Empty(t, cfg.JWTPreviousKeys)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	for _, key := range []string{"SUPABASE_URL", "SUPABASE_KEY", "DATABASE_URL", "JWT_SECRET"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")
			_, err := LoadConfig()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoadConfigRelayDriver(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    string
		wantErr bool
	}{
		{name: "auto picks pusher", env: map[string]string{"PUSHER_APP_ID": "1"}, want: "pusher"},
		{name: "explicit nats", env: map[string]string{"RELAY_DRIVER": "NATS"}, want: "nats"},
		{name: "pusher without credentials", env: map[string]string{"RELAY_DRIVER": "pusher"}, wantErr: true},
		{name: "unknown", env: map[string]string{"RELAY_DRIVER": "carrier-pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.RelayDriver)
		})
	}
}

func TestLoadConfigPreviousKeys(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_PREVIOUS_KEYS", "2024:old-secret, 2023:older")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024": "old-secret", "2023": "older"}, cfg.JWTPreviousKeys)

	t.Setenv("JWT_PREVIOUS_KEYS", "primary:clash")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_PREVIOUS_KEYS", "no-colon")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigCustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("FRONTEND_URL", "https://front.example/")
	t.Setenv("RATE_LIMIT_REQUESTS", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "https://front.example", cfg.FrontendURL)
	assert.Equal(t, 3, cfg.RateLimitRequests)

	t.Setenv("SESSION_TTL", "forever")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigTrustedProxies(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "loadbalancer")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
