package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "reliefledger", cfg.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.UsesDevSigningKey())
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "ledger.audit", cfg.Kafka.AuditTopic)
	assert.Equal(t, "reliefledger-audit", cfg.Kafka.ConsumerGroup)
	assert.Equal(t, 5, cfg.Kafka.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Kafka.BreakerCooldown)
	assert.Zero(t, cfg.AuditBuffer)
	assert.Zero(t, cfg.AuditReadSampleRate)
	assert.Equal(t, RateLimitConfig{Requests: 600, Window: time.Minute}, cfg.RateLimit)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		"LEDGER_ADDR":       ":9090",
		"ADMIN_TOKEN":       "admin-secret",
		"JWT_SIGNING_KEY":   "prod-key",
		"TOKEN_TTL":         "15m",
		"LOG_LEVEL":         "debug",
		"DATABASE_URL":      "postgres://ledger@db/ledger",
		"REDIS_URL":         "redis://cache:6379/0",
		"REDIS_POOL_SIZE":   "32",
		"KAFKA_BROKERS":     "k1:9092, k2:9092",
		"KAFKA_AUDIT_TOPIC": "audit",
		"AUDIT_BUFFER":      "512",

		"AUDIT_READ_SAMPLE_RATE": "0.25",
		"KAFKA_BREAKER_COOLDOWN": "1m",
		"RATE_LIMIT_REQUESTS":    "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "admin-secret", cfg.AdminToken)
	assert.False(t, cfg.UsesDevSigningKey())
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "postgres://ledger@db/ledger", cfg.DatabaseURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "audit", cfg.Kafka.AuditTopic)
	assert.Equal(t, 512, cfg.AuditBuffer)
	assert.InDelta(t, 0.25, cfg.AuditReadSampleRate, 1e-9)
	assert.Equal(t, time.Minute, cfg.Kafka.BreakerCooldown)
	assert.Zero(t, cfg.RateLimit.Requests)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad duration":    {"TOKEN_TTL": "forever"},
		"zero ttl":        {"TOKEN_TTL": "0s"},
		"bad integer":     {"REDIS_POOL_SIZE": "many"},
		"bad level":       {"LOG_LEVEL": "loud"},
		"negative buffer": {"AUDIT_BUFFER": "-1"},
		"bad sample rate": {"AUDIT_READ_SAMPLE_RATE": "often"},
		"sample rate > 1": {"AUDIT_READ_SAMPLE_RATE": "1.5"},
		"sample rate NaN": {"AUDIT_READ_SAMPLE_RATE": "NaN"},
		"sample rate Inf": {"AUDIT_READ_SAMPLE_RATE": "-Inf"},
		"zero threshold":  {"KAFKA_BREAKER_THRESHOLD": "0"},
		"zero window":     {"RATE_LIMIT_WINDOW": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := fromLookup(lookupFrom(env))
			assert.Error(t, err)
		})
	}
}
