package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "reliefledger/pkg/platform/strings"
)

// Server captures process level configuration for the ledger host.
type Server struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	LogLevel      slog.Level
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	// AuditBuffer > 0 delivers audit events in the background.
	AuditBuffer int
	// AuditReadSampleRate > 0 records reads and keeps that fraction of them.
	AuditReadSampleRate float64
	RateLimit           RateLimitConfig
	ShutdownTimeout     time.Duration
}

// RateLimitConfig caps registry requests per actor. Requests <= 0 disables it.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RedisConfig is consumed by internal/platform/redis. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the streaming audit sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	ConsumerGroup string
	// BreakerThreshold consecutive failures open the sink circuit for BreakerCooldown.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numeric or duration values are reported instead of silently ignored.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	env := envReader{lookup: lookup}

	cfg := Server{
		Addr:          env.str("LEDGER_ADDR", ":8080"),
		AdminToken:    env.str("ADMIN_TOKEN", ""),
		JWTSigningKey: env.str("JWT_SIGNING_KEY", devSigningKey),
		JWTIssuer:     env.str("JWT_ISSUER", "reliefledger"),
		TokenTTL:      env.duration("TOKEN_TTL", 24*time.Hour),
		LogLevel:      env.level("LOG_LEVEL", slog.LevelInfo),
		DatabaseURL:   env.str("DATABASE_URL", ""),
		Redis: RedisConfig{
			URL:          env.str("REDIS_URL", ""),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:          platformstrings.SplitList(env.str("KAFKA_BROKERS", "")),
			AuditTopic:       env.str("KAFKA_AUDIT_TOPIC", "ledger.audit"),
			ConsumerGroup:    env.str("KAFKA_CONSUMER_GROUP", "reliefledger-audit"),
			BreakerThreshold: env.integer("KAFKA_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  env.duration("KAFKA_BREAKER_COOLDOWN", 30*time.Second),
		},
		AuditBuffer:         env.integer("AUDIT_BUFFER", 0),
		AuditReadSampleRate: env.float("AUDIT_READ_SAMPLE_RATE", 0),
		RateLimit: RateLimitConfig{
			Requests: env.integer("RATE_LIMIT_REQUESTS", 600),
			Window:   env.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if env.err != nil {
		return Server{}, env.err
	}
	if cfg.TokenTTL <= 0 {
		return Server{}, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.AuditBuffer < 0 {
		return Server{}, fmt.Errorf("AUDIT_BUFFER must not be negative, got %d", cfg.AuditBuffer)
	}
	if math.IsNaN(cfg.AuditReadSampleRate) || cfg.AuditReadSampleRate < 0 || cfg.AuditReadSampleRate > 1 {
		return Server{}, fmt.Errorf("AUDIT_READ_SAMPLE_RATE must be within [0, 1], got %g", cfg.AuditReadSampleRate)
	}
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window <= 0 {
		return Server{}, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimit.Window)
	}
	if cfg.Kafka.BreakerThreshold <= 0 {
		return Server{}, fmt.Errorf("KAFKA_BREAKER_THRESHOLD must be positive, got %d", cfg.Kafka.BreakerThreshold)
	}
	return cfg, nil
}

// UsesDevSigningKey reports whether JWT_SIGNING_KEY was left at its default.
func (s Server) UsesDevSigningKey() bool {
	return s.JWTSigningKey == devSigningKey
}

// envReader keeps the first parse error so FromEnv reads as a flat list.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid integer %q: %w", key, raw, err))
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid number %q: %w", key, raw, err))
		return def
	}
	return f
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid duration %q: %w", key, raw, err))
		return def
	}
	return d
}

func (e *envReader) level(key string, def slog.Level) slog.Level {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		e.fail(fmt.Errorf("%s: invalid log level %q: %w", key, raw, err))
		return def
	}
	return lvl
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
