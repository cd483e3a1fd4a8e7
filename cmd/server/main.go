package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"reliefledger/internal/actortoken"
	"reliefledger/internal/actortoken/revocation"
	"reliefledger/internal/admin"
	"reliefledger/internal/platform/config"
	"reliefledger/internal/platform/httpserver"
	"reliefledger/internal/platform/kafka"
	"reliefledger/internal/platform/logger"
	platformredis "reliefledger/internal/platform/redis"
	"reliefledger/internal/ratelimit"
	"reliefledger/internal/registry"
	"reliefledger/internal/registry/metrics"
	"reliefledger/internal/registry/service"
	httptransport "reliefledger/internal/transport/http"
	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/audit/guard"
	"reliefledger/pkg/platform/audit/publisher"
	auditkafka "reliefledger/pkg/platform/audit/store/kafka"
	"reliefledger/pkg/platform/audit/store/memory"
	auditpostgres "reliefledger/pkg/platform/audit/store/postgres"
	"reliefledger/pkg/platform/circuit"
)

const revocationPurgeInterval = 10 * time.Minute

// TokenRevocationList is the store behind both the auth middleware and the
// admin revoke route.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("reliefledger stopped with error", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services and closes them in reverse order.
type infra struct {
	db       *sql.DB
	redis    *platformredis.Client
	producer *kafka.Producer
}

func (i *infra) Close() {
	if i.producer != nil {
		i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return in, fmt.Errorf("open postgres: %w", err)
		}
		in.db = db
		if err := db.PingContext(ctx); err != nil {
			return in, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("postgres connected")
	}

	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return in, err
	}
	in.redis = client
	if client != nil {
		log.Info("redis connected")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return in, err
		}
		in.producer = producer
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			return in, err
		}
		log.Info("kafka audit sink enabled", "topic", cfg.Kafka.AuditTopic, "brokers", cfg.Kafka.Brokers)
	}
	return in, nil
}

// auditStore fans out to Postgres and Kafka when configured. The Kafka sink
// sits behind a circuit breaker; reads are sampled when read auditing is on.
// The reader backs the admin trail query and is nil when only Kafka is set.
func auditStore(ctx context.Context, cfg config.Server, in *infra, log *slog.Logger, m *guard.Metrics) (audit.Store, admin.AuditReader, error) {
	var (
		sinks  audit.Tee
		reader admin.AuditReader
	)
	if in.db != nil {
		pg := auditpostgres.New(in.db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		reader = pg
	}
	if in.producer != nil {
		breaker := circuit.New("kafka",
			circuit.WithFailureThreshold(cfg.Kafka.BreakerThreshold),
			circuit.WithCooldown(cfg.Kafka.BreakerCooldown),
		)
		sinks = append(sinks, guard.NewBreakerStore(auditkafka.New(in.producer), breaker, log, m))
	}

	var store audit.Store
	switch len(sinks) {
	case 0:
		mem := memory.NewInMemoryStore()
		store, reader = mem, mem
	case 1:
		store = sinks[0]
	default:
		store = sinks
	}
	if cfg.AuditReadSampleRate > 0 {
		sampler := guard.NewSampler(1)
		sampler.SetRate(string(audit.EventRecordRead), cfg.AuditReadSampleRate)
		store = guard.NewSampledStore("audit", store, sampler, m)
	}
	return store, reader, nil
}

// revocationList prefers Redis, then Postgres, then a process-local list.
func revocationList(ctx context.Context, in *infra) (TokenRevocationList, *revocation.PostgresTRL, error) {
	if in.redis != nil {
		return revocation.NewRedisTRL(in.redis.Client), nil, nil
	}
	if in.db != nil {
		trl := revocation.NewPostgresTRL(in.db)
		if err := trl.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return trl, trl, nil
	}
	return revocation.NewInMemoryTRL(), nil, nil
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	if cfg.UsesDevSigningKey() {
		log.Warn("JWT_SIGNING_KEY not set, using development key")
	}
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set, admin routes are disabled")
	}

	in, err := connect(ctx, cfg, log)
	defer in.Close()
	if err != nil {
		return err
	}

	store, auditReader, err := auditStore(ctx, cfg, in, log, guard.NewMetrics())
	if err != nil {
		return err
	}
	pubOpts := []publisher.Option{publisher.WithLogger(log)}
	if cfg.AuditBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.AuditBuffer))
	}
	pub := publisher.NewPublisher(store, pubOpts...)
	defer pub.Close()

	trl, pgTRL, err := revocationList(ctx, in)
	if err != nil {
		return err
	}

	tokens := actortoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	health := map[string]httptransport.HealthCheck{}
	if in.db != nil {
		health["postgres"] = in.db.PingContext
	}
	if in.redis != nil {
		health["redis"] = in.redis.Health
	}
	if in.producer != nil {
		health["kafka"] = in.producer.Ping
	}

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithAuditPublisher(pub),
	}
	if cfg.AuditReadSampleRate > 0 {
		serviceOpts = append(serviceOpts, service.WithReadAudit())
	}

	adminOpts := []admin.Option{admin.WithAuditPublisher(pub)}
	if auditReader != nil {
		adminOpts = append(adminOpts, admin.WithAuditReader(auditReader))
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Requests > 0 {
		var store ratelimit.Store = ratelimit.NewInMemoryStore()
		if in.redis != nil {
			store = ratelimit.NewRedisStore(in.redis.Client)
		}
		limiter = ratelimit.NewLimiter(store, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Ledgers:        registry.NewLedgers(),
		ServiceOptions: serviceOpts,
		Validator:      actortoken.NewMiddlewareAdapter(tokens),
		Revocation:     trl,
		RateLimiter:    limiter,
		Admin:          admin.New(tokens, trl, cfg.AdminToken, cfg.TokenTTL, log, adminOpts...),
		Metrics:        promhttp.Handler(),
		Health:         health,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting reliefledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	if pgTRL != nil {
		g.Go(func() error {
			purgeRevocations(gctx, pgTRL, log)
			return nil
		})
	}
	return g.Wait()
}

func purgeRevocations(ctx context.Context, trl *revocation.PostgresTRL, log *slog.Logger) {
	ticker := time.NewTicker(revocationPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := trl.PurgeExpired(ctx)
			if err != nil {
				log.WarnContext(ctx, "failed to purge token revocations", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged expired token revocations", "count", n)
			}
		}
	}
}
