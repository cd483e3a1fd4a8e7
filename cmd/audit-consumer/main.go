// Command audit-consumer drains the Kafka audit topic into Postgres.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"reliefledger/internal/platform/config"
	"reliefledger/internal/platform/kafka"
	"reliefledger/internal/platform/logger"
	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/platform/audit/consumer"
	auditpostgres "reliefledger/pkg/platform/audit/store/postgres"
)

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
		log.Error("audit consumer stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	store := auditpostgres.New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	c, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{cfg.Kafka.AuditTopic}, log)
	if err != nil {
		return err
	}
	defer c.Close()

	durable := consumer.NewDurableHandler(store, log)
	router := consumer.NewRouter(log, durable)
	router.Register(audit.CategoryCompliance, durable)
	router.Register(audit.CategorySecurity, durable)
	router.Register(audit.CategoryOperations, consumer.NewBestEffortHandler(store, log))

	log.Info("consuming audit topic",
		"topic", cfg.Kafka.AuditTopic,
		"group", cfg.Kafka.ConsumerGroup,
		"brokers", cfg.Kafka.Brokers,
	)
	return c.Run(ctx, router)
}
