// Package consumer drains the audit topic into a durable store.
package consumer

import (
	"context"
	"log/slog"

	"reliefledger/internal/platform/kafka"
	audit "reliefledger/pkg/platform/audit"
)

// Router dispatches messages by their category header.
type Router struct {
	handlers map[audit.EventCategory]kafka.Handler
	fallback kafka.Handler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback kafka.Handler) *Router {
	return &Router{
		handlers: make(map[audit.EventCategory]kafka.Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for one category.
func (r *Router) Register(category audit.EventCategory, handler kafka.Handler) {
	r.handlers[category] = handler
}

func (r *Router) Handle(ctx context.Context, msg *kafka.Message) error {
	category := audit.EventCategory(msg.Headers["category"])
	handler, ok := r.handlers[category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.WarnContext(ctx, "no handler for audit category, skipping message",
			"category", category,
			"key", string(msg.Key),
			"offset", msg.Offset,
		)
		return nil // commit so the partition keeps moving
	}
	return handler.Handle(ctx, msg)
}
