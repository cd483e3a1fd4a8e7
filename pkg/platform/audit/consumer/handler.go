package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"reliefledger/internal/platform/kafka"
	audit "reliefledger/pkg/platform/audit"
	kafkastore "reliefledger/pkg/platform/audit/store/kafka"
)

// StoreHandler decodes audit messages and appends them to a store.
// Malformed messages are logged and committed. Store failures stop the
// consumer unless the handler is best effort.
type StoreHandler struct {
	store      audit.Store
	logger     *slog.Logger
	bestEffort bool
}

// NewDurableHandler is used for compliance and security events: a store
// failure leaves the message uncommitted.
func NewDurableHandler(store audit.Store, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{store: store, logger: logger}
}

// NewBestEffortHandler is used for operations events: store failures are
// logged and the message is committed anyway.
func NewBestEffortHandler(store audit.Store, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{store: store, logger: logger, bestEffort: true}
}

func (h *StoreHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	event, err := kafkastore.Decode(msg.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "dropping malformed audit message",
			"key", string(msg.Key),
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	if err := h.store.Append(ctx, event); err != nil {
		if h.bestEffort {
			h.logger.WarnContext(ctx, "failed to store audit event",
				"event_id", event.ID,
				"action", event.Action,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("store audit event %s: %w", event.ID, err)
	}

	h.logger.DebugContext(ctx, "stored audit event",
		"event_id", event.ID,
		"action", event.Action,
		"record", event.AggregateKey(),
	)
	return nil
}
