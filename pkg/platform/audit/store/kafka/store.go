// Package kafka streams audit events to a Kafka topic, keyed by record so one
// record's trail stays ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "reliefledger/pkg/platform/audit"
)

// Producer is the subset of the platform producer the store needs.
type Producer interface {
	Produce(ctx context.Context, key, value []byte, headers map[string]string) error
}

type Store struct {
	producer Producer
}

func New(producer Producer) *Store {
	return &Store{producer: producer}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	msg := NewMessage(event)
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}
	headers := map[string]string{
		"event_type": msg.Action,
		"category":   msg.Category,
	}
	if err := s.producer.Produce(ctx, []byte(event.AggregateKey()), value, headers); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
