//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	platformkafka "reliefledger/internal/platform/kafka"
	audit "reliefledger/pkg/platform/audit"
	auditkafka "reliefledger/pkg/platform/audit/store/kafka"
	"reliefledger/pkg/testutil/containers"
)

func TestStore_ProducesToRedpanda(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "ledger.audit.test"
	producer, err := platformkafka.NewProducer([]string{broker.Broker}, topic)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1))
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1), "second call must tolerate an existing topic")

	store := auditkafka.New(producer)
	require.NoError(t, store.Append(ctx, audit.Event{
		Registry: "equipment",
		RecordID: 1,
		Actor:    "ST1",
		Owner:    "ST1",
		Action:   string(audit.EventRecordCreated),
		Status:   "available",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "equipment/1", string(records[0].Key))
	var msg auditkafka.Message
	require.NoError(t, json.Unmarshal(records[0].Value, &msg))
	assert.Equal(t, "record_created", msg.Action)
	assert.Equal(t, "compliance", msg.Category)
}
