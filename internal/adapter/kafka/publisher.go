// Package kafka fans decoded observations out to a Kafka topic after each
// refresh.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes one message per observation to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSnapshot serializes every observation in snap, in key order, and
// publishes them in a single WriteMessages call. It returns the number of
// messages written.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap domain.Snapshot) (int, error) {
	keys := snap.Observations.Keys()
	if len(keys) == 0 {
		return 0, nil
	}
	msgs := make([]kafkago.Message, len(keys))
	for i, key := range keys {
		msg, err := serializeToMessage(key, snap.Observations[key], snap)
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish observations: %w", err)
	}
	p.logger.Debug("observations published", "count", len(msgs), "generation", snap.Generation)
	return len(msgs), nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Observation into a Kafka message keyed by
// its catalog station key, so one station always lands on one partition.
func serializeToMessage(key string, obs domain.Observation, snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: %w", key, err)
	}
	return kafkago.Message{
		Key:   []byte(domain.StationKey(key)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "generation", Value: []byte(snap.Generation)},
			{Key: "refreshed_at", Value: []byte(snap.RefreshedAt.Format(time.RFC3339))},
		},
	}, nil
}
