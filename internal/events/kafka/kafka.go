// Package kafka publishes events to Kafka-compatible brokers with franz-go.
// Each event topic maps to one Kafka topic named prefix+topic; records are
// keyed by event id and produced asynchronously.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"syncvault/internal/events"
	"syncvault/internal/platform/config"
	"syncvault/pkg/platform/circuit"
)

// ErrCircuitOpen is returned by Publish while the broker is failing.
var ErrCircuitOpen = errors.New("kafka circuit open")

// Publisher produces events to Kafka.
type Publisher struct {
	client  *kgo.Client
	prefix  string
	logger  *slog.Logger
	breaker *circuit.Breaker
}

// New connects to the configured brokers.
func New(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{
		client:  client,
		prefix:  cfg.TopicPrefix,
		logger:  logger,
		breaker: circuit.New("kafka", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
	}, nil
}

// TopicName returns the Kafka topic an event topic is written to.
func (p *Publisher) TopicName(topic events.Topic) string {
	return p.prefix + string(topic)
}

// EnsureTopics creates every event topic, treating existing topics as success.
func (p *Publisher) EnsureTopics(ctx context.Context, partitions int32, replicationFactor int16) error {
	names := make([]string, 0, len(events.AllTopics))
	for _, t := range events.AllTopics {
		names = append(names, p.TopicName(t))
	}

	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, names...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range resps {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Publish enqueues the event and returns without waiting for the broker.
// Delivery failures are logged by the produce callback and feed the circuit
// breaker; while it is open events are dropped with ErrCircuitOpen.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	record := &kgo.Record{
		Topic: p.TopicName(event.Topic),
		Key:   []byte(event.ID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "topic", Value: []byte(event.Topic)},
			{Key: "request_id", Value: []byte(event.RequestID)},
		},
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		p.recordDelivery(r.Topic, event.ID, err)
	})
	return nil
}

func (p *Publisher) recordDelivery(topic, eventID string, err error) {
	if err == nil {
		if _, change := p.breaker.RecordSuccess(); change.Closed && p.logger != nil {
			p.logger.Info("kafka circuit closed")
		}
		return
	}
	_, change := p.breaker.RecordFailure()
	if p.logger == nil {
		return
	}
	p.logger.Warn("kafka produce failed",
		"topic", topic,
		"event_id", eventID,
		"error", err,
	)
	if change.Opened {
		p.logger.Error("kafka circuit opened, dropping events until the broker recovers")
	}
}

// Close flushes buffered records and closes the client.
func (p *Publisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
