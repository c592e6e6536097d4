// Package kafka ships trail events to a Kafka topic for downstream
// compliance consumers. The local store stays authoritative; Kafka is the
// fan-out transport.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"subvene/pkg/platform/audit"
)

// Sink publishes trail events to a single topic, keyed by subsidy ID so all
// events for one subsidy land in order on one partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the topic exists. Topic creation is
// idempotent; an already-exists response is not an error.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 3, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, err)
	}
	if err := topicCreateErr(resp); err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, err)
	}

	return &Sink{client: client, topic: topic}, nil
}

// topicCreateErr tolerates the topic already existing.
func topicCreateErr(resp kadm.CreateTopicResponse) error {
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// record builds the produce record for one event, keyed by subsidy ID.
func (s *Sink) record(event audit.Event) (*kgo.Record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal trail event: %w", err)
	}
	return &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SubsidyID.String()),
		Value: payload,
	}, nil
}

// Publish sends one event and waits for the broker ack.
func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	record, err := s.record(event)
	if err != nil {
		return err
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce trail event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
