package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes events to a Kafka topic, keyed by participant so each
// participant's history stays ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ParticipantID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.ID, err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
