// Package kafka mirrors committed world events onto a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/example/civitas/internal/ports/secondary"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Envelope is the JSON value written for every event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	CityID     string          `json:"city_id,omitempty"`
	AgentID    string          `json:"agent_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher implements secondary.EventPublisher with a Kafka writer.
type Publisher struct {
	w messageWriter
}

// NewPublisher creates a publisher writing to topic on the given brokers.
// Messages are keyed by city so each city's events stay ordered.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// Publish writes the events in order.
func (p *Publisher) Publish(ctx context.Context, events []*secondary.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		msg, err := BuildMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

// BuildMessage converts an event record into a Kafka message.
// Global events (no city) are keyed by their event ID.
func BuildMessage(e *secondary.EventRecord) (kafkago.Message, error) {
	payload := json.RawMessage(e.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	value, err := json.Marshal(Envelope{
		ID:         e.ID,
		Type:       e.Type,
		CityID:     e.CityID,
		AgentID:    e.AgentID,
		Payload:    payload,
		OccurredAt: e.OccurredAt.UTC(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("failed to encode event %s: %w", e.ID, err)
	}

	key := e.CityID
	if key == "" {
		key = e.ID
	}
	return kafkago.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafkago.Header{{Key: "event-type", Value: []byte(e.Type)}},
		Time:    e.OccurredAt,
	}, nil
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, []*secondary.EventRecord) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// Ensure Publisher implements the interface
var _ secondary.EventPublisher = (*Publisher)(nil)

// Ensure NoopPublisher implements the interface
var _ secondary.EventPublisher = NoopPublisher{}
