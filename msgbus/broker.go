package msgbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is the envelope a domain event travels in once it has left the
// aggregate: first as a row in the outbox table, then as a message on the
// broker. Consumers never mutate the payload.
type OutboxEvent struct {
	EventID     uuid.UUID
	AggregateID uuid.UUID
	EventType   string
	Payload     json.RawMessage
	OccurredOn  time.Time
}

// Broker defines the interface for a message broker used to publish events.
type Broker interface {
	// Publish sends an event to a specific topic.
	Publish(ctx context.Context, topic string, evt OutboxEvent) error
	// Subscribe creates a subscription to a topic and handles incoming
	// messages using the provided handler function.
	Subscribe(
		ctx context.Context,
		topic, subscriberID string,
		handler func(ctx context.Context, evt OutboxEvent) error,
	) error
	// Close gracefully shuts down the broker connection.
	Close()
}
