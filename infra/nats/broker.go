package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/guilhermewiebbeling/ticketing/msgbus"
)

// NATSBroker is an implementation of the msgbus.Broker interface using NATS JetStream.
type NATSBroker struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNATSBroker creates a new NATSBroker instance.
func NewNATSBroker(url string) (*NATSBroker, error) {
	nc, err := nats.Connect(
		url,
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSBroker{conn: nc, js: js}, nil
}

// Publish sends an event to a NATS topic.
func (b *NATSBroker) Publish(ctx context.Context, topic string, evt msgbus.OutboxEvent) error {
	// Ensure the stream exists for the topic
	streamName := topic
	_, err := b.js.StreamInfo(streamName)
	if err != nil {
		if err == nats.ErrStreamNotFound {
			slog.InfoContext(ctx, "Stream not found, creating it", "stream", streamName)
			_, err = b.js.AddStream(&nats.StreamConfig{
				Name:     streamName,
				Subjects: []string{fmt.Sprintf("%s.*", streamName)},
			})
			if err != nil {
				return fmt.Errorf("failed to create stream %s: %w", streamName, err)
			}
		} else {
			return fmt.Errorf("failed to get stream info for %s: %w", streamName, err)
		}
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	// Use the aggregate id as the subject suffix so one event's facts stay
	// ordered within a partition.
	// Example subject: event-tickets.c7c0b6f2-7a7e-4b2a-8f3b-5e4e2a1e0b5e
	subject := fmt.Sprintf("%s.%s", topic, evt.AggregateID.String())

	_, err = b.js.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	slog.DebugContext(ctx, "Event published successfully", "topic", topic, "subject", subject, "eventID", evt.EventID)
	return nil
}

// Subscribe creates a durable, pull-based subscription.
func (b *NATSBroker) Subscribe(
	ctx context.Context,
	topic, subscriberID string,
	handler func(context.Context, msgbus.OutboxEvent) error,
) error {
	streamName := topic
	consumerName := fmt.Sprintf("%s-%s", topic, subscriberID)

	// A durable consumer resumes from where it left off after a restart.
	sub, err := b.js.PullSubscribe(
		fmt.Sprintf("%s.*", streamName),
		consumerName,
		nats.PullMaxWaiting(128),
	)
	if err == nats.ErrNoMatchingStream {
		slog.InfoContext(ctx, "Stream not found, creating it", "stream", streamName)
		if _, err = b.js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{fmt.Sprintf("%s.*", streamName)},
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
		sub, err = b.js.PullSubscribe(
			fmt.Sprintf("%s.*", streamName),
			consumerName,
			nats.PullMaxWaiting(128),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to create pull subscription: %w", err)
	}

	go func() {
		slog.InfoContext(ctx, "Subscriber started", "topic", topic, "subscriberID", subscriberID)
		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "Subscriber stopping", "topic", topic, "subscriberID", subscriberID)
				return
			default:
				msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
				if err != nil {
					if err != nats.ErrTimeout {
						slog.ErrorContext(ctx, "Failed to fetch messages", "error", err, "topic", topic)
					}
					continue
				}

				for _, msg := range msgs {
					var evt msgbus.OutboxEvent
					if err := json.Unmarshal(msg.Data, &evt); err != nil {
						slog.ErrorContext(ctx, "Failed to unmarshal event, skipping", "error", err, "topic", topic)
						msg.Nak()
						continue
					}

					if err := handler(ctx, evt); err != nil {
						slog.ErrorContext(ctx, "Handler failed to process event", "error", err, "eventID", evt.EventID)
						msg.Nak()
					} else {
						msg.Ack()
					}
				}
			}
		}
	}()

	return nil
}

// Close gracefully closes the NATS connection.
func (b *NATSBroker) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}
