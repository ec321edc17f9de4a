package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guilhermewiebbeling/ticketing/msgbus"
)

// Store defines the interface for interacting with the outbox storage.
// It abstracts the transactional behavior of processing a batch.
type Store interface {
	// ProcessOutboxBatch fetches a batch of unpublished events, processes them
	// using the provided function, and marks them as published, all within a
	// single transaction. If processFunc returns an error, the entire
	// transaction is rolled back and the events stay eligible for redelivery.
	ProcessOutboxBatch(
		ctx context.Context,
		batchSize int,
		processFunc func(ctx context.Context, events []msgbus.OutboxEvent) error,
	) error
}

// TopicMapper maps an event type to a message bus topic.
type TopicMapper func(eventType string) string

// Relay is a background worker that polls the outbox and publishes events.
// Delivery is at-least-once: a crash after publishing but before commit means
// the same events are fetched and published again on the next tick.
type Relay struct {
	store       Store
	broker      msgbus.Broker
	topicMapper TopicMapper
	batchSize   int
	interval    time.Duration
	workers     int
	wg          sync.WaitGroup
	quit        chan struct{}
}

// NewRelay creates a new Relay. workers bounds how many publishes of one
// batch run concurrently; multiple Relay instances may run side by side, the
// row locking in the store keeps them off each other's batches.
func NewRelay(
	store Store,
	broker msgbus.Broker,
	mapper TopicMapper,
	batchSize int,
	interval time.Duration,
	workers int,
) *Relay {
	if workers < 1 {
		workers = 1
	}
	return &Relay{
		store:       store,
		broker:      broker,
		topicMapper: mapper,
		batchSize:   batchSize,
		interval:    interval,
		workers:     workers,
		quit:        make(chan struct{}),
	}
}

// Start begins the relay's polling process in a separate goroutine.
func (r *Relay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		slog.InfoContext(ctx, "Outbox relay started", "batchSize", r.batchSize, "workers", r.workers)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.processBatch(ctx); err != nil {
					slog.ErrorContext(ctx, "Failed to process outbox batch", "error", err)
				}
			case <-r.quit:
				slog.InfoContext(ctx, "Outbox relay shutting down")
				return
			case <-ctx.Done():
				slog.InfoContext(ctx, "Context cancelled, outbox relay shutting down")
				return
			}
		}
	}()
}

// processBatch defines the logic for publishing events and passes it to the
// store to be executed within a transaction.
func (r *Relay) processBatch(ctx context.Context) error {
	processor := func(ctx context.Context, events []msgbus.OutboxEvent) error {
		if len(events) == 0 {
			return nil
		}
		slog.DebugContext(ctx, "Processing fetched events", "count", len(events))

		// Publishes fan out through a bounded pool. g.Go blocks once all
		// workers are busy, so a slow broker backpressures the relay instead
		// of piling up goroutines; nothing is ever dropped.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for _, evt := range events {
			topic := r.topicMapper(evt.EventType)
			if topic == "" {
				slog.WarnContext(
					ctx,
					"No topic mapped for event type, skipping",
					"eventType",
					evt.EventType,
					"eventID",
					evt.EventID,
				)
				continue
			}

			g.Go(func() error {
				if err := r.broker.Publish(gctx, topic, evt); err != nil {
					// Failing the group rolls back the transaction, so the
					// whole batch is redelivered later.
					return fmt.Errorf("failed to publish event %s to topic %s: %w", evt.EventID, topic, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Successfully published events to broker", "count", len(events))
		return nil
	}

	return r.store.ProcessOutboxBatch(ctx, r.batchSize, processor)
}

// Stop gracefully stops the relay.
func (r *Relay) Stop() {
	close(r.quit)
	r.wg.Wait()
}
