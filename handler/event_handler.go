package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/guilhermewiebbeling/ticketing/msgbus"
)

// IdempotencyStore defines the interface for checking and storing processed event IDs.
type IdempotencyStore interface {
	IsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) (bool, error)
	MarkAsProcessed(ctx context.Context, eventID uuid.UUID, subscriberID string) error
}

// TransactionalHandler defines a function that executes business logic within a transaction.
type TransactionalHandler func(ctx context.Context) error

// Transactor defines an interface for an object that can execute a function within a transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn TransactionalHandler) error
}

// IdempotentEventHandler is a decorator that wraps a subscriber's business
// logic with idempotency checks and retry logic. Because outbox delivery is
// at-least-once, the same fact may arrive more than once; this handler makes
// redelivery harmless.
type IdempotentEventHandler struct {
	subscriberID   string
	store          IdempotencyStore
	transactor     Transactor
	handler        func(ctx context.Context, evt msgbus.OutboxEvent) error
	maxElapsedTime time.Duration
}

// HandlerOption is a function that configures an IdempotentEventHandler.
type HandlerOption func(*IdempotentEventHandler)

// WithMaxElapsedTime is an option to provide a custom backoff max elapsed time.
func WithMaxElapsedTime(maxElapsedTime time.Duration) HandlerOption {
	return func(h *IdempotentEventHandler) {
		h.maxElapsedTime = maxElapsedTime
	}
}

// NewIdempotentEventHandler creates a new idempotent event handler.
func NewIdempotentEventHandler(
	subscriberID string,
	store IdempotencyStore,
	transactor Transactor,
	handler func(ctx context.Context, evt msgbus.OutboxEvent) error,
	opts ...HandlerOption,
) *IdempotentEventHandler {
	h := &IdempotentEventHandler{
		subscriberID:   subscriberID,
		store:          store,
		transactor:     transactor,
		handler:        handler,
		maxElapsedTime: 1 * time.Minute,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Handle processes an event with idempotency and retry logic.
func (h *IdempotentEventHandler) Handle(ctx context.Context, evt msgbus.OutboxEvent) error {
	// 1. Idempotency check.
	isProcessed, err := h.store.IsProcessed(ctx, evt.EventID, h.subscriberID)
	if err != nil {
		return fmt.Errorf("failed to check for event idempotency: %w", err)
	}
	if isProcessed {
		slog.WarnContext(ctx, "Event already processed, skipping", "eventID", evt.EventID, "subscriber", h.subscriberID)
		return nil
	}

	// 2. Retry with exponential backoff.
	operation := func() (any, error) {
		// 3. Business logic and the processed marker commit atomically.
		txErr := h.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := h.handler(txCtx, evt); err != nil {
				return fmt.Errorf("handler business logic failed: %w", err)
			}
			if err := h.store.MarkAsProcessed(txCtx, evt.EventID, h.subscriberID); err != nil {
				return fmt.Errorf("failed to mark event as processed: %w", err)
			}
			return nil
		})

		if txErr != nil && errors.Is(txErr, context.Canceled) {
			return nil, backoff.Permanent(txErr)
		}
		return nil, txErr
	}

	bo := backoff.NewExponentialBackOff()

	_, err = backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxElapsedTime(h.maxElapsedTime))
	if err != nil {
		slog.ErrorContext(
			ctx,
			"Failed to process event after multiple retries",
			"error",
			err,
			"eventID",
			evt.EventID,
			"subscriber",
			h.subscriberID,
		)
		// Return the error so the message is NAK'd and redelivered.
		return err
	}

	slog.InfoContext(
		ctx,
		"Event processed successfully by idempotent handler",
		"eventID",
		evt.EventID,
		"subscriber",
		h.subscriberID,
	)
	return nil
}
