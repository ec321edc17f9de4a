package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/msgbus"
)

// OutboxStore implements the outbox.Store interface for PostgreSQL.
type OutboxStore struct {
	db *DB
}

func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// ProcessOutboxBatch handles the entire lifecycle of fetching, processing,
// and marking outbox events as published within a single, robust transaction.
func (s *OutboxStore) ProcessOutboxBatch(
	ctx context.Context,
	batchSize int,
	processFunc func(ctx context.Context, events []msgbus.OutboxEvent) error,
) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for processing outbox batch: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Fetch and lock a batch of events within the transaction.
	events, err := fetchAndLockUnpublishedInTx(ctx, tx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch and lock events: %w", err)
	}

	if len(events) == 0 {
		return nil // Nothing to do, commit the empty transaction.
	}

	// 2. Execute the provided processing logic (e.g., publishing to a broker).
	// If this function returns an error, the transaction will be rolled back.
	if err := processFunc(ctx, events); err != nil {
		return fmt.Errorf("event processing function failed: %w", err)
	}

	// 3. If processing was successful, mark the events as published.
	if err := markAsPublishedInTx(ctx, tx, events); err != nil {
		return fmt.Errorf("failed to mark events as published: %w", err)
	}

	// 4. Commit the transaction to finalize all changes.
	return tx.Commit(ctx)
}

// fetchAndLockUnpublishedInTx performs the SELECT ... FOR UPDATE. SKIP LOCKED
// keeps concurrent relay instances off each other's batches.
func fetchAndLockUnpublishedInTx(ctx context.Context, tx pgx.Tx, batchSize int) ([]msgbus.OutboxEvent, error) {
	query := `
        SELECT event_id, aggregate_id, event_type, payload, occurred_on
        FROM outbox
        WHERE published = FALSE
        ORDER BY occurred_on
        LIMIT $1
        FOR UPDATE SKIP LOCKED
    `
	rows, err := tx.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowToStructByPos[msgbus.OutboxEvent])
}

// markAsPublishedInTx updates the `published` flag.
func markAsPublishedInTx(ctx context.Context, tx pgx.Tx, events []msgbus.OutboxEvent) error {
	eventIDs := make([]uuid.UUID, len(events))
	for i, e := range events {
		eventIDs[i] = e.EventID
	}

	query := `UPDATE outbox SET published = TRUE WHERE event_id = ANY($1)`
	cmdTag, err := tx.Exec(ctx, query, eventIDs)
	if err != nil {
		return fmt.Errorf("failed to execute update for marking events as published: %w", err)
	}

	if cmdTag.RowsAffected() != int64(len(eventIDs)) {
		return fmt.Errorf(
			"consistency error: expected to mark %d events, but marked %d",
			len(eventIDs),
			cmdTag.RowsAffected(),
		)
	}

	return nil
}

// SaveEvents appends domain events to the outbox table. It must run within
// the same transaction as the aggregate save so a rollback of the
// reservation also removes the events.
func (s *OutboxStore) SaveEvents(ctx context.Context, events []domain.DomainEvent) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return fmt.Errorf("SaveEvents must be called within a transaction")
	}

	b := &pgx.Batch{}
	stmt := `
        INSERT INTO outbox (event_id, aggregate_id, event_type, payload, occurred_on)
        VALUES ($1, $2, $3, $4, $5)
    `
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload for event %s: %w", evt.ID(), err)
		}
		b.Queue(stmt, evt.ID(), evt.AggregateID(), evt.EventType(), payload, evt.OccurredOn())
	}

	br := tx.SendBatch(ctx, b)
	defer br.Close()

	for i := range len(events) {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert event #%d into outbox batch: %w", i+1, err)
		}
	}

	return br.Close()
}
