package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

const dateLayout = "2006-01-02"

// EventRepository is the PostgreSQL implementation of domain.EventRepository.
// Create and Update persist the aggregate state, its tickets and the queued
// domain events (via the outbox store) in one transaction; Update performs an
// optimistic version check so two processes cannot both commit against the
// same loaded state.
type EventRepository struct {
	db     *DB
	outbox *OutboxStore
}

func NewEventRepository(db *DB, outbox *OutboxStore) *EventRepository {
	return &EventRepository{db: db, outbox: outbox}
}

// EventOfID loads and reconstructs the full aggregate, or returns nil when
// the id is unknown.
func (r *EventRepository) EventOfID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	q := r.db.querier(ctx)

	var (
		name       string
		date       time.Time
		totalSpots int
		partnerID  uuid.UUID
		version    int
	)
	row := q.QueryRow(ctx,
		`SELECT name, date, total_spots, partner_id, version FROM events WHERE id = $1`,
		id.UUID(),
	)
	if err := row.Scan(&name, &date, &totalSpots, &partnerID, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load event %s: %w", id, err)
	}

	tickets, err := r.ticketsOfEvent(ctx, q, id)
	if err != nil {
		return nil, err
	}

	event, err := domain.RestoreEvent(
		id.String(),
		name,
		date.Format(dateLayout),
		totalSpots,
		partnerID.String(),
		version,
		tickets,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restore event %s: %w", id, err)
	}
	return event, nil
}

func (r *EventRepository) ticketsOfEvent(
	ctx context.Context,
	q querier,
	id domain.EventID,
) ([]domain.EventTicket, error) {
	rows, err := q.Query(ctx, `
        SELECT id, customer_id, ordering, reserved_at, payment_ticket_id
        FROM event_tickets
        WHERE event_id = $1
        ORDER BY ordering ASC
    `, id.UUID())
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets for event %s: %w", id, err)
	}
	defer rows.Close()

	var tickets []domain.EventTicket
	for rows.Next() {
		var (
			ticketID   uuid.UUID
			customerID uuid.UUID
			ordering   int
			reservedAt time.Time
			paymentID  *uuid.UUID
		)
		if err := rows.Scan(&ticketID, &customerID, &ordering, &reservedAt, &paymentID); err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}

		tid, err := domain.ParseTicketID(ticketID.String())
		if err != nil {
			return nil, err
		}
		cid, err := domain.ParseCustomerID(customerID.String())
		if err != nil {
			return nil, err
		}
		var ptid *domain.TicketID
		if paymentID != nil {
			parsed, err := domain.ParseTicketID(paymentID.String())
			if err != nil {
				return nil, err
			}
			ptid = &parsed
		}

		ticket, err := domain.RestoreEventTicket(tid, id, cid, ordering, reservedAt, ptid)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Create persists a brand-new aggregate. It must be called within a
// transaction so the row and any queued domain events commit atomically.
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return fmt.Errorf("Create must be called within a transaction")
	}

	_, err := tx.Exec(ctx, `
        INSERT INTO events (id, name, date, total_spots, partner_id, version)
        VALUES ($1, $2, $3, $4, $5, $6)
    `,
		event.EventID().UUID(),
		event.Name(),
		event.Date(),
		event.TotalSpots(),
		event.PartnerID().UUID(),
		event.Version(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.EventID(), err)
	}

	if err := r.saveTicketsInTx(ctx, tx, event); err != nil {
		return err
	}
	return r.flushDomainEvents(ctx, event)
}

// Update persists the mutated aggregate. The version predicate makes the
// write conditional on the state the aggregate was loaded from; a mismatch
// surfaces as domain.ErrConcurrency and the caller retries the whole cycle.
func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return fmt.Errorf("Update must be called within a transaction")
	}

	cmdTag, err := tx.Exec(ctx, `
        UPDATE events
        SET name = $2, date = $3, total_spots = $4, version = version + 1
        WHERE id = $1 AND version = $5
    `,
		event.EventID().UUID(),
		event.Name(),
		event.Date(),
		event.TotalSpots(),
		event.Version(),
	)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.EventID(), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrConcurrency{
			Msg: fmt.Sprintf("event %s was modified concurrently", event.EventID()),
		}
	}

	if err := r.saveTicketsInTx(ctx, tx, event); err != nil {
		return err
	}
	return r.flushDomainEvents(ctx, event)
}

// saveTicketsInTx upserts the aggregate's tickets. Existing rows are left
// untouched; the unique constraints on (event_id, customer_id) and
// (event_id, ordering) are the database-level backstop for the aggregate's
// invariants.
func (r *EventRepository) saveTicketsInTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	tickets := event.AllTickets()
	if len(tickets) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	stmt := `
        INSERT INTO event_tickets (id, event_id, customer_id, ordering, reserved_at, payment_ticket_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO NOTHING
    `
	for _, t := range tickets {
		var paymentID *uuid.UUID
		if p := t.PaymentTicketID(); p != nil {
			v := p.UUID()
			paymentID = &v
		}
		b.Queue(stmt,
			t.EventTicketID().UUID(),
			t.EventID().UUID(),
			t.CustomerID().UUID(),
			t.Ordering(),
			t.ReservedAt(),
			paymentID,
		)
	}

	br := tx.SendBatch(ctx, b)
	defer br.Close()

	for range tickets {
		if _, err := br.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
				return domain.ErrConcurrency{Msg: fmt.Sprintf("concurrency error: %s", err.Error())}
			}
			return fmt.Errorf("failed to insert ticket into batch: %w", err)
		}
	}
	return br.Close()
}

// flushDomainEvents hands the queued facts to the outbox (same transaction)
// and acknowledges them on the aggregate.
func (r *EventRepository) flushDomainEvents(ctx context.Context, event *domain.Event) error {
	events := event.AllDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := r.outbox.SaveEvents(ctx, events); err != nil {
		return fmt.Errorf("failed to save domain events for event %s: %w", event.EventID(), err)
	}
	event.ClearDomainEvents()
	return nil
}
