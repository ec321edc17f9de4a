package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventView is the read model maintained from EventTicketReserved facts.
type EventView struct {
	EventID   uuid.UUID
	Reserved  int
	UpdatedAt time.Time
}

// EventViewRepository maintains the event_views read model.
type EventViewRepository struct {
	db *DB
}

func NewEventViewRepository(db *DB) *EventViewRepository {
	return &EventViewRepository{db: db}
}

// ApplyReservation bumps the reserved counter for an event. It runs inside
// the ambient transaction of the idempotent handler.
func (r *EventViewRepository) ApplyReservation(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.db.querier(ctx).Exec(ctx, `
        INSERT INTO event_views (event_id, reserved, updated_at)
        VALUES ($1, 1, NOW())
        ON CONFLICT (event_id)
        DO UPDATE SET reserved = event_views.reserved + 1, updated_at = NOW()
    `, eventID)
	if err != nil {
		return fmt.Errorf("failed to apply reservation to event view %s: %w", eventID, err)
	}
	return nil
}

// ViewOfEvent loads the read model for an event, or nil when no reservation
// has been projected yet.
func (r *EventViewRepository) ViewOfEvent(ctx context.Context, eventID uuid.UUID) (*EventView, error) {
	var view EventView
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT event_id, reserved, updated_at FROM event_views WHERE event_id = $1`, eventID)
	if err := row.Scan(&view.EventID, &view.Reserved, &view.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load event view %s: %w", eventID, err)
	}
	return &view, nil
}
