// Package projection contains the downstream consumers of the outbox. They
// are idempotent: at-least-once delivery means the same fact may be handled
// more than once across retries, and the processed_events marker guards the
// effect.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/infra/postgres"
	"github.com/guilhermewiebbeling/ticketing/msgbus"
)

// EventViewProjection keeps the event_views read model (reserved tickets per
// event) up to date from EventTicketReserved facts.
type EventViewProjection struct {
	views *postgres.EventViewRepository
}

func NewEventViewProjection(views *postgres.EventViewRepository) *EventViewProjection {
	return &EventViewProjection{views: views}
}

// Handle decodes the outbox payload back into a typed fact and applies it to
// the read model. It is wrapped by handler.IdempotentEventHandler, so it runs
// inside a transaction and duplicates never reach the counter twice.
func (p *EventViewProjection) Handle(ctx context.Context, evt msgbus.OutboxEvent) error {
	decoded, err := domain.CreateDomainEvent(evt.EventType)
	if err != nil {
		// Unknown types are not ours to handle; dropping them is safe.
		slog.WarnContext(ctx, "Skipping unknown event type", "eventType", evt.EventType, "eventID", evt.EventID)
		return nil
	}
	if err := json.Unmarshal(evt.Payload, decoded); err != nil {
		return fmt.Errorf("failed to unmarshal payload of event %s: %w", evt.EventID, err)
	}

	reserved, ok := decoded.(*domain.EventTicketReserved)
	if !ok {
		return nil
	}

	if err := p.views.ApplyReservation(ctx, reserved.EventID.UUID()); err != nil {
		return err
	}

	slog.DebugContext(
		ctx,
		"Applied reservation to event view",
		"eventID",
		reserved.EventID,
		"ticketID",
		reserved.EventTicketID,
	)
	return nil
}
