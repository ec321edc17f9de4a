package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is an immutable fact produced by an aggregate, queued for
// asynchronous propagation through the outbox. Every instance carries its own
// unique id, so two payload-identical facts never collapse into one.
type DomainEvent interface {
	// ID returns the unique identifier of this fact.
	ID() uuid.UUID
	// AggregateID returns the id of the aggregate that produced the fact.
	AggregateID() uuid.UUID
	// EventType returns the string tag of the fact (e.g. "event-ticket-reserved").
	EventType() string
	// OccurredOn returns when the fact was produced.
	OccurredOn() time.Time
}

// BaseDomainEvent provides a common implementation of the DomainEvent
// identity accessors. Concrete events embed it.
type BaseDomainEvent struct {
	EvtID uuid.UUID `json:"id"`
	AggID uuid.UUID `json:"aggregate_id"`
	At    time.Time `json:"occurred_on"`
}

func (b BaseDomainEvent) ID() uuid.UUID          { return b.EvtID }
func (b BaseDomainEvent) AggregateID() uuid.UUID { return b.AggID }
func (b BaseDomainEvent) OccurredOn() time.Time  { return b.At }

// EventTicketReservedType tags the fact emitted on every successful reservation.
const EventTicketReservedType = "event-ticket-reserved"

// EventTicketReserved is emitted by Event.ReserveTicket once a spot has been
// taken. It references the new ticket, the event and the customer.
type EventTicketReserved struct {
	BaseDomainEvent
	EventTicketID TicketID   `json:"event_ticket_id"`
	EventID       EventID    `json:"event_id"`
	CustomerID    CustomerID `json:"customer_id"`
}

func (e EventTicketReserved) EventType() string { return EventTicketReservedType }

func newEventTicketReserved(ticket EventTicket) EventTicketReserved {
	return EventTicketReserved{
		BaseDomainEvent: BaseDomainEvent{
			EvtID: uuid.New(),
			AggID: ticket.EventID().UUID(),
			At:    time.Now().UTC(),
		},
		EventTicketID: ticket.EventTicketID(),
		EventID:       ticket.EventID(),
		CustomerID:    ticket.CustomerID(),
	}
}

func init() {
	RegisterDomainEvent(EventTicketReservedType, func() DomainEvent {
		return &EventTicketReserved{}
	})
}
