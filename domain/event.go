package domain

import (
	"strings"
	"sync"
	"time"
)

// dateLayout is the ISO-8601 calendar date format accepted for event dates.
const dateLayout = "2006-01-02"

// Event is the aggregate root of the reservation model. It owns its set of
// reserved tickets and enforces the capacity and duplicate-customer
// invariants:
//
//   - len(tickets) never exceeds totalSpots,
//   - no two tickets share a customer,
//   - ticket orderings are exactly 1..len(tickets), assigned in commit order.
//
// ReserveTicket is the only mutator of the ticket set and is guarded by a
// per-instance mutex. Serialization of the whole load-mutate-save cycle
// across instances is the caller's concern (see keylock and the postgres
// repository's version check).
type Event struct {
	mu           sync.Mutex
	eventID      EventID
	name         string
	date         time.Time
	totalSpots   int
	partnerID    PartnerID
	version      int
	tickets      []EventTicket
	domainEvents []DomainEvent
}

// NewEvent creates a brand-new Event with a fresh identity. The name must be
// non-empty, the date an ISO-8601 calendar date, totalSpots positive and the
// partner present.
func NewEvent(name, date string, totalSpots int, partner *Partner) (*Event, error) {
	if partner == nil {
		return nil, invalidField("partnerId", "Event")
	}
	return newEvent(NewEventID(), name, date, totalSpots, partner.PartnerID(), 1, nil)
}

// RestoreEvent rehydrates an Event from persisted state. Business history is
// not re-validated, but the field constraints still apply. This is the
// deserialization path used by the repository.
func RestoreEvent(
	id, name, date string,
	totalSpots int,
	partnerID string,
	version int,
	tickets []EventTicket,
) (*Event, error) {
	eventID, err := ParseEventID(id)
	if err != nil {
		return nil, err
	}
	pid, err := ParsePartnerID(partnerID)
	if err != nil {
		return nil, invalidField("partnerId", "Event")
	}
	return newEvent(eventID, name, date, totalSpots, pid, version, tickets)
}

func newEvent(
	id EventID,
	name, date string,
	totalSpots int,
	partnerID PartnerID,
	version int,
	tickets []EventTicket,
) (*Event, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidField("name", "Event")
	}
	if date == "" {
		return nil, invalidField("date", "Event")
	}
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, invalidField("date", "Event")
	}
	if totalSpots < 1 {
		return nil, invalidField("totalSpots", "Event")
	}
	if partnerID.IsZero() {
		return nil, invalidField("partnerId", "Event")
	}
	return &Event{
		eventID:    id,
		name:       name,
		date:       parsed,
		totalSpots: totalSpots,
		partnerID:  partnerID,
		version:    version,
		tickets:    tickets,
	}, nil
}

// ReserveTicket reserves one spot for the given customer. The duplicate
// check runs before the capacity check: a customer who already holds a
// ticket in a sold-out event still gets "Ticket already registered". On
// success the new ticket is appended with ordering len(tickets)+1 and an
// EventTicketReserved fact is queued. No mutation is observable on failure.
func (e *Event) ReserveTicket(customerID CustomerID) (EventTicket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.tickets {
		if t.CustomerID() == customerID {
			return EventTicket{}, NewValidationError("Ticket already registered")
		}
	}
	if e.totalSpots < len(e.tickets)+1 {
		return EventTicket{}, NewValidationError("Event sold out")
	}

	ticket := newEventTicket(e.eventID, customerID, len(e.tickets)+1)
	e.tickets = append(e.tickets, ticket)
	e.domainEvents = append(e.domainEvents, newEventTicketReserved(ticket))
	return ticket, nil
}

func (e *Event) EventID() EventID     { return e.eventID }
func (e *Event) Name() string         { return e.name }
func (e *Event) Date() time.Time      { return e.date }
func (e *Event) TotalSpots() int      { return e.totalSpots }
func (e *Event) PartnerID() PartnerID { return e.partnerID }
func (e *Event) Version() int         { return e.version }

// AllTickets returns a copy of the reserved tickets in ordering sequence.
func (e *Event) AllTickets() []EventTicket {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]EventTicket, len(e.tickets))
	copy(out, e.tickets)
	return out
}

// AllDomainEvents returns a copy of the facts queued since the last save.
func (e *Event) AllDomainEvents() []DomainEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]DomainEvent, len(e.domainEvents))
	copy(out, e.domainEvents)
	return out
}

// ClearDomainEvents acknowledges queued facts after the repository has
// handed them to the outbox. Only the save path calls it.
func (e *Event) ClearDomainEvents() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.domainEvents = nil
}
