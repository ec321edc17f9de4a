package domain

import "time"

// EventTicket is the immutable record of a single reservation inside an
// Event aggregate. The ordering is the 1-based position assigned at
// reservation time, reflecting commit order.
type EventTicket struct {
	eventTicketID TicketID
	eventID       EventID
	customerID    CustomerID
	ordering      int
	reservedAt    time.Time
	// paymentTicketID back-references the payment-domain ticket. It is filled
	// by a separate workflow after the reservation has been propagated.
	paymentTicketID *TicketID
}

func newEventTicket(eventID EventID, customerID CustomerID, ordering int) EventTicket {
	return EventTicket{
		eventTicketID: NewTicketID(),
		eventID:       eventID,
		customerID:    customerID,
		ordering:      ordering,
		reservedAt:    time.Now().UTC(),
	}
}

// RestoreEventTicket rehydrates a ticket from persisted state.
func RestoreEventTicket(
	id TicketID,
	eventID EventID,
	customerID CustomerID,
	ordering int,
	reservedAt time.Time,
	paymentTicketID *TicketID,
) (EventTicket, error) {
	if id.IsZero() {
		return EventTicket{}, invalidField("eventTicketId", "EventTicket")
	}
	if ordering < 1 {
		return EventTicket{}, invalidField("ordering", "EventTicket")
	}
	return EventTicket{
		eventTicketID:   id,
		eventID:         eventID,
		customerID:      customerID,
		ordering:        ordering,
		reservedAt:      reservedAt,
		paymentTicketID: paymentTicketID,
	}, nil
}

func (t EventTicket) EventTicketID() TicketID { return t.eventTicketID }
func (t EventTicket) EventID() EventID        { return t.eventID }
func (t EventTicket) CustomerID() CustomerID  { return t.customerID }
func (t EventTicket) Ordering() int           { return t.ordering }
func (t EventTicket) ReservedAt() time.Time   { return t.reservedAt }

// PaymentTicketID returns the payment-domain ticket reference, or nil when it
// has not been assigned yet.
func (t EventTicket) PaymentTicketID() *TicketID { return t.paymentTicketID }
