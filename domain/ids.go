package domain

import "github.com/google/uuid"

// EventID identifies an Event aggregate.
type EventID struct {
	value uuid.UUID
}

// NewEventID generates a fresh, unique EventID.
func NewEventID() EventID {
	return EventID{value: uuid.New()}
}

// ParseEventID rehydrates an EventID from its string form.
func ParseEventID(s string) (EventID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return EventID{}, invalidField("eventId", "Event")
	}
	return EventID{value: v}, nil
}

func (id EventID) String() string  { return id.value.String() }
func (id EventID) UUID() uuid.UUID { return id.value }
func (id EventID) IsZero() bool    { return id.value == uuid.Nil }

func (id EventID) MarshalText() ([]byte, error) {
	return []byte(id.value.String()), nil
}

func (id *EventID) UnmarshalText(data []byte) error {
	v, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

// CustomerID identifies a Customer.
type CustomerID struct {
	value uuid.UUID
}

func NewCustomerID() CustomerID {
	return CustomerID{value: uuid.New()}
}

func ParseCustomerID(s string) (CustomerID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return CustomerID{}, invalidField("customerId", "Customer")
	}
	return CustomerID{value: v}, nil
}

func (id CustomerID) String() string  { return id.value.String() }
func (id CustomerID) UUID() uuid.UUID { return id.value }
func (id CustomerID) IsZero() bool    { return id.value == uuid.Nil }

func (id CustomerID) MarshalText() ([]byte, error) {
	return []byte(id.value.String()), nil
}

func (id *CustomerID) UnmarshalText(data []byte) error {
	v, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

// PartnerID identifies a Partner.
type PartnerID struct {
	value uuid.UUID
}

func NewPartnerID() PartnerID {
	return PartnerID{value: uuid.New()}
}

func ParsePartnerID(s string) (PartnerID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return PartnerID{}, invalidField("partnerId", "Partner")
	}
	return PartnerID{value: v}, nil
}

func (id PartnerID) String() string  { return id.value.String() }
func (id PartnerID) UUID() uuid.UUID { return id.value }
func (id PartnerID) IsZero() bool    { return id.value == uuid.Nil }

func (id PartnerID) MarshalText() ([]byte, error) {
	return []byte(id.value.String()), nil
}

func (id *PartnerID) UnmarshalText(data []byte) error {
	v, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	id.value = v
	return nil
}

// TicketID identifies a single EventTicket reservation.
type TicketID struct {
	value uuid.UUID
}

func NewTicketID() TicketID {
	return TicketID{value: uuid.New()}
}

func ParseTicketID(s string) (TicketID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return TicketID{}, invalidField("ticketId", "Ticket")
	}
	return TicketID{value: v}, nil
}

func (id TicketID) String() string  { return id.value.String() }
func (id TicketID) UUID() uuid.UUID { return id.value }
func (id TicketID) IsZero() bool    { return id.value == uuid.Nil }

func (id TicketID) MarshalText() ([]byte, error) {
	return []byte(id.value.String()), nil
}

func (id *TicketID) UnmarshalText(data []byte) error {
	v, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	id.value = v
	return nil
}
