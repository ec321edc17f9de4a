package domain

import "context"

// EventRepository loads and saves Event aggregates. A nil aggregate with a
// nil error means the id is unknown. Create and Update must run inside a
// transaction so the aggregate state change and the outbox append commit
// atomically.
type EventRepository interface {
	EventOfID(ctx context.Context, id EventID) (*Event, error)
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	CustomerOfID(ctx context.Context, id CustomerID) (*Customer, error)
	CustomerOfEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
}

// PartnerRepository persists partners.
type PartnerRepository interface {
	PartnerOfID(ctx context.Context, id PartnerID) (*Partner, error)
	PartnerOfEmail(ctx context.Context, email string) (*Partner, error)
	Create(ctx context.Context, partner *Partner) error
}
