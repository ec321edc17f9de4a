package testutil

import (
	"context"
	"sync"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/handler"
)

// InMemoryEventRepository is a map-backed domain.EventRepository for unit
// tests. Like the real repository it hands queued domain events to a sink
// and clears them on save.
type InMemoryEventRepository struct {
	mu        sync.Mutex
	events    map[string]*domain.Event
	published []domain.DomainEvent
}

func NewInMemoryEventRepository() *InMemoryEventRepository {
	return &InMemoryEventRepository{events: make(map[string]*domain.Event)}
}

func (r *InMemoryEventRepository) EventOfID(_ context.Context, id domain.EventID) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[id.String()], nil
}

func (r *InMemoryEventRepository) Create(_ context.Context, event *domain.Event) error {
	return r.save(event)
}

func (r *InMemoryEventRepository) Update(_ context.Context, event *domain.Event) error {
	return r.save(event)
}

func (r *InMemoryEventRepository) save(event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.EventID().String()] = event
	r.published = append(r.published, event.AllDomainEvents()...)
	event.ClearDomainEvents()
	return nil
}

// PublishedEvents returns every domain event flushed through a save, in
// commit order.
func (r *InMemoryEventRepository) PublishedEvents() []domain.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DomainEvent, len(r.published))
	copy(out, r.published)
	return out
}

// InMemoryCustomerRepository is a map-backed domain.CustomerRepository.
type InMemoryCustomerRepository struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
}

func NewInMemoryCustomerRepository() *InMemoryCustomerRepository {
	return &InMemoryCustomerRepository{customers: make(map[string]*domain.Customer)}
}

func (r *InMemoryCustomerRepository) CustomerOfID(_ context.Context, id domain.CustomerID) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[id.String()], nil
}

func (r *InMemoryCustomerRepository) CustomerOfEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Email() == email {
			return c, nil
		}
	}
	return nil, nil
}

func (r *InMemoryCustomerRepository) Create(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.CustomerID().String()] = customer
	return nil
}

// InMemoryPartnerRepository is a map-backed domain.PartnerRepository.
type InMemoryPartnerRepository struct {
	mu       sync.Mutex
	partners map[string]*domain.Partner
}

func NewInMemoryPartnerRepository() *InMemoryPartnerRepository {
	return &InMemoryPartnerRepository{partners: make(map[string]*domain.Partner)}
}

func (r *InMemoryPartnerRepository) PartnerOfID(_ context.Context, id domain.PartnerID) (*domain.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partners[id.String()], nil
}

func (r *InMemoryPartnerRepository) PartnerOfEmail(_ context.Context, email string) (*domain.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.partners {
		if p.Email() == email {
			return p, nil
		}
	}
	return nil, nil
}

func (r *InMemoryPartnerRepository) Create(_ context.Context, partner *domain.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partners[partner.PartnerID().String()] = partner
	return nil
}

// NopTransactor satisfies handler.Transactor without a database; the
// callback just runs on the given context.
type NopTransactor struct{}

func (NopTransactor) WithTransaction(ctx context.Context, fn handler.TransactionalHandler) error {
	return fn(ctx)
}
