package domain

import (
	"fmt"
	"sync"
)

// DomainEventFactory creates a new, empty instance of a domain event, ready
// to be unmarshaled from an outbox payload.
type DomainEventFactory func() DomainEvent

var (
	eventRegistry = make(map[string]DomainEventFactory)
	registryMu    sync.RWMutex
)

// RegisterDomainEvent associates an event type tag with a factory function.
// It is called from init functions and panics on duplicate registration.
func RegisterDomainEvent(eventType string, factory DomainEventFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := eventRegistry[eventType]; ok {
		panic(fmt.Sprintf("domain event type '%s' is already registered", eventType))
	}
	eventRegistry[eventType] = factory
}

// CreateDomainEvent instantiates an empty event for the given type tag.
// Consumers use it to decode outbox payloads back into typed facts.
func CreateDomainEvent(eventType string) (DomainEvent, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := eventRegistry[eventType]
	if !ok {
		return nil, fmt.Errorf("domain event type '%s' is not registered", eventType)
	}
	return factory(), nil
}
