package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/handler"
	"github.com/guilhermewiebbeling/ticketing/keylock"
)

// SubscribeCustomerToEvent reserves one ticket for a customer. The
// load-mutate-save cycle for one EventID runs under that event's lock slot,
// so two concurrent reservations can never both observe the last free spot.
// Reservations against different events proceed independently.
type SubscribeCustomerToEvent struct {
	customers   domain.CustomerRepository
	events      domain.EventRepository
	locks       *keylock.KeyedMutex
	transactor  handler.Transactor
	lockTimeout time.Duration
}

func NewSubscribeCustomerToEvent(
	customers domain.CustomerRepository,
	events domain.EventRepository,
	locks *keylock.KeyedMutex,
	transactor handler.Transactor,
	lockTimeout time.Duration,
) *SubscribeCustomerToEvent {
	return &SubscribeCustomerToEvent{
		customers:   customers,
		events:      events,
		locks:       locks,
		transactor:  transactor,
		lockTimeout: lockTimeout,
	}
}

type SubscribeCustomerToEventInput struct {
	EventID    string
	CustomerID string
}

type SubscribeCustomerToEventOutput struct {
	EventTicketID   string
	EventID         string
	Ordering        int
	ReservationDate time.Time
}

// Execute validates the customer and event, then reserves the ticket. The
// aggregate update and the outbox append commit in one transaction: if the
// reservation rolls back, the "event-ticket-reserved" fact never becomes
// visible to the relay.
func (uc *SubscribeCustomerToEvent) Execute(
	ctx context.Context,
	input SubscribeCustomerToEventInput,
) (*SubscribeCustomerToEventOutput, error) {
	eventID, err := domain.ParseEventID(input.EventID)
	if err != nil {
		return nil, err
	}
	customerID, err := domain.ParseCustomerID(input.CustomerID)
	if err != nil {
		return nil, err
	}

	customer, err := uc.customers.CustomerOfID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer %s: %w", customerID, err)
	}
	if customer == nil {
		return nil, domain.NewValidationError("Customer not found")
	}

	// Serialize on the event. A caller that cannot acquire the slot within
	// the timeout gets a retryable keylock.ErrLockTimeout, never an
	// unbounded wait.
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()
	unlock, err := uc.locks.Lock(lockCtx, eventID.String())
	if err != nil {
		return nil, fmt.Errorf("reservation for event %s is contended: %w", eventID, err)
	}
	defer unlock()

	var output *SubscribeCustomerToEventOutput
	err = uc.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		event, err := uc.events.EventOfID(txCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load event %s: %w", eventID, err)
		}
		if event == nil {
			return domain.NewValidationError("Event not found")
		}

		ticket, err := event.ReserveTicket(customer.CustomerID())
		if err != nil {
			return err
		}

		if err := uc.events.Update(txCtx, event); err != nil {
			return fmt.Errorf("failed to save event %s: %w", eventID, err)
		}

		output = &SubscribeCustomerToEventOutput{
			EventTicketID:   ticket.EventTicketID().String(),
			EventID:         eventID.String(),
			Ordering:        ticket.Ordering(),
			ReservationDate: ticket.ReservedAt(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(
		ctx,
		"Ticket reserved",
		"eventID",
		output.EventID,
		"ticketID",
		output.EventTicketID,
		"ordering",
		output.Ordering,
	)
	return output, nil
}
