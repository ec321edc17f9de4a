package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilhermewiebbeling/ticketing/app"
	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/keylock"
	"github.com/guilhermewiebbeling/ticketing/testutil"
)

type subscribeFixture struct {
	customers *testutil.InMemoryCustomerRepository
	events    *testutil.InMemoryEventRepository
	locks     *keylock.KeyedMutex
	useCase   *app.SubscribeCustomerToEvent
}

func newSubscribeFixture(t *testing.T, lockTimeout time.Duration) *subscribeFixture {
	t.Helper()
	f := &subscribeFixture{
		customers: testutil.NewInMemoryCustomerRepository(),
		events:    testutil.NewInMemoryEventRepository(),
		locks:     keylock.New(),
	}
	f.useCase = app.NewSubscribeCustomerToEvent(
		f.customers,
		f.events,
		f.locks,
		testutil.NopTransactor{},
		lockTimeout,
	)
	return f
}

func (f *subscribeFixture) seedCustomer(t *testing.T) *domain.Customer {
	t.Helper()
	customer, err := domain.NewCustomer("John Doe", "123.456.789-01", "john.doe@gmail.com")
	require.NoError(t, err)
	require.NoError(t, f.customers.Create(context.Background(), customer))
	return customer
}

func (f *subscribeFixture) seedEvent(t *testing.T, totalSpots int) *domain.Event {
	t.Helper()
	partner, err := domain.NewPartner("Disney", "41.536.538/0001-00", "contact@disney.com")
	require.NoError(t, err)
	event, err := domain.NewEvent("Disney on Ice", "2021-01-01", totalSpots, partner)
	require.NoError(t, err)
	require.NoError(t, f.events.Create(context.Background(), event))
	return event
}

func TestSubscribeCustomerToEvent(t *testing.T) {
	f := newSubscribeFixture(t, time.Second)
	customer := f.seedCustomer(t)
	event := f.seedEvent(t, 10)

	output, err := f.useCase.Execute(context.Background(), app.SubscribeCustomerToEventInput{
		EventID:    event.EventID().String(),
		CustomerID: customer.CustomerID().String(),
	})
	require.NoError(t, err)

	assert.Equal(t, event.EventID().String(), output.EventID)
	assert.NotEmpty(t, output.EventTicketID)
	assert.Equal(t, 1, output.Ordering)
	assert.False(t, output.ReservationDate.IsZero())

	stored, err := f.events.EventOfID(context.Background(), event.EventID())
	require.NoError(t, err)
	assert.Len(t, stored.AllTickets(), 1)

	// The reservation flushed exactly one fact through the save path.
	published := f.events.PublishedEvents()
	require.Len(t, published, 1)
	reserved, ok := published[0].(domain.EventTicketReserved)
	require.True(t, ok)
	assert.Equal(t, output.EventTicketID, reserved.EventTicketID.String())
	assert.Equal(t, customer.CustomerID(), reserved.CustomerID)
	assert.Empty(t, stored.AllDomainEvents(), "facts are acknowledged once saved")
}

func TestSubscribeCustomerToEvent_EventNotFound(t *testing.T) {
	f := newSubscribeFixture(t, time.Second)
	customer := f.seedCustomer(t)

	_, err := f.useCase.Execute(context.Background(), app.SubscribeCustomerToEventInput{
		EventID:    domain.NewEventID().String(),
		CustomerID: customer.CustomerID().String(),
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Event not found")
}

func TestSubscribeCustomerToEvent_CustomerNotFound(t *testing.T) {
	f := newSubscribeFixture(t, time.Second)
	event := f.seedEvent(t, 10)

	_, err := f.useCase.Execute(context.Background(), app.SubscribeCustomerToEventInput{
		EventID:    event.EventID().String(),
		CustomerID: domain.NewCustomerID().String(),
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Customer not found")
}

func TestSubscribeCustomerToEvent_Twice(t *testing.T) {
	f := newSubscribeFixture(t, time.Second)
	customer := f.seedCustomer(t)
	event := f.seedEvent(t, 10)

	input := app.SubscribeCustomerToEventInput{
		EventID:    event.EventID().String(),
		CustomerID: customer.CustomerID().String(),
	}

	_, err := f.useCase.Execute(context.Background(), input)
	require.NoError(t, err)

	_, err = f.useCase.Execute(context.Background(), input)
	require.Error(t, err)
	assert.EqualError(t, err, "Ticket already registered")
}

func TestSubscribeCustomerToEvent_SoldOut(t *testing.T) {
	f := newSubscribeFixture(t, time.Second)
	customer := f.seedCustomer(t)
	event := f.seedEvent(t, 1)

	_, err := event.ReserveTicket(domain.NewCustomerID())
	require.NoError(t, err)
	require.NoError(t, f.events.Update(context.Background(), event))

	_, err = f.useCase.Execute(context.Background(), app.SubscribeCustomerToEventInput{
		EventID:    event.EventID().String(),
		CustomerID: customer.CustomerID().String(),
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Event sold out")
}

// Two concurrent reservations against a one-spot event: exactly one wins,
// the other sees "Event sold out".
func TestSubscribeCustomerToEvent_ConcurrentLastSpot(t *testing.T) {
	f := newSubscribeFixture(t, 5*time.Second)
	event := f.seedEvent(t, 1)

	customerA := f.seedCustomer(t)
	customerB, err := domain.NewCustomer("Jane Doe", "987.654.321-09", "jane.doe@gmail.com")
	require.NoError(t, err)
	require.NoError(t, f.customers.Create(context.Background(), customerB))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, id := range []string{customerA.CustomerID().String(), customerB.CustomerID().String()} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.useCase.Execute(context.Background(), app.SubscribeCustomerToEventInput{
				EventID:    event.EventID().String(),
				CustomerID: id,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, soldOut int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.EqualError(t, err, "Event sold out")
		soldOut++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, soldOut)

	stored, err := f.events.EventOfID(context.Background(), event.EventID())
	require.NoError(t, err)
	require.Len(t, stored.AllTickets(), 1)
	assert.Equal(t, 1, stored.AllTickets()[0].Ordering())
}

func TestSubscribeCustomerToEvent_LockTimeout(t *testing.T) {
	f := newSubscribeFixture(t, 30*time.Millisecond)
	customer := f.seedCustomer(t)
	event := f.seedEvent(t, 10)

	// Hold the event's slot so the use case cannot acquire it in time.
	unlock, err := f.locks.Lock(context.Background(), event.EventID().String())
	require.NoError(t, err)
	defer unlock()

	_, err = f.useCase.Execute(context.Background(), app.SubscribeCustomerToEventInput{
		EventID:    event.EventID().String(),
		CustomerID: customer.CustomerID().String(),
	})
	require.Error(t, err)

	var lt keylock.ErrLockTimeout
	assert.ErrorAs(t, err, &lt)
	assert.False(t, domain.IsValidationError(err), "contention is retryable, not a validation failure")
}
