package projection_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/handler"
	"github.com/guilhermewiebbeling/ticketing/infra/postgres"
	"github.com/guilhermewiebbeling/ticketing/msgbus"
	"github.com/guilhermewiebbeling/ticketing/projection"
	"github.com/guilhermewiebbeling/ticketing/testutil"
)

type EventViewProjectionSuite struct {
	testutil.DBIntegrationSuite
	db         *postgres.DB
	views      *postgres.EventViewRepository
	idempotent *handler.IdempotentEventHandler
}

func TestEventViewProjectionSuite(t *testing.T) {
	suite.Run(t, new(EventViewProjectionSuite))
}

func (s *EventViewProjectionSuite) SetupTest() {
	s.db = &postgres.DB{Pool: s.Pool}
	s.views = postgres.NewEventViewRepository(s.db)
	proj := projection.NewEventViewProjection(s.views)
	s.idempotent = handler.NewIdempotentEventHandler(
		"event-view-projection",
		postgres.NewIdempotencyStore(s.db),
		s.db,
		proj.Handle,
	)
	s.TruncateTables("event_views", "processed_events")
}

// reservedFact produces the wire-level form of an EventTicketReserved fact
// for the given event, the way the relay would deliver it.
func (s *EventViewProjectionSuite) reservedFact(eventID domain.EventID) msgbus.OutboxEvent {
	partner, err := domain.NewPartner("Disney", "41.536.538/0001-00", "contact@disney.com")
	s.Require().NoError(err)
	event, err := domain.NewEvent("Disney on Ice", "2021-01-01", 10, partner)
	s.Require().NoError(err)
	_, err = event.ReserveTicket(domain.NewCustomerID())
	s.Require().NoError(err)

	fact := event.AllDomainEvents()[0]
	payload, err := json.Marshal(fact)
	s.Require().NoError(err)

	// Re-point the fact at the caller's event id so tests can project the
	// same or different events on demand.
	var m map[string]any
	s.Require().NoError(json.Unmarshal(payload, &m))
	m["event_id"] = eventID.String()
	payload, err = json.Marshal(m)
	s.Require().NoError(err)

	return msgbus.OutboxEvent{
		EventID:     fact.ID(),
		AggregateID: eventID.UUID(),
		EventType:   fact.EventType(),
		Payload:     payload,
		OccurredOn:  fact.OccurredOn(),
	}
}

func (s *EventViewProjectionSuite) TestProjectsReservation() {
	ctx := context.Background()
	eventID := domain.NewEventID()

	err := s.idempotent.Handle(ctx, s.reservedFact(eventID))
	s.Require().NoError(err)

	view, err := s.views.ViewOfEvent(ctx, eventID.UUID())
	s.Require().NoError(err)
	s.Require().NotNil(view)
	s.Equal(1, view.Reserved)
}

func (s *EventViewProjectionSuite) TestAccumulatesDistinctFacts() {
	ctx := context.Background()
	eventID := domain.NewEventID()

	s.Require().NoError(s.idempotent.Handle(ctx, s.reservedFact(eventID)))
	s.Require().NoError(s.idempotent.Handle(ctx, s.reservedFact(eventID)))

	view, err := s.views.ViewOfEvent(ctx, eventID.UUID())
	s.Require().NoError(err)
	s.Require().NotNil(view)
	s.Equal(2, view.Reserved)
}

func (s *EventViewProjectionSuite) TestRedeliveryDoesNotDoubleCount() {
	ctx := context.Background()
	eventID := domain.NewEventID()
	fact := s.reservedFact(eventID)

	s.Require().NoError(s.idempotent.Handle(ctx, fact))
	s.Require().NoError(s.idempotent.Handle(ctx, fact))

	view, err := s.views.ViewOfEvent(ctx, eventID.UUID())
	s.Require().NoError(err)
	s.Require().NotNil(view)
	s.Equal(1, view.Reserved, "a redelivered fact must not bump the counter twice")
}

func (s *EventViewProjectionSuite) TestIgnoresUnknownEventType() {
	ctx := context.Background()

	err := s.idempotent.Handle(ctx, msgbus.OutboxEvent{
		EventID:     uuid.New(),
		AggregateID: uuid.New(),
		EventType:   "something-else-entirely",
		Payload:     json.RawMessage(`{}`),
	})
	s.Require().NoError(err)

	view, err := s.views.ViewOfEvent(ctx, uuid.New())
	s.Require().NoError(err)
	s.Nil(view)
}
