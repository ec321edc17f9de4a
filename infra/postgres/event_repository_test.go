package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/infra/postgres"
	"github.com/guilhermewiebbeling/ticketing/testutil"
)

type EventRepositoryIntegrationSuite struct {
	testutil.DBIntegrationSuite
	db        *postgres.DB
	events    *postgres.EventRepository
	partners  *postgres.PartnerRepository
	customers *postgres.CustomerRepository
}

func TestEventRepositoryIntegrationSuite(t *testing.T) {
	suite.Run(t, new(EventRepositoryIntegrationSuite))
}

func (s *EventRepositoryIntegrationSuite) SetupTest() {
	s.db = &postgres.DB{Pool: s.Pool}
	s.events = postgres.NewEventRepository(s.db, postgres.NewOutboxStore(s.db))
	s.partners = postgres.NewPartnerRepository(s.db)
	s.customers = postgres.NewCustomerRepository(s.db)
	s.TruncateTables("outbox", "event_tickets", "events", "partners", "customers")
}

func (s *EventRepositoryIntegrationSuite) seedPartner() *domain.Partner {
	partner, err := domain.NewPartner("Disney", "41.536.538/0001-00", "contact@disney.com")
	s.Require().NoError(err)
	s.Require().NoError(s.partners.Create(context.Background(), partner))
	return partner
}

func (s *EventRepositoryIntegrationSuite) seedEvent(totalSpots int) *domain.Event {
	event, err := domain.NewEvent("Disney on Ice", "2021-01-01", totalSpots, s.seedPartner())
	s.Require().NoError(err)
	err = s.db.WithTransaction(context.Background(), func(txCtx context.Context) error {
		return s.events.Create(txCtx, event)
	})
	s.Require().NoError(err)
	return event
}

func (s *EventRepositoryIntegrationSuite) TestCreateAndLoad() {
	event := s.seedEvent(10)

	loaded, err := s.events.EventOfID(context.Background(), event.EventID())
	s.Require().NoError(err)
	s.Require().NotNil(loaded)

	s.Equal(event.EventID(), loaded.EventID())
	s.Equal("Disney on Ice", loaded.Name())
	s.Equal("2021-01-01", loaded.Date().Format("2006-01-02"))
	s.Equal(10, loaded.TotalSpots())
	s.Equal(event.PartnerID(), loaded.PartnerID())
	s.Equal(1, loaded.Version())
	s.Empty(loaded.AllTickets())
}

func (s *EventRepositoryIntegrationSuite) TestEventOfID_Unknown() {
	loaded, err := s.events.EventOfID(context.Background(), domain.NewEventID())
	s.Require().NoError(err)
	s.Nil(loaded)
}

func (s *EventRepositoryIntegrationSuite) TestCreate_RequiresTransaction() {
	event, err := domain.NewEvent("Disney on Ice", "2021-01-01", 10, s.seedPartner())
	s.Require().NoError(err)

	err = s.events.Create(context.Background(), event)
	s.Require().Error(err)
}

func (s *EventRepositoryIntegrationSuite) TestUpdate_PersistsTicketsAndOutboxAtomically() {
	event := s.seedEvent(10)
	customerID := domain.NewCustomerID()

	loaded, err := s.events.EventOfID(context.Background(), event.EventID())
	s.Require().NoError(err)

	ticket, err := loaded.ReserveTicket(customerID)
	s.Require().NoError(err)

	err = s.db.WithTransaction(context.Background(), func(txCtx context.Context) error {
		return s.events.Update(txCtx, loaded)
	})
	s.Require().NoError(err)
	s.Empty(loaded.AllDomainEvents(), "facts are acknowledged after the save commits")

	// The ticket is visible on reload with its ordering, and the version moved.
	reloaded, err := s.events.EventOfID(context.Background(), event.EventID())
	s.Require().NoError(err)
	s.Require().Len(reloaded.AllTickets(), 1)
	s.Equal(ticket.EventTicketID(), reloaded.AllTickets()[0].EventTicketID())
	s.Equal(1, reloaded.AllTickets()[0].Ordering())
	s.Equal(2, reloaded.Version())

	// The fact landed in the outbox in the same transaction.
	var eventType string
	var published bool
	err = s.Pool.QueryRow(context.Background(),
		"SELECT event_type, published FROM outbox WHERE aggregate_id = $1",
		event.EventID().UUID(),
	).Scan(&eventType, &published)
	s.Require().NoError(err)
	s.Equal(domain.EventTicketReservedType, eventType)
	s.False(published)
}

func (s *EventRepositoryIntegrationSuite) TestUpdate_RollbackLeavesNoTrace() {
	event := s.seedEvent(10)

	loaded, err := s.events.EventOfID(context.Background(), event.EventID())
	s.Require().NoError(err)
	_, err = loaded.ReserveTicket(domain.NewCustomerID())
	s.Require().NoError(err)

	boom := errors.New("boom")
	err = s.db.WithTransaction(context.Background(), func(txCtx context.Context) error {
		if err := s.events.Update(txCtx, loaded); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	// Neither the ticket nor the outbox row survived the rollback.
	var ticketCount, outboxCount int
	s.Require().NoError(s.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM event_tickets WHERE event_id = $1", event.EventID().UUID()).Scan(&ticketCount))
	s.Require().NoError(s.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1", event.EventID().UUID()).Scan(&outboxCount))
	s.Equal(0, ticketCount)
	s.Equal(0, outboxCount)
}

func (s *EventRepositoryIntegrationSuite) TestUpdate_VersionConflict() {
	event := s.seedEvent(10)

	first, err := s.events.EventOfID(context.Background(), event.EventID())
	s.Require().NoError(err)
	second, err := s.events.EventOfID(context.Background(), event.EventID())
	s.Require().NoError(err)

	_, err = first.ReserveTicket(domain.NewCustomerID())
	s.Require().NoError(err)
	_, err = second.ReserveTicket(domain.NewCustomerID())
	s.Require().NoError(err)

	err = s.db.WithTransaction(context.Background(), func(txCtx context.Context) error {
		return s.events.Update(txCtx, first)
	})
	s.Require().NoError(err)

	// The second copy was loaded at version 1, which no longer exists.
	err = s.db.WithTransaction(context.Background(), func(txCtx context.Context) error {
		return s.events.Update(txCtx, second)
	})
	s.Require().Error(err)
	var conflict domain.ErrConcurrency
	s.ErrorAs(err, &conflict)
}

func (s *EventRepositoryIntegrationSuite) TestCustomerRepository() {
	customer, err := domain.NewCustomer("John Doe", "123.456.789-01", "john.doe@gmail.com")
	s.Require().NoError(err)
	s.Require().NoError(s.customers.Create(context.Background(), customer))

	byID, err := s.customers.CustomerOfID(context.Background(), customer.CustomerID())
	s.Require().NoError(err)
	s.Require().NotNil(byID)
	s.Equal(customer.Email(), byID.Email())

	byEmail, err := s.customers.CustomerOfEmail(context.Background(), customer.Email())
	s.Require().NoError(err)
	s.Require().NotNil(byEmail)
	s.Equal(customer.CustomerID(), byEmail.CustomerID())

	missing, err := s.customers.CustomerOfID(context.Background(), domain.NewCustomerID())
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *EventRepositoryIntegrationSuite) TestPartnerRepository() {
	partner := s.seedPartner()

	byID, err := s.partners.PartnerOfID(context.Background(), partner.PartnerID())
	s.Require().NoError(err)
	s.Require().NotNil(byID)
	s.Equal(partner.CNPJ(), byID.CNPJ())

	byEmail, err := s.partners.PartnerOfEmail(context.Background(), partner.Email())
	s.Require().NoError(err)
	s.Require().NotNil(byEmail)

	missing, err := s.partners.PartnerOfEmail(context.Background(), "nobody@nowhere.com")
	s.Require().NoError(err)
	s.Nil(missing)
}
