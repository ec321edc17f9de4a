package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilhermewiebbeling/ticketing/app"
	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/testutil"
)

func TestCreateEvent(t *testing.T) {
	partners := testutil.NewInMemoryPartnerRepository()
	events := testutil.NewInMemoryEventRepository()

	partner, err := domain.NewPartner("Disney", "41.536.538/0001-00", "contact@disney.com")
	require.NoError(t, err)
	require.NoError(t, partners.Create(context.Background(), partner))

	useCase := app.NewCreateEvent(partners, events, testutil.NopTransactor{})

	output, err := useCase.Execute(context.Background(), app.CreateEventInput{
		Name:       "Disney on Ice",
		Date:       "2021-01-01",
		TotalSpots: 10,
		PartnerID:  partner.PartnerID().String(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, output.EventID)
	assert.Equal(t, "Disney on Ice", output.Name)
	assert.Equal(t, 10, output.TotalSpots)

	eventID, err := domain.ParseEventID(output.EventID)
	require.NoError(t, err)
	stored, err := events.EventOfID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, partner.PartnerID(), stored.PartnerID())
}

func TestCreateEvent_PartnerNotFound(t *testing.T) {
	useCase := app.NewCreateEvent(
		testutil.NewInMemoryPartnerRepository(),
		testutil.NewInMemoryEventRepository(),
		testutil.NopTransactor{},
	)

	_, err := useCase.Execute(context.Background(), app.CreateEventInput{
		Name:       "Disney on Ice",
		Date:       "2021-01-01",
		TotalSpots: 10,
		PartnerID:  domain.NewPartnerID().String(),
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Partner not found")
}

func TestCreateEvent_InvalidDate(t *testing.T) {
	partners := testutil.NewInMemoryPartnerRepository()
	partner, err := domain.NewPartner("Disney", "41.536.538/0001-00", "contact@disney.com")
	require.NoError(t, err)
	require.NoError(t, partners.Create(context.Background(), partner))

	useCase := app.NewCreateEvent(partners, testutil.NewInMemoryEventRepository(), testutil.NopTransactor{})

	_, err = useCase.Execute(context.Background(), app.CreateEventInput{
		Name:       "Disney on Ice",
		Date:       "",
		TotalSpots: 10,
		PartnerID:  partner.PartnerID().String(),
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid date for Event")
}

func TestCreateCustomer(t *testing.T) {
	customers := testutil.NewInMemoryCustomerRepository()
	useCase := app.NewCreateCustomer(customers)

	output, err := useCase.Execute(context.Background(), app.CreateCustomerInput{
		Name:  "John Doe",
		CPF:   "123.456.789-01",
		Email: "john.doe@gmail.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.CustomerID)

	_, err = useCase.Execute(context.Background(), app.CreateCustomerInput{
		Name:  "John Doe",
		CPF:   "123.456.789-01",
		Email: "john.doe@gmail.com",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Customer already exists")
}

func TestCreatePartner(t *testing.T) {
	partners := testutil.NewInMemoryPartnerRepository()
	useCase := app.NewCreatePartner(partners)

	output, err := useCase.Execute(context.Background(), app.CreatePartnerInput{
		Name:  "Disney",
		CNPJ:  "41.536.538/0001-00",
		Email: "contact@disney.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.PartnerID)

	_, err = useCase.Execute(context.Background(), app.CreatePartnerInput{
		Name:  "Disney",
		CNPJ:  "41.536.538/0001-00",
		Email: "contact@disney.com",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Partner already exists")
}

func TestGetPartnerByID(t *testing.T) {
	partners := testutil.NewInMemoryPartnerRepository()
	partner, err := domain.NewPartner("Disney", "41.536.538/0001-00", "contact@disney.com")
	require.NoError(t, err)
	require.NoError(t, partners.Create(context.Background(), partner))

	useCase := app.NewGetPartnerByID(partners)

	output, err := useCase.Execute(context.Background(), partner.PartnerID().String())
	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, partner.PartnerID().String(), output.PartnerID)

	missing, err := useCase.Execute(context.Background(), domain.NewPartnerID().String())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetCustomerByID(t *testing.T) {
	customers := testutil.NewInMemoryCustomerRepository()
	customer, err := domain.NewCustomer("John Doe", "123.456.789-01", "john.doe@gmail.com")
	require.NoError(t, err)
	require.NoError(t, customers.Create(context.Background(), customer))

	useCase := app.NewGetCustomerByID(customers)

	output, err := useCase.Execute(context.Background(), customer.CustomerID().String())
	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, customer.CustomerID().String(), output.CustomerID)

	missing, err := useCase.Execute(context.Background(), domain.NewCustomerID().String())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
