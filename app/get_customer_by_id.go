package app

import (
	"context"
	"fmt"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

// GetCustomerByID looks a customer up. A nil output with a nil error means
// the id is unknown.
type GetCustomerByID struct {
	customers domain.CustomerRepository
}

func NewGetCustomerByID(customers domain.CustomerRepository) *GetCustomerByID {
	return &GetCustomerByID{customers: customers}
}

func (uc *GetCustomerByID) Execute(ctx context.Context, id string) (*CreateCustomerOutput, error) {
	customerID, err := domain.ParseCustomerID(id)
	if err != nil {
		return nil, err
	}

	customer, err := uc.customers.CustomerOfID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer %s: %w", customerID, err)
	}
	if customer == nil {
		return nil, nil
	}

	return &CreateCustomerOutput{
		CustomerID: customer.CustomerID().String(),
		Name:       customer.Name(),
		CPF:        customer.CPF(),
		Email:      customer.Email(),
	}, nil
}
