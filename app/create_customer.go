package app

import (
	"context"
	"fmt"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

// CreateCustomer registers a new customer. Email is unique across customers.
type CreateCustomer struct {
	customers domain.CustomerRepository
}

func NewCreateCustomer(customers domain.CustomerRepository) *CreateCustomer {
	return &CreateCustomer{customers: customers}
}

type CreateCustomerInput struct {
	Name  string
	CPF   string
	Email string
}

type CreateCustomerOutput struct {
	CustomerID string
	Name       string
	CPF        string
	Email      string
}

func (uc *CreateCustomer) Execute(ctx context.Context, input CreateCustomerInput) (*CreateCustomerOutput, error) {
	existing, err := uc.customers.CustomerOfEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing customer: %w", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("Customer already exists")
	}

	customer, err := domain.NewCustomer(input.Name, input.CPF, input.Email)
	if err != nil {
		return nil, err
	}

	if err := uc.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return &CreateCustomerOutput{
		CustomerID: customer.CustomerID().String(),
		Name:       customer.Name(),
		CPF:        customer.CPF(),
		Email:      customer.Email(),
	}, nil
}
