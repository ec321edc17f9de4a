package domain

import (
	"regexp"
	"strings"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Customer is a person who can reserve at most one ticket per event.
type Customer struct {
	customerID CustomerID
	name       string
	cpf        string
	email      string
}

// NewCustomer creates a Customer with a fresh identity.
func NewCustomer(name, cpf, email string) (*Customer, error) {
	return newCustomer(NewCustomerID(), name, cpf, email)
}

// RestoreCustomer rehydrates a Customer from persisted state.
func RestoreCustomer(id, name, cpf, email string) (*Customer, error) {
	customerID, err := ParseCustomerID(id)
	if err != nil {
		return nil, err
	}
	return newCustomer(customerID, name, cpf, email)
}

func newCustomer(id CustomerID, name, cpf, email string) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidField("name", "Customer")
	}
	if !cpfPattern.MatchString(cpf) {
		return nil, invalidField("cpf", "Customer")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalidField("email", "Customer")
	}
	return &Customer{customerID: id, name: name, cpf: cpf, email: email}, nil
}

func (c *Customer) CustomerID() CustomerID { return c.customerID }
func (c *Customer) Name() string           { return c.name }
func (c *Customer) CPF() string            { return c.cpf }
func (c *Customer) Email() string          { return c.email }
