package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

// CustomerRepository is the PostgreSQL implementation of domain.CustomerRepository.
type CustomerRepository struct {
	db *DB
}

func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) CustomerOfID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT id, name, cpf, email FROM customers WHERE id = $1`, id.UUID())
	return scanCustomer(row)
}

func (r *CustomerRepository) CustomerOfEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT id, name, cpf, email FROM customers WHERE email = $1`, email)
	return scanCustomer(row)
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	_, err := r.db.querier(ctx).Exec(ctx, `
        INSERT INTO customers (id, name, cpf, email)
        VALUES ($1, $2, $3, $4)
    `, customer.CustomerID().UUID(), customer.Name(), customer.CPF(), customer.Email())
	if err != nil {
		return fmt.Errorf("failed to insert customer %s: %w", customer.CustomerID(), err)
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		id               uuid.UUID
		name, cpf, email string
	)
	if err := row.Scan(&id, &name, &cpf, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan customer row: %w", err)
	}
	return domain.RestoreCustomer(id.String(), name, cpf, email)
}
