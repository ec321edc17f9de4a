package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

// PartnerRepository is the PostgreSQL implementation of domain.PartnerRepository.
type PartnerRepository struct {
	db *DB
}

func NewPartnerRepository(db *DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

func (r *PartnerRepository) PartnerOfID(ctx context.Context, id domain.PartnerID) (*domain.Partner, error) {
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT id, name, cnpj, email FROM partners WHERE id = $1`, id.UUID())
	return scanPartner(row)
}

func (r *PartnerRepository) PartnerOfEmail(ctx context.Context, email string) (*domain.Partner, error) {
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT id, name, cnpj, email FROM partners WHERE email = $1`, email)
	return scanPartner(row)
}

func (r *PartnerRepository) Create(ctx context.Context, partner *domain.Partner) error {
	_, err := r.db.querier(ctx).Exec(ctx, `
        INSERT INTO partners (id, name, cnpj, email)
        VALUES ($1, $2, $3, $4)
    `, partner.PartnerID().UUID(), partner.Name(), partner.CNPJ(), partner.Email())
	if err != nil {
		return fmt.Errorf("failed to insert partner %s: %w", partner.PartnerID(), err)
	}
	return nil
}

func scanPartner(row pgx.Row) (*domain.Partner, error) {
	var (
		id                uuid.UUID
		name, cnpj, email string
	)
	if err := row.Scan(&id, &name, &cnpj, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan partner row: %w", err)
	}
	return domain.RestorePartner(id.String(), name, cnpj, email)
}
