package app

import (
	"context"
	"fmt"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

// CreatePartner registers a new partner. Email is unique across partners.
type CreatePartner struct {
	partners domain.PartnerRepository
}

func NewCreatePartner(partners domain.PartnerRepository) *CreatePartner {
	return &CreatePartner{partners: partners}
}

type CreatePartnerInput struct {
	Name  string
	CNPJ  string
	Email string
}

type CreatePartnerOutput struct {
	PartnerID string
	Name      string
	CNPJ      string
	Email     string
}

func (uc *CreatePartner) Execute(ctx context.Context, input CreatePartnerInput) (*CreatePartnerOutput, error) {
	existing, err := uc.partners.PartnerOfEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing partner: %w", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("Partner already exists")
	}

	partner, err := domain.NewPartner(input.Name, input.CNPJ, input.Email)
	if err != nil {
		return nil, err
	}

	if err := uc.partners.Create(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}

	return &CreatePartnerOutput{
		PartnerID: partner.PartnerID().String(),
		Name:      partner.Name(),
		CNPJ:      partner.CNPJ(),
		Email:     partner.Email(),
	}, nil
}
