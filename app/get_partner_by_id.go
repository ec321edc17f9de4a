package app

import (
	"context"
	"fmt"

	"github.com/guilhermewiebbeling/ticketing/domain"
)

// GetPartnerByID looks a partner up. A nil output with a nil error means the
// id is unknown.
type GetPartnerByID struct {
	partners domain.PartnerRepository
}

func NewGetPartnerByID(partners domain.PartnerRepository) *GetPartnerByID {
	return &GetPartnerByID{partners: partners}
}

func (uc *GetPartnerByID) Execute(ctx context.Context, id string) (*CreatePartnerOutput, error) {
	partnerID, err := domain.ParsePartnerID(id)
	if err != nil {
		return nil, err
	}

	partner, err := uc.partners.PartnerOfID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up partner %s: %w", partnerID, err)
	}
	if partner == nil {
		return nil, nil
	}

	return &CreatePartnerOutput{
		PartnerID: partner.PartnerID().String(),
		Name:      partner.Name(),
		CNPJ:      partner.CNPJ(),
		Email:     partner.Email(),
	}, nil
}
