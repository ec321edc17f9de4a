package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/handler"
)

// CreateEvent publishes a new event on behalf of a partner.
type CreateEvent struct {
	partners   domain.PartnerRepository
	events     domain.EventRepository
	transactor handler.Transactor
}

func NewCreateEvent(
	partners domain.PartnerRepository,
	events domain.EventRepository,
	transactor handler.Transactor,
) *CreateEvent {
	return &CreateEvent{partners: partners, events: events, transactor: transactor}
}

type CreateEventInput struct {
	Name       string
	Date       string
	TotalSpots int
	PartnerID  string
}

type CreateEventOutput struct {
	EventID    string
	Name       string
	Date       string
	TotalSpots int
	PartnerID  string
}

func (uc *CreateEvent) Execute(ctx context.Context, input CreateEventInput) (*CreateEventOutput, error) {
	partnerID, err := domain.ParsePartnerID(input.PartnerID)
	if err != nil {
		return nil, err
	}

	partner, err := uc.partners.PartnerOfID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up partner %s: %w", partnerID, err)
	}
	if partner == nil {
		return nil, domain.NewValidationError("Partner not found")
	}

	event, err := domain.NewEvent(input.Name, input.Date, input.TotalSpots, partner)
	if err != nil {
		return nil, err
	}

	err = uc.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		return uc.events.Create(txCtx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	slog.InfoContext(ctx, "Event created", "eventID", event.EventID(), "partnerID", partnerID)
	return &CreateEventOutput{
		EventID:    event.EventID().String(),
		Name:       event.Name(),
		Date:       input.Date,
		TotalSpots: event.TotalSpots(),
		PartnerID:  partnerID.String(),
	}, nil
}
