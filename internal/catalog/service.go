package catalog

import (
	"context"
	"errors"
	"fmt"

	"ticketstore/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type DBLayer interface {
	ListActiveEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetActiveTiers(ctx context.Context, eventID string) ([]models.TicketTier, error)
}

// Service is the public catalog reader: active events and their tiers with
// remaining availability.
type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListActiveEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (s *Service) EventDetail(ctx context.Context, id string) (*models.EventDetail, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", id, err)
	}
	if event == nil || !event.IsActive {
		return nil, ErrEventNotFound
	}

	tiers, err := s.DB.GetActiveTiers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiers for event %s: %w", id, err)
	}

	detail := &models.EventDetail{Event: *event, Tiers: make([]models.TierAvailability, 0, len(tiers))}
	for _, tier := range tiers {
		detail.Tiers = append(detail.Tiers, models.TierAvailability{
			TicketTier: tier,
			Available:  tier.Available(),
		})
	}
	return detail, nil
}
