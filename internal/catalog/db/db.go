package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ticketstore/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// ListActiveEvents returns active events ordered by date, soonest first.
func (d *DB) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("is_active = ?", true).
		Order("event_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("event_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "artist_name", "description", "venue", "event_date", "image_url", "is_active", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

// ---------------- TIERS ----------------

// GetActiveTiers returns the active tiers of an event, cheapest first.
func (d *DB) GetActiveTiers(ctx context.Context, eventID string) ([]models.TicketTier, error) {
	var tiers []models.TicketTier
	err := d.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Where("is_active = ?", true).
		Order("price_usd ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (d *DB) GetTierByID(ctx context.Context, id string) (*models.TicketTier, error) {
	var tier models.TicketTier
	err := d.Bun.NewSelect().
		Model(&tier).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (d *DB) CreateTier(ctx context.Context, tier models.TicketTier) error {
	_, err := d.Bun.NewInsert().Model(&tier).Exec(ctx)
	return err
}

func (d *DB) UpdateTier(ctx context.Context, tier models.TicketTier) error {
	_, err := d.Bun.NewUpdate().
		Model(&tier).
		Column("name", "description", "price_usd", "quantity_total", "is_active", "updated_at").
		Where("id = ?", tier.ID).
		Exec(ctx)
	return err
}
