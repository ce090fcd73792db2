package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ticketstore/internal/models"
)

// Options configures schema creation on startup.
type Options struct {
	// AutoMigrate creates missing tables on startup.
	AutoMigrate bool
	// SeedData inserts a starter dataset when the catalog is empty.
	SeedData bool
}

func DefaultOptions() Options {
	return Options{
		AutoMigrate: true,
		SeedData:    false,
	}
}

// Runner creates the schema from the bun models.
type Runner struct {
	bunDB   *bun.DB
	options Options
}

func NewRunner(bunDB *bun.DB, opts Options) *Runner {
	return &Runner{bunDB: bunDB, options: opts}
}

// tables in dependency order: referenced tables first.
func tables() []interface{} {
	return []interface{}{
		(*models.Event)(nil),
		(*models.TicketTier)(nil),
		(*models.Coupon)(nil),
		(*models.Bank)(nil),
		(*models.ExchangeRate)(nil),
		(*models.Order)(nil),
		(*models.OrderAttendee)(nil),
		(*models.Ticket)(nil),
	}
}

// Run creates missing tables and indexes, then seeds if requested.
func (r *Runner) Run(ctx context.Context) error {
	if !r.options.AutoMigrate {
		return nil
	}

	for _, model := range tables() {
		if _, err := r.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	if err := r.createIndexes(ctx); err != nil {
		return err
	}

	if r.options.SeedData {
		if err := r.seed(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) createIndexes(ctx context.Context) error {
	indexes := []struct {
		name   string
		model  interface{}
		column string
	}{
		{"idx_orders_status", (*models.Order)(nil), "status"},
		{"idx_orders_created_at", (*models.Order)(nil), "created_at"},
		{"idx_ticket_tiers_event_id", (*models.TicketTier)(nil), "event_id"},
		{"idx_order_attendees_order_id", (*models.OrderAttendee)(nil), "order_id"},
		{"idx_tickets_order_id", (*models.Ticket)(nil), "order_id"},
		{"idx_exchange_rates_fetched_at", (*models.ExchangeRate)(nil), "fetched_at"},
	}

	for _, idx := range indexes {
		if _, err := r.bunDB.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// seed inserts a demo bank so checkout works out of the box on a fresh
// database. It only runs when no bank exists yet.
func (r *Runner) seed(ctx context.Context) error {
	count, err := r.bunDB.NewSelect().Model((*models.Bank)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing banks: %w", err)
	}
	if count > 0 {
		return nil
	}

	bank := models.Bank{
		ID:                "00000000-0000-0000-0000-000000000001",
		BankName:          "Demo Bank",
		AccountHolderName: "Ticket Store Ltd.",
		IBAN:              "TR000000000000000000000001",
		IsActive:          true,
	}
	if _, err := r.bunDB.NewInsert().Model(&bank).Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed bank: %w", err)
	}
	return nil
}
