package bank

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

// FirstActive returns the bank account shown at checkout. Selection is the
// oldest active row; there is no per-event routing.
func (d *DB) FirstActive(ctx context.Context) (*models.Bank, error) {
	var b models.Bank
	err := d.Bun.NewSelect().
		Model(&b).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *DB) ListBanks(ctx context.Context) ([]models.Bank, error) {
	var banks []models.Bank
	err := d.Bun.NewSelect().
		Model(&banks).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return banks, nil
}

func (d *DB) CreateBank(ctx context.Context, b models.Bank) error {
	_, err := d.Bun.NewInsert().Model(&b).Exec(ctx)
	return err
}

func (d *DB) UpdateBank(ctx context.Context, b models.Bank) error {
	_, err := d.Bun.NewUpdate().
		Model(&b).
		Column("bank_name", "account_holder_name", "iban", "is_active", "updated_at").
		Where("id = ?", b.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteBank(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Bank)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
