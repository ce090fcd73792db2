package coupon

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

// GetCouponByCode fetches a coupon by its canonical code, nil when absent.
func (d *DB) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := d.Bun.NewSelect().
		Model(&c).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) CreateCoupon(ctx context.Context, coupon models.Coupon) error {
	_, err := d.Bun.NewInsert().Model(&coupon).Exec(ctx)
	return err
}

func (d *DB) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupons).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (d *DB) UpdateCoupon(ctx context.Context, coupon models.Coupon) error {
	_, err := d.Bun.NewUpdate().
		Model(&coupon).
		Column("code", "discount_percent", "is_active").
		Where("id = ?", coupon.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteCoupon(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Coupon)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
