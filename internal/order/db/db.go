package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ticketstore/internal/models"
)

// ErrSoldOut is returned when the conditional inventory reservation finds
// fewer remaining tickets than the order wants.
var ErrSoldOut = errors.New("not enough tickets available")

// ErrCouponSpent is returned when the in-transaction coupon CAS loses to a
// concurrent checkout.
var ErrCouponSpent = errors.New("coupon already consumed")

type DB struct {
	Bun *bun.DB
}

// CreateOrder persists the whole creation sequence in one transaction:
// inventory reservation, the order row, its attendees, and the coupon
// redemption. Either all of it lands or none of it does.
func (d *DB) CreateOrder(ctx context.Context, order models.Order, attendees []models.OrderAttendee) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Reserve inventory with a guard against oversell.
		res, err := tx.NewUpdate().
			Model((*models.TicketTier)(nil)).
			Set("quantity_sold = quantity_sold + ?", order.Quantity).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", order.TicketTierID).
			Where("quantity_sold + ? <= quantity_total", order.Quantity).
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return ErrSoldOut
		}

		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}

		if len(attendees) > 0 {
			if _, err := tx.NewInsert().Model(&attendees).Exec(ctx); err != nil {
				return err
			}
		}

		if order.CouponID != "" {
			res, err := tx.NewUpdate().
				Model((*models.Coupon)(nil)).
				Set("is_used = ?", true).
				Set("used_at = ?", time.Now()).
				Set("used_by_order_id = ?", order.ID).
				Where("id = ?", order.CouponID).
				Where("is_used = ?", false).
				Exec(ctx)
			if err != nil {
				return err
			}
			if affected, err := res.RowsAffected(); err != nil {
				return err
			} else if affected == 0 {
				return ErrCouponSpent
			}
		}

		return nil
	})
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderWithRelations loads the order together with its event, tier and
// bank rows for notification and admin detail views.
func (d *DB) GetOrderWithRelations(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Event").
		Relation("Tier").
		Relation("Bank").
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (d *DB) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	q := d.Bun.NewSelect().
		Model(&orders).
		Relation("Event").
		Relation("Tier").
		OrderExpr("?TableAlias.created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return orders, nil
}

// ReviewOrder moves a pending order to a terminal status. The update is
// conditional on the current status so two admins cannot both transition
// the same order; a rejection releases the reserved inventory in the same
// transaction. Returns false when the order was not pending anymore.
func (d *DB) ReviewOrder(ctx context.Context, order models.Order, status models.OrderStatus) (bool, error) {
	transitioned := false
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("status = ?", status).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", order.ID).
			Where("status = ?", models.OrderPending).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		transitioned = true

		if status == models.OrderRejected {
			_, err = tx.NewUpdate().
				Model((*models.TicketTier)(nil)).
				Set("quantity_sold = quantity_sold - ?", order.Quantity).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", order.TicketTierID).
				Where("quantity_sold >= ?", order.Quantity).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return transitioned, err
}

func (d *DB) GetAttendeesByOrder(ctx context.Context, orderID string) ([]models.OrderAttendee, error) {
	var attendees []models.OrderAttendee
	err := d.Bun.NewSelect().
		Model(&attendees).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_id = ?", orderID).
		Order("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
