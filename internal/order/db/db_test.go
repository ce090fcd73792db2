package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticketstore/internal/models"
	orderdb "ticketstore/internal/order/db"
)

func setupTestDB(t *testing.T) (*orderdb.DB, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	err = bunDB.ResetModel(context.Background(),
		(*models.Event)(nil),
		(*models.TicketTier)(nil),
		(*models.Coupon)(nil),
		(*models.Bank)(nil),
		(*models.Order)(nil),
		(*models.OrderAttendee)(nil),
		(*models.Ticket)(nil),
	)
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	return &orderdb.DB{Bun: bunDB}, bunDB
}

func seedTier(t *testing.T, bunDB *bun.DB, total, sold int) models.TicketTier {
	tier := models.TicketTier{
		ID:            "tier-1",
		EventID:       "event-1",
		Name:          "General Admission",
		PriceUSD:      50,
		QuantityTotal: total,
		QuantitySold:  sold,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if _, err := bunDB.NewInsert().Model(&tier).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed tier: %v", err)
	}
	return tier
}

func pendingOrder(quantity int) models.Order {
	now := time.Now()
	return models.Order{
		ID:               "order-1",
		EventID:          "event-1",
		TicketTierID:     "tier-1",
		BuyerEmail:       "buyer@example.com",
		BuyerName:        "Jane",
		BuyerSurname:     "Doe",
		Quantity:         quantity,
		PriceUSD:         100,
		PriceTL:          3450,
		ExchangeRateUsed: 34.5,
		BankID:           "bank-1",
		ReceiptKey:       "receipts/r1.png",
		Status:           models.OrderPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func tierSold(t *testing.T, bunDB *bun.DB, tierID string) int {
	var tier models.TicketTier
	err := bunDB.NewSelect().Model(&tier).Where("id = ?", tierID).Scan(context.Background())
	if err != nil {
		t.Fatalf("Failed to reload tier: %v", err)
	}
	return tier.QuantitySold
}

func TestCreateOrderReservesInventory(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 10, 0)

	order := pendingOrder(3)
	attendees := []models.OrderAttendee{
		{ID: "a1", OrderID: order.ID, FullName: "Ali Veli", CreatedAt: time.Now()},
		{ID: "a2", OrderID: order.ID, FullName: "Ayse Fatma", CreatedAt: time.Now()},
	}

	err := db.CreateOrder(context.Background(), order, attendees)
	assert.NoError(t, err)

	stored, err := db.GetOrderByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.NotNil(t, stored)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Equal(t, 34.5, stored.ExchangeRateUsed)

	assert.Equal(t, 3, tierSold(t, bunDB, "tier-1"))

	loaded, err := db.GetAttendeesByOrder(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestCreateOrderSoldOutRollsBack(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 2, 1)

	err := db.CreateOrder(context.Background(), pendingOrder(2), nil)
	assert.ErrorIs(t, err, orderdb.ErrSoldOut)

	stored, err := db.GetOrderByID(context.Background(), "order-1")
	assert.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, 1, tierSold(t, bunDB, "tier-1"))
}

func TestCreateOrderExactRemainingQuantitySucceeds(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 5, 3)

	err := db.CreateOrder(context.Background(), pendingOrder(2), nil)
	assert.NoError(t, err)
	assert.Equal(t, 5, tierSold(t, bunDB, "tier-1"))
}

func TestCreateOrderSpentCouponAbortsWholeTransaction(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 10, 0)

	used := time.Now()
	spent := models.Coupon{
		ID:              "coupon-1",
		Code:            "GONE10",
		DiscountPercent: 10,
		IsActive:        true,
		IsUsed:          true,
		UsedAt:          &used,
		UsedByOrderID:   "other-order",
		CreatedAt:       time.Now(),
	}
	if _, err := bunDB.NewInsert().Model(&spent).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed coupon: %v", err)
	}

	order := pendingOrder(2)
	order.CouponID = "coupon-1"
	order.DiscountApplied = 10

	err := db.CreateOrder(context.Background(), order, nil)
	assert.ErrorIs(t, err, orderdb.ErrCouponSpent)

	// Nothing from the transaction may remain.
	stored, err := db.GetOrderByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, 0, tierSold(t, bunDB, "tier-1"))

	var c models.Coupon
	err = bunDB.NewSelect().Model(&c).Where("id = ?", "coupon-1").Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "other-order", c.UsedByOrderID)
}

func TestCreateOrderRedeemsCoupon(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 10, 0)

	fresh := models.Coupon{
		ID:              "coupon-2",
		Code:            "FRESH20",
		DiscountPercent: 20,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	if _, err := bunDB.NewInsert().Model(&fresh).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed coupon: %v", err)
	}

	order := pendingOrder(1)
	order.CouponID = "coupon-2"
	order.DiscountApplied = 20

	err := db.CreateOrder(context.Background(), order, nil)
	assert.NoError(t, err)

	var c models.Coupon
	err = bunDB.NewSelect().Model(&c).Where("id = ?", "coupon-2").Scan(context.Background())
	assert.NoError(t, err)
	assert.True(t, c.IsUsed)
	assert.Equal(t, order.ID, c.UsedByOrderID)
	assert.NotNil(t, c.UsedAt)
}

func TestReviewOrderTransitionsOnlyOnce(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 10, 0)

	order := pendingOrder(2)
	assert.NoError(t, db.CreateOrder(context.Background(), order, nil))

	transitioned, err := db.ReviewOrder(context.Background(), order, models.OrderApproved)
	assert.NoError(t, err)
	assert.True(t, transitioned)

	stored, err := db.GetOrderByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderApproved, stored.Status)

	// A second reviewer loses the conditional update.
	transitioned, err = db.ReviewOrder(context.Background(), order, models.OrderRejected)
	assert.NoError(t, err)
	assert.False(t, transitioned)

	stored, err = db.GetOrderByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderApproved, stored.Status)
	assert.Equal(t, 2, tierSold(t, bunDB, "tier-1"))
}

func TestReviewOrderRejectionReleasesInventory(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 10, 0)

	order := pendingOrder(4)
	assert.NoError(t, db.CreateOrder(context.Background(), order, nil))
	assert.Equal(t, 4, tierSold(t, bunDB, "tier-1"))

	transitioned, err := db.ReviewOrder(context.Background(), order, models.OrderRejected)
	assert.NoError(t, err)
	assert.True(t, transitioned)

	assert.Equal(t, 0, tierSold(t, bunDB, "tier-1"))
}

func TestGetOrderWithRelations(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 10, 0)

	event := models.Event{
		ID:         "event-1",
		Title:      "Summer Fest",
		ArtistName: "The Band",
		Venue:      "Open Air Arena",
		EventDate:  time.Now().Add(30 * 24 * time.Hour),
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	bank := models.Bank{
		ID:                "bank-1",
		BankName:          "Acme Bank",
		AccountHolderName: "Ticket Store Ltd.",
		IBAN:              "TR330006100519786457841326",
		IsActive:          true,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if _, err := bunDB.NewInsert().Model(&event).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}
	if _, err := bunDB.NewInsert().Model(&bank).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed bank: %v", err)
	}

	order := pendingOrder(1)
	assert.NoError(t, db.CreateOrder(context.Background(), order, nil))

	loaded, err := db.GetOrderWithRelations(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.NotNil(t, loaded.Event)
	assert.Equal(t, "Summer Fest", loaded.Event.Title)
	assert.NotNil(t, loaded.Tier)
	assert.Equal(t, "General Admission", loaded.Tier.Name)
	assert.NotNil(t, loaded.Bank)
	assert.Equal(t, "TR330006100519786457841326", loaded.Bank.IBAN)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	db, bunDB := setupTestDB(t)
	seedTier(t, bunDB, 20, 0)

	first := pendingOrder(1)
	assert.NoError(t, db.CreateOrder(context.Background(), first, nil))

	second := pendingOrder(1)
	second.ID = "order-2"
	assert.NoError(t, db.CreateOrder(context.Background(), second, nil))

	_, err := db.ReviewOrder(context.Background(), first, models.OrderApproved)
	assert.NoError(t, err)

	pending, err := db.ListOrders(context.Background(), models.OrderPending)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, "order-2", pending[0].ID)

	all, err := db.ListOrders(context.Background(), "")
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}
