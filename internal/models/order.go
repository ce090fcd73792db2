package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           string  `bun:"id,pk" json:"id"`
	EventID      string  `bun:"event_id,notnull" json:"event_id"`
	TicketTierID string  `bun:"ticket_tier_id,notnull" json:"ticket_tier_id"`
	BuyerEmail   string  `bun:"buyer_email,notnull" json:"buyer_email"`
	BuyerName    string  `bun:"buyer_name,notnull" json:"buyer_name"`
	BuyerSurname string  `bun:"buyer_surname,notnull" json:"buyer_surname"`
	Quantity     int     `bun:"quantity,notnull" json:"quantity"`
	PriceUSD     float64 `bun:"price_usd,notnull" json:"price_usd"`
	PriceTL      float64 `bun:"price_tl,notnull" json:"price_tl"`
	// Snapshots frozen at creation time; never recomputed from the live
	// coupon or rate rows.
	ExchangeRateUsed float64     `bun:"exchange_rate_used,notnull" json:"exchange_rate_used"`
	CouponID         string      `bun:"coupon_id,nullzero" json:"coupon_id,omitempty"`
	DiscountApplied  int         `bun:"discount_applied" json:"discount_applied"`
	BankID           string      `bun:"bank_id,notnull" json:"bank_id"`
	ReceiptKey       string      `bun:"receipt_url,nullzero" json:"receipt_url,omitempty"`
	Status           OrderStatus `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt        time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Event *Event      `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Tier  *TicketTier `bun:"rel:belongs-to,join:ticket_tier_id=id" json:"tier,omitempty"`
	Bank  *Bank       `bun:"rel:belongs-to,join:bank_id=id" json:"bank,omitempty"`
}

type OrderAttendee struct {
	bun.BaseModel `bun:"table:order_attendees"`

	ID        string    `bun:"id,pk" json:"id"`
	OrderID   string    `bun:"order_id,notnull" json:"order_id"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// CheckoutRequest carries everything a buyer submits from the checkout form.
type CheckoutRequest struct {
	EventID      string   `json:"event_id" validate:"required"`
	TierID       string   `json:"tier_id" validate:"required"`
	BuyerEmail   string   `json:"buyer_email" validate:"required,email"`
	BuyerName    string   `json:"buyer_name" validate:"required,min=2"`
	BuyerSurname string   `json:"buyer_surname" validate:"required,min=2"`
	Quantity     int      `json:"quantity" validate:"required,min=1"`
	CouponCode   string   `json:"coupon_code"`
	Attendees    []string `json:"attendees"`

	ReceiptFileName string `json:"-" validate:"required"`
	ReceiptData     []byte `json:"-" validate:"required"`
}

type CheckoutResponse struct {
	OrderID  string  `json:"order_id"`
	Status   string  `json:"status"`
	PriceUSD float64 `json:"price_usd"`
	PriceTL  float64 `json:"price_tl"`
	BankName string  `json:"bank_name"`
	IBAN     string  `json:"iban"`
}
