package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is issued once an order is approved, one per purchased seat.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string    `bun:"id,pk" json:"id"`
	OrderID      string    `bun:"order_id,notnull" json:"order_id"`
	EventID      string    `bun:"event_id,notnull" json:"event_id"`
	TierName     string    `bun:"tier_name,notnull" json:"tier_name"`
	AttendeeName string    `bun:"attendee_name,notnull" json:"attendee_name"`
	QRKey        string    `bun:"qr_key,nullzero" json:"qr_key,omitempty"`
	IssuedAt     time.Time `bun:"issued_at,notnull,default:current_timestamp" json:"issued_at"`
}
