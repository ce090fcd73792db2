package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	ArtistName  string    `bun:"artist_name,notnull" json:"artist_name"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	Venue       string    `bun:"venue,notnull" json:"venue"`
	EventDate   time.Time `bun:"event_date,notnull" json:"event_date"`
	ImageURL    string    `bun:"image_url,nullzero" json:"image_url,omitempty"`
	IsActive    bool      `bun:"is_active" json:"is_active"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type TicketTier struct {
	bun.BaseModel `bun:"table:ticket_tiers"`

	ID            string    `bun:"id,pk" json:"id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Description   string    `bun:"description,nullzero" json:"description,omitempty"`
	PriceUSD      float64   `bun:"price_usd,notnull" json:"price_usd"`
	QuantityTotal int       `bun:"quantity_total,notnull" json:"quantity_total"`
	QuantitySold  int       `bun:"quantity_sold,notnull,default:0" json:"quantity_sold"`
	IsActive      bool      `bun:"is_active" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"-"`
}

// Available is the remaining sellable quantity, floored at zero for display.
func (t *TicketTier) Available() int {
	if avail := t.QuantityTotal - t.QuantitySold; avail > 0 {
		return avail
	}
	return 0
}

type TierAvailability struct {
	TicketTier
	Available int `json:"available"`
}

type EventDetail struct {
	Event Event              `json:"event"`
	Tiers []TierAvailability `json:"tiers"`
}
