package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ExchangeRate struct {
	bun.BaseModel `bun:"table:exchange_rates"`

	ID        string    `bun:"id,pk" json:"id"`
	USDToTL   float64   `bun:"usd_to_tl,notnull" json:"usd_to_tl"`
	FetchedAt time.Time `bun:"fetched_at,notnull,default:current_timestamp" json:"fetched_at"`
}
