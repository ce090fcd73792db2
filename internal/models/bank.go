package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Bank struct {
	bun.BaseModel `bun:"table:banks"`

	ID                string    `bun:"id,pk" json:"id"`
	BankName          string    `bun:"bank_name,notnull" json:"bank_name"`
	AccountHolderName string    `bun:"account_holder_name,notnull" json:"account_holder_name"`
	IBAN              string    `bun:"iban,notnull" json:"iban"`
	IsActive          bool      `bun:"is_active" json:"is_active"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
