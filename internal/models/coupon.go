package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	ID              string     `bun:"id,pk" json:"id"`
	Code            string     `bun:"code,unique,notnull" json:"code"`
	DiscountPercent int        `bun:"discount_percent,notnull" json:"discount_percent"`
	IsActive        bool       `bun:"is_active" json:"is_active"`
	IsUsed          bool       `bun:"is_used" json:"is_used"`
	UsedAt          *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
	UsedByOrderID   string     `bun:"used_by_order_id,nullzero" json:"used_by_order_id,omitempty"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// CouponValidation is the outcome of checking a user-supplied code.
// An ineligible code is not an error: Valid is false and the discount is zero.
type CouponValidation struct {
	Valid           bool   `json:"valid"`
	CouponID        string `json:"-"`
	DiscountPercent int    `json:"discount_percent"`
}
