package coupon

import (
	"context"
	"strings"

	"ticketstore/internal/logger"
	"ticketstore/internal/models"
)

// DBLayer is the read side the validation service needs. Redemption happens
// inside the order creation transaction, not here.
type DBLayer interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

// Normalize maps user input to the canonical stored form: trimmed and
// upper-cased. It is idempotent.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks whether a code is eligible for a discount. An unknown,
// inactive or consumed code yields Valid=false with a zero discount rather
// than an error; only store failures surface as errors.
func (s *Service) Validate(ctx context.Context, code string) (models.CouponValidation, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return models.CouponValidation{}, nil
	}

	c, err := s.DB.GetCouponByCode(ctx, normalized)
	if err != nil {
		return models.CouponValidation{}, err
	}
	if c == nil || !c.IsActive || c.IsUsed {
		return models.CouponValidation{}, nil
	}

	return models.CouponValidation{
		Valid:           true,
		CouponID:        c.ID,
		DiscountPercent: c.DiscountPercent,
	}, nil
}
