package rates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ticketstore/internal/models"
)

// DB is the bun-backed rate store.
type DB struct {
	Bun *bun.DB
}

// LatestRate returns the most recently fetched rate, or nil when the table
// is empty.
func (d *DB) LatestRate(ctx context.Context) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := d.Bun.NewSelect().
		Model(&rate).
		Order("fetched_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// InsertRate appends a new rate observation.
func (d *DB) InsertRate(ctx context.Context, usdToTL float64, fetchedAt time.Time) error {
	rate := &models.ExchangeRate{
		ID:        uuid.NewString(),
		USDToTL:   usdToTL,
		FetchedAt: fetchedAt,
	}
	_, err := d.Bun.NewInsert().Model(rate).Exec(ctx)
	return err
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.4f", rate)
}
