package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// priceHistoryRepository implements domain.PriceHistoryRepository
type priceHistoryRepository struct {
	db *DB
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *DB) domain.PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

// ClosestBefore returns the price observation closest to, and not after,
// the given date. ok is false when no earlier observation exists.
func (r *priceHistoryRepository) ClosestBefore(ctx context.Context, tickerID uuid.UUID, date time.Time) (decimal.Decimal, bool, error) {
	query := `
		SELECT price
		FROM ticker_price_history
		WHERE ticker_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`

	var priceStr string
	err := r.db.QueryRowContext(ctx, query, tickerID, date).Scan(&priceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to get closest price: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse price: %w", err)
	}

	return price, true, nil
}
