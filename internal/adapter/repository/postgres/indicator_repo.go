package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// indicatorRepository implements domain.IndicatorRepository
type indicatorRepository struct {
	db *DB
}

// NewIndicatorRepository creates a new market indicator repository
func NewIndicatorRepository(db *DB) domain.IndicatorRepository {
	return &indicatorRepository{db: db}
}

// Between retrieves the indicator's observations inside [from, to], ordered
// by date
func (r *indicatorRepository) Between(ctx context.Context, index domain.InterestIndex, from, to time.Time) ([]*domain.IndicatorRate, error) {
	query := `
		SELECT index, date, rate
		FROM indicator_rates
		WHERE index = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, string(index), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicator rates: %w", err)
	}
	defer rows.Close()

	var rates []*domain.IndicatorRate
	for rows.Next() {
		var rate domain.IndicatorRate
		var rateStr string

		if err := rows.Scan(&rate.Index, &rate.Date, &rateStr); err != nil {
			return nil, fmt.Errorf("failed to scan indicator rate: %w", err)
		}

		if rate.Rate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, fmt.Errorf("failed to parse indicator rate: %w", err)
		}

		rates = append(rates, &rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate indicator rates: %w", err)
	}

	return rates, nil
}
