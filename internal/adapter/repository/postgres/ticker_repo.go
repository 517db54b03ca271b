package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// tickerRepository implements domain.TickerRepository
type tickerRepository struct {
	db *DB
}

// NewTickerRepository creates a new ticker repository
func NewTickerRepository(db *DB) domain.TickerRepository {
	return &tickerRepository{db: db}
}

// ListNonArchived retrieves all non-archived tickers ordered by symbol
func (r *tickerRepository) ListNonArchived(ctx context.Context) ([]*domain.Ticker, error) {
	query := `
		SELECT id, symbol, name, type, current_quantity, current_unit_value,
		       average_unit_value, created_at, archived
		FROM tickers
		WHERE archived = FALSE
		ORDER BY symbol
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []*domain.Ticker
	for rows.Next() {
		var ticker domain.Ticker
		var quantityStr, unitValueStr, avgValueStr string

		err := rows.Scan(
			&ticker.ID,
			&ticker.Symbol,
			&ticker.Name,
			&ticker.Type,
			&quantityStr,
			&unitValueStr,
			&avgValueStr,
			&ticker.CreatedAt,
			&ticker.Archived,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}

		if ticker.CurrentQuantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse current_quantity: %w", err)
		}
		if ticker.CurrentUnitValue, err = decimal.NewFromString(unitValueStr); err != nil {
			return nil, fmt.Errorf("failed to parse current_unit_value: %w", err)
		}
		if ticker.AverageUnitValue, err = decimal.NewFromString(avgValueStr); err != nil {
			return nil, fmt.Errorf("failed to parse average_unit_value: %w", err)
		}

		tickers = append(tickers, &ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickers: %w", err)
	}

	return tickers, nil
}

// ListPurchases retrieves the ticker's purchases ordered by date
func (r *tickerRepository) ListPurchases(ctx context.Context, tickerID uuid.UUID) ([]*domain.TickerPurchase, error) {
	query := `
		SELECT id, ticker_id, quantity, unit_price, date
		FROM ticker_purchases
		WHERE ticker_id = $1
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, tickerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*domain.TickerPurchase
	for rows.Next() {
		var purchase domain.TickerPurchase
		var quantityStr, priceStr string

		err := rows.Scan(
			&purchase.ID,
			&purchase.TickerID,
			&quantityStr,
			&priceStr,
			&purchase.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}

		if purchase.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse purchase quantity: %w", err)
		}
		if purchase.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse purchase unit_price: %w", err)
		}

		purchases = append(purchases, &purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	return purchases, nil
}

// ListSales retrieves the ticker's sales ordered by date
func (r *tickerRepository) ListSales(ctx context.Context, tickerID uuid.UUID) ([]*domain.TickerSale, error) {
	query := `
		SELECT id, ticker_id, quantity, unit_price, average_cost, date
		FROM ticker_sales
		WHERE ticker_id = $1
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, tickerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.TickerSale
	for rows.Next() {
		var sale domain.TickerSale
		var quantityStr, priceStr, avgCostStr string

		err := rows.Scan(
			&sale.ID,
			&sale.TickerID,
			&quantityStr,
			&priceStr,
			&avgCostStr,
			&sale.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}

		if sale.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse sale quantity: %w", err)
		}
		if sale.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse sale unit_price: %w", err)
		}
		if sale.AverageCost, err = decimal.NewFromString(avgCostStr); err != nil {
			return nil, fmt.Errorf("failed to parse sale average_cost: %w", err)
		}

		sales = append(sales, &sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}

	return sales, nil
}

// ListDividends retrieves every dividend across all tickers
func (r *tickerRepository) ListDividends(ctx context.Context) ([]*domain.Dividend, error) {
	query := `
		SELECT id, ticker_id, amount, date
		FROM dividends
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dividends: %w", err)
	}
	defer rows.Close()

	var dividends []*domain.Dividend
	for rows.Next() {
		var dividend domain.Dividend
		var amountStr string

		err := rows.Scan(
			&dividend.ID,
			&dividend.TickerID,
			&amountStr,
			&dividend.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}

		if dividend.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse dividend amount: %w", err)
		}

		dividends = append(dividends, &dividend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dividends: %w", err)
	}

	return dividends, nil
}
