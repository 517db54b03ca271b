package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// bondRepository implements domain.BondRepository
type bondRepository struct {
	db *DB
}

// NewBondRepository creates a new bond repository
func NewBondRepository(db *DB) domain.BondRepository {
	return &bondRepository{db: db}
}

// ListNonArchived retrieves all non-archived bonds ordered by name
func (r *bondRepository) ListNonArchived(ctx context.Context) ([]*domain.Bond, error) {
	query := `
		SELECT id, name, interest_type, interest_index, interest_rate, archived
		FROM bonds
		WHERE archived = FALSE
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}
	defer rows.Close()

	var bonds []*domain.Bond
	for rows.Next() {
		var bond domain.Bond
		var rateStr string

		err := rows.Scan(
			&bond.ID,
			&bond.Name,
			&bond.InterestType,
			&bond.InterestIndex,
			&rateStr,
			&bond.Archived,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bond: %w", err)
		}

		if bond.InterestRate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, fmt.Errorf("failed to parse interest_rate: %w", err)
		}

		bonds = append(bonds, &bond)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bonds: %w", err)
	}

	return bonds, nil
}

// ListOperations retrieves the bond's operations ordered by date
func (r *bondRepository) ListOperations(ctx context.Context, bondID uuid.UUID) ([]*domain.BondOperation, error) {
	query := `
		SELECT id, bond_id, type, quantity, unit_price, spread, net_profit, date
		FROM bond_operations
		WHERE bond_id = $1
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, bondID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bond operations: %w", err)
	}
	defer rows.Close()

	var operations []*domain.BondOperation
	for rows.Next() {
		var op domain.BondOperation
		var quantityStr, priceStr string
		var spreadStr, netProfitStr sql.NullString

		err := rows.Scan(
			&op.ID,
			&op.BondID,
			&op.Type,
			&quantityStr,
			&priceStr,
			&spreadStr,
			&netProfitStr,
			&op.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bond operation: %w", err)
		}

		if op.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse operation quantity: %w", err)
		}
		if op.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse operation unit_price: %w", err)
		}

		// Parse spread (nullable DECIMAL)
		if spreadStr.Valid {
			spread, err := decimal.NewFromString(spreadStr.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse operation spread: %w", err)
			}
			op.Spread = &spread
		}

		// Parse net_profit (nullable DECIMAL)
		if netProfitStr.Valid {
			netProfit, err := decimal.NewFromString(netProfitStr.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse operation net_profit: %w", err)
			}
			op.NetProfit = &netProfit
		}

		operations = append(operations, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bond operations: %w", err)
	}

	return operations, nil
}
