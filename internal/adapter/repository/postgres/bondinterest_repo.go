package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// bondInterestRepository implements domain.BondInterestRepository
type bondInterestRepository struct {
	db *DB
}

// NewBondInterestRepository creates a new bond interest record repository
func NewBondInterestRepository(db *DB) domain.BondInterestRepository {
	return &bondInterestRepository{db: db}
}

const bondInterestColumns = `
	id, bond_id, reference_month, reference_year, calculation_date,
	quantity, invested_amount, monthly_interest, accumulated_interest,
	final_value, method
`

// LastCalculated returns the record with the latest reference month for
// the bond, or nil when none exists
func (r *bondInterestRepository) LastCalculated(ctx context.Context, bondID uuid.UUID) (*domain.BondInterestRecord, error) {
	query := `
		SELECT ` + bondInterestColumns + `
		FROM bond_interest_records
		WHERE bond_id = $1
		ORDER BY reference_year DESC, reference_month DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, bondID)
}

// LatestNotAfter returns the record with the latest reference month not
// after the given month, or nil when none exists
func (r *bondInterestRepository) LatestNotAfter(ctx context.Context, bondID uuid.UUID, month domain.Month) (*domain.BondInterestRecord, error) {
	query := `
		SELECT ` + bondInterestColumns + `
		FROM bond_interest_records
		WHERE bond_id = $1
		  AND (reference_year < $2 OR (reference_year = $2 AND reference_month <= $3))
		ORDER BY reference_year DESC, reference_month DESC
		LIMIT 1
	`

	return r.queryOne(ctx, query, bondID, month.Year, int(month.Month))
}

// GetByMonth returns the bond's record for the exact reference month, or
// nil when none exists
func (r *bondInterestRepository) GetByMonth(ctx context.Context, bondID uuid.UUID, month domain.Month) (*domain.BondInterestRecord, error) {
	query := `
		SELECT ` + bondInterestColumns + `
		FROM bond_interest_records
		WHERE bond_id = $1 AND reference_year = $2 AND reference_month = $3
	`

	return r.queryOne(ctx, query, bondID, month.Year, int(month.Month))
}

// Upsert inserts or replaces the record keyed by (bond, reference month)
func (r *bondInterestRepository) Upsert(ctx context.Context, record *domain.BondInterestRecord) error {
	query := `
		INSERT INTO bond_interest_records (
			id, bond_id, reference_month, reference_year, calculation_date,
			quantity, invested_amount, monthly_interest, accumulated_interest,
			final_value, method
		)
		VALUES ($1, $2, $3, $4, NOW(), $5, $6, $7, $8, $9, $10)
		ON CONFLICT (bond_id, reference_month, reference_year) DO UPDATE SET
			calculation_date = NOW(),
			quantity = EXCLUDED.quantity,
			invested_amount = EXCLUDED.invested_amount,
			monthly_interest = EXCLUDED.monthly_interest,
			accumulated_interest = EXCLUDED.accumulated_interest,
			final_value = EXCLUDED.final_value,
			method = EXCLUDED.method
	`

	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		id,
		record.BondID,
		int(record.ReferenceMonth.Month),
		record.ReferenceMonth.Year,
		record.Quantity.String(),
		record.InvestedAmount.String(),
		record.MonthlyInterest.String(),
		record.AccumulatedInterest.String(),
		record.FinalValue.String(),
		record.Method,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert bond interest record: %w", err)
	}

	return nil
}

func (r *bondInterestRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*domain.BondInterestRecord, error) {
	var record domain.BondInterestRecord
	var refMonth, refYear int
	var quantityStr, investedStr, monthlyStr, accumulatedStr, finalStr string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&record.ID,
		&record.BondID,
		&refMonth,
		&refYear,
		&record.CalculationDate,
		&quantityStr,
		&investedStr,
		&monthlyStr,
		&accumulatedStr,
		&finalStr,
		&record.Method,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bond interest record: %w", err)
	}

	record.ReferenceMonth = domain.NewMonth(refYear, refMonth)

	if record.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if record.InvestedAmount, err = decimal.NewFromString(investedStr); err != nil {
		return nil, fmt.Errorf("failed to parse invested_amount: %w", err)
	}
	if record.MonthlyInterest, err = decimal.NewFromString(monthlyStr); err != nil {
		return nil, fmt.Errorf("failed to parse monthly_interest: %w", err)
	}
	if record.AccumulatedInterest, err = decimal.NewFromString(accumulatedStr); err != nil {
		return nil, fmt.Errorf("failed to parse accumulated_interest: %w", err)
	}
	if record.FinalValue, err = decimal.NewFromString(finalStr); err != nil {
		return nil, fmt.Errorf("failed to parse final_value: %w", err)
	}

	return &record, nil
}
