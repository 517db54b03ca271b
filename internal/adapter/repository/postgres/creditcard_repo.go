package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// creditCardRepository implements domain.CreditCardRepository
type creditCardRepository struct {
	db *DB
}

// NewCreditCardRepository creates a new credit card repository
func NewCreditCardRepository(db *DB) domain.CreditCardRepository {
	return &creditCardRepository{db: db}
}

// EffectivePaidByMonth returns the total of paid installments charged to
// the wallet with a due date inside the given month
func (r *creditCardRepository) EffectivePaidByMonth(ctx context.Context, walletID uuid.UUID, month domain.Month) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_card_payments
		WHERE wallet_id = $1 AND paid = TRUE AND due_date >= $2 AND due_date <= $3
	`

	var totalStr string
	err := r.db.QueryRowContext(ctx, query, walletID, month.Start(), month.End()).Scan(&totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum paid installments: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse paid installments total: %w", err)
	}

	return total, nil
}

// DebtAt returns the outstanding credit-card debt at the given instant:
// debts created at or before it minus payments settled at or before it
func (r *creditCardRepository) DebtAt(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE((SELECT SUM(amount) FROM credit_card_debts WHERE date <= $1), 0)
			-
			COALESCE((SELECT SUM(amount) FROM credit_card_payments WHERE paid = TRUE AND due_date <= $1), 0)
	`

	var debtStr string
	if err := r.db.QueryRowContext(ctx, query, at).Scan(&debtStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute credit card debt: %w", err)
	}

	debt, err := decimal.NewFromString(debtStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse credit card debt: %w", err)
	}

	return debt, nil
}
