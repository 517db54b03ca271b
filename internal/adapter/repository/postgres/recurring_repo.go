package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// recurringRepository implements domain.RecurringRepository
type recurringRepository struct {
	db *DB
}

// NewRecurringRepository creates a new recurring transaction repository
func NewRecurringRepository(db *DB) domain.RecurringRepository {
	return &recurringRepository{db: db}
}

// ListActive retrieves all active schedules
func (r *recurringRepository) ListActive(ctx context.Context) ([]*domain.RecurringTransaction, error) {
	query := `
		SELECT id, wallet_id, type, amount, frequency, start_date, next_due_date,
		       end_date, description, include_in_net_worth
		FROM recurring_transactions
		WHERE active = TRUE
		ORDER BY start_date
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring transactions: %w", err)
	}
	defer rows.Close()

	var schedules []*domain.RecurringTransaction
	for rows.Next() {
		var schedule domain.RecurringTransaction
		var amountStr string

		err := rows.Scan(
			&schedule.ID,
			&schedule.WalletID,
			&schedule.Type,
			&amountStr,
			&schedule.Frequency,
			&schedule.StartDate,
			&schedule.NextDueDate,
			&schedule.EndDate,
			&schedule.Description,
			&schedule.IncludeInNetWorth,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring transaction: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recurring amount: %w", err)
		}
		schedule.Amount = amount

		schedules = append(schedules, &schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring transactions: %w", err)
	}

	return schedules, nil
}
