package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// Occurrence is one projected materialization of a recurring schedule.
// It is a prediction, never a real ledger entry.
type Occurrence struct {
	WalletID uuid.UUID
	Type     domain.TransactionType
	Amount   decimal.Decimal
	Date     time.Time
}

// Service projects recurring-transaction schedules into future months.
type Service struct {
	RecurringRepo domain.RecurringRepository
}

// NewService creates a new projection Service instance
func NewService(recurringRepo domain.RecurringRepository) *Service {
	return &Service{RecurringRepo: recurringRepo}
}

// nextDate advances a due date by one schedule step.
func nextDate(t time.Time, frequency domain.Frequency) time.Time {
	switch frequency {
	case domain.FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case domain.FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		// Unknown frequency ends the walk instead of looping forever
		return t.AddDate(100, 0, 0)
	}
}

// OccurrencesBetween materializes every schedule occurrence due inside
// [from, to]. The walk steps each active schedule's frequency from its next
// due date, bounded by its end date. Occurrences before the next due date
// already exist as real ledger entries, so starting there keeps them from
// being counted twice.
func (s *Service) OccurrencesBetween(ctx context.Context, from, to domain.Month) ([]Occurrence, error) {
	schedules, err := s.RecurringRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring transactions: %w", err)
	}

	rangeStart := from.Start()
	rangeEnd := to.End()

	var occurrences []Occurrence
	for _, schedule := range schedules {
		due := schedule.NextDueDate
		if due.IsZero() {
			due = schedule.StartDate
		}
		for !due.After(rangeEnd) {
			if due.After(schedule.EndDate) {
				break
			}
			if !due.Before(rangeStart) {
				occurrences = append(occurrences, Occurrence{
					WalletID: schedule.WalletID,
					Type:     schedule.Type,
					Amount:   schedule.Amount,
					Date:     due,
				})
			}
			due = nextDate(due, schedule.Frequency)
		}
	}

	return occurrences, nil
}

// IncomeExpenseBetween sums the projected occurrences inside [from, to]
// split by direction.
func (s *Service) IncomeExpenseBetween(ctx context.Context, from, to domain.Month) (income, expense decimal.Decimal, err error) {
	occurrences, err := s.OccurrencesBetween(ctx, from, to)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	income, expense = decimal.Zero, decimal.Zero
	for _, occ := range occurrences {
		switch occ.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(occ.Amount)
		case domain.TransactionTypeExpense:
			expense = expense.Add(occ.Amount)
		}
	}
	return income, expense, nil
}

// RemainingByType totals the installments still due from the target month
// through each schedule's end date, for schedules of the given type that
// are flagged for net-worth inclusion. Open-ended schedules are excluded:
// an infinite tail of installments is not a meaningful asset or liability.
func (s *Service) RemainingByType(ctx context.Context, target domain.Month, txType domain.TransactionType) (decimal.Decimal, error) {
	schedules, err := s.RecurringRepo.ListActive(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list recurring transactions: %w", err)
	}

	monthStart := target.Start()
	monthEnd := target.End()

	total := decimal.Zero
	for _, schedule := range schedules {
		if schedule.Type != txType || !schedule.IncludeInNetWorth || schedule.OpenEnded() {
			continue
		}
		if monthEnd.Before(schedule.StartDate) {
			// Schedule has not started yet as of the target month
			continue
		}

		// Project the due date forward (or backward, for past target
		// months) to the first installment inside or after the target month
		due := schedule.StartDate
		for due.Before(monthStart) {
			due = nextDate(due, schedule.Frequency)
		}

		remaining := decimal.Zero
		for !due.After(schedule.EndDate) {
			remaining = remaining.Add(schedule.Amount)
			due = nextDate(due, schedule.Frequency)
		}

		if remaining.GreaterThan(decimal.Zero) {
			total = total.Add(remaining)
		}
	}

	return total, nil
}
