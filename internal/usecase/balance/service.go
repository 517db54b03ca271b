package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/projection"
)

// Service reconstructs a wallet's cash balance for an arbitrary month.
// Three disjoint branches, selected by comparing the target month to the
// current month; each direction needs a different, non-symmetric
// algorithm:
//
//   - future months are projected forward from the current balance using
//     the recurring-schedule projector (no real future events exist);
//   - the current month starts from the current balance and adds back
//     scheduled-but-not-materialized recurrences plus pending events, since
//     neither has touched the balance yet;
//   - past months revert every confirmed event dated after the target
//     month, in two passes (plain transactions, then credit-card
//     settlements) because the two families are recorded against different
//     date semantics.
type Service struct {
	TransactionRepo domain.TransactionRepository
	CreditCardRepo  domain.CreditCardRepository
	Projector       *projection.Service
	Logger          *zap.Logger

	now func() time.Time
}

// NewService creates a new balance Service instance
func NewService(
	transactionRepo domain.TransactionRepository,
	creditCardRepo domain.CreditCardRepository,
	projector *projection.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		TransactionRepo: transactionRepo,
		CreditCardRepo:  creditCardRepo,
		Projector:       projector,
		Logger:          logger,
		now:             time.Now,
	}
}

// WalletBalanceForMonth reconstructs the wallet's signed balance for the
// target month. The result may be negative; callers segregate signs per
// period, never across periods.
func (s *Service) WalletBalanceForMonth(ctx context.Context, wallet *domain.Wallet, target domain.Month) (decimal.Decimal, error) {
	currentMonth := domain.MonthOf(s.now())

	switch {
	case target.After(currentMonth):
		return s.futureBalance(ctx, wallet, currentMonth, target)
	case target.Equal(currentMonth):
		return s.currentBalance(ctx, wallet, currentMonth)
	default:
		return s.pastBalance(ctx, wallet, currentMonth, target)
	}
}

// BalancesForMonth reconstructs every wallet's balance for the target month
// and splits the results by sign: positive balances sum into assets,
// negative balances contribute their absolute value to negatives. A
// wallet's sign can flip between periods and is re-evaluated per call.
func (s *Service) BalancesForMonth(ctx context.Context, wallets []*domain.Wallet, target domain.Month) (assets, negatives decimal.Decimal, err error) {
	assets, negatives = decimal.Zero, decimal.Zero

	for _, wallet := range wallets {
		b, err := s.WalletBalanceForMonth(ctx, wallet, target)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		if b.GreaterThan(decimal.Zero) {
			assets = assets.Add(b)
		} else if b.LessThan(decimal.Zero) {
			negatives = negatives.Add(b.Abs())
		}
	}

	return assets, negatives, nil
}

// futureBalance projects the wallet forward: current balance plus scheduled
// income minus scheduled expense for every month after the current one up
// to and including the target.
func (s *Service) futureBalance(ctx context.Context, wallet *domain.Wallet, currentMonth, target domain.Month) (decimal.Decimal, error) {
	occurrences, err := s.Projector.OccurrencesBetween(ctx, currentMonth.Next(), target)
	if err != nil {
		return decimal.Zero, err
	}

	b := wallet.Balance
	for _, occ := range occurrences {
		if occ.WalletID != wallet.ID {
			continue
		}
		switch occ.Type {
		case domain.TransactionTypeIncome:
			b = b.Add(occ.Amount)
		case domain.TransactionTypeExpense:
			b = b.Sub(occ.Amount)
		}
	}

	return b, nil
}

// currentBalance adjusts the authoritative balance with everything the
// current month still owes it: scheduled recurrences not yet materialized
// and pending events that have not been confirmed into the balance.
func (s *Service) currentBalance(ctx context.Context, wallet *domain.Wallet, currentMonth domain.Month) (decimal.Decimal, error) {
	b := wallet.Balance

	occurrences, err := s.Projector.OccurrencesBetween(ctx, currentMonth, currentMonth)
	if err != nil {
		return decimal.Zero, err
	}
	for _, occ := range occurrences {
		if occ.WalletID != wallet.ID {
			continue
		}
		switch occ.Type {
		case domain.TransactionTypeIncome:
			b = b.Add(occ.Amount)
		case domain.TransactionTypeExpense:
			b = b.Sub(occ.Amount)
		}
	}

	transactions, err := s.TransactionRepo.ListByMonth(ctx, currentMonth)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list current month transactions: %w", err)
	}
	for _, tx := range transactions {
		if tx.WalletID != wallet.ID || tx.Status != domain.TransactionStatusPending {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeIncome:
			b = b.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			b = b.Sub(tx.Amount)
		}
	}

	return b, nil
}

// pastBalance reverts the wallet to the end of the target month: first the
// plain confirmed transactions and transfers dated after it, then the
// credit-card settlement pass.
func (s *Service) pastBalance(ctx context.Context, wallet *domain.Wallet, currentMonth, target domain.Month) (decimal.Decimal, error) {
	b, err := s.revertTransactionsAfter(ctx, wallet, target)
	if err != nil {
		return decimal.Zero, err
	}

	b, err = s.revertCreditCardPayments(ctx, wallet, b, currentMonth, target)
	if err != nil {
		return decimal.Zero, err
	}

	s.Logger.Debug("reconstructed past balance",
		zap.String("wallet", wallet.Name),
		zap.String("month", target.String()),
		zap.String("balance", b.String()))

	return b, nil
}

// revertTransactionsAfter undoes every confirmed transaction and transfer
// dated strictly after the target month's end: reverting an income
// subtracts it back out, reverting an expense adds it back in. Pending
// events never touched the balance and are skipped.
func (s *Service) revertTransactionsAfter(ctx context.Context, wallet *domain.Wallet, target domain.Month) (decimal.Decimal, error) {
	after := target.End()

	transactions, err := s.TransactionRepo.ListByWalletAfter(ctx, wallet.ID, after)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list transactions after %s: %w", target, err)
	}

	b := wallet.Balance
	for _, tx := range transactions {
		if tx.Status != domain.TransactionStatusConfirmed {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeIncome:
			b = b.Sub(tx.Amount)
		case domain.TransactionTypeExpense:
			b = b.Add(tx.Amount)
		}
	}

	transfers, err := s.TransactionRepo.ListTransfersByWalletAfter(ctx, wallet.ID, after)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list transfers after %s: %w", target, err)
	}
	for _, tr := range transfers {
		// A transfer is an expense for the sender and an income for the
		// receiver; reverting flips both
		if tr.SenderWalletID == wallet.ID {
			b = b.Add(tr.Amount)
		}
		if tr.ReceiverWalletID == wallet.ID {
			b = b.Sub(tr.Amount)
		}
	}

	return b, nil
}

// revertCreditCardPayments is the second reversal pass. A payment's
// settlement date can fall in a different month than the debt it retires,
// so for every month strictly after the target up to now the effective paid
// amount is added back (undoing cash that left the wallet), and then the
// amount actually paid within the target month is subtracted (reapplying
// only what should have left by the target month's end).
func (s *Service) revertCreditCardPayments(
	ctx context.Context,
	wallet *domain.Wallet,
	b decimal.Decimal,
	currentMonth, target domain.Month,
) (decimal.Decimal, error) {
	for month := target.Next(); !month.After(currentMonth); month = month.Next() {
		paid, err := s.CreditCardRepo.EffectivePaidByMonth(ctx, wallet.ID, month)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get paid payments for %s: %w", month, err)
		}
		b = b.Add(paid)
	}

	paidInTarget, err := s.CreditCardRepo.EffectivePaidByMonth(ctx, wallet.ID, target)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get paid payments for %s: %w", target, err)
	}
	b = b.Sub(paidInTarget)

	return b, nil
}
