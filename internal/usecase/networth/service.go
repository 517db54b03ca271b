package networth

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/balance"
	"github.com/plutusapp/plutus-backend/internal/usecase/projection"
	"github.com/plutusapp/plutus-backend/internal/usecase/snapshot"
	"github.com/plutusapp/plutus-backend/internal/usecase/valuation"
)

// Service reconstructs monthly net worth and orchestrates full snapshot
// rebuilds. A rebuild deletes the whole cache and recomputes every month
// from the earliest wallet activity through the future horizon, persisting
// each month before moving to the next, so a partially completed rebuild
// still leaves a contiguous prefix of valid snapshots.
type Service struct {
	WalletRepo      domain.WalletRepository
	TransactionRepo domain.TransactionRepository
	CreditCardRepo  domain.CreditCardRepository
	Balance         *balance.Service
	Valuation       *valuation.Service
	Projector       *projection.Service
	Snapshots       *snapshot.NetWorthService
	Logger          *zap.Logger

	futureHorizonMonths int
	rebuilding          atomic.Bool
	now                 func() time.Time
}

// NewService creates a new networth Service instance
func NewService(
	walletRepo domain.WalletRepository,
	transactionRepo domain.TransactionRepository,
	creditCardRepo domain.CreditCardRepository,
	balanceService *balance.Service,
	valuationService *valuation.Service,
	projector *projection.Service,
	snapshots *snapshot.NetWorthService,
	logger *zap.Logger,
	futureHorizonMonths int,
) *Service {
	return &Service{
		WalletRepo:          walletRepo,
		TransactionRepo:     transactionRepo,
		CreditCardRepo:      creditCardRepo,
		Balance:             balanceService,
		Valuation:           valuationService,
		Projector:           projector,
		Snapshots:           snapshots,
		Logger:              logger,
		futureHorizonMonths: futureHorizonMonths,
		now:                 time.Now,
	}
}

// NetWorthForMonth reconstructs the full net-worth breakdown for the month
// directly from the ledgers. The snapshot cache is never consulted; this is
// the computation the rebuild persists.
func (s *Service) NetWorthForMonth(ctx context.Context, month domain.Month) (*domain.NetWorthSnapshot, error) {
	wallets, err := s.WalletRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return s.computeMonth(ctx, wallets, month)
}

// WalletNetWorthForMonth reconstructs a single wallet's signed balance for
// the month.
func (s *Service) WalletNetWorthForMonth(ctx context.Context, walletID uuid.UUID, month domain.Month) (decimal.Decimal, error) {
	wallet, err := s.WalletRepo.GetByID(ctx, walletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get wallet: %w", err)
	}
	return s.Balance.WalletBalanceForMonth(ctx, wallet, month)
}

// History returns the stored net-worth snapshots in chronological order
func (s *Service) History(ctx context.Context) ([]*domain.NetWorthSnapshot, error) {
	return s.Snapshots.ListOrdered(ctx)
}

// RecalculateAllSnapshots rebuilds the entire net-worth snapshot cache on a
// background goroutine. Only one rebuild runs at a time: a concurrent call
// is a no-op and observes an already-closed channel. The caller reads the
// returned channel for the terminal result; nil means the rebuild finished.
func (s *Service) RecalculateAllSnapshots(ctx context.Context) <-chan error {
	if !s.rebuilding.CompareAndSwap(false, true) {
		s.Logger.Info("net worth rebuild already running, request ignored")
		done := make(chan error)
		close(done)
		return done
	}

	result := make(chan error, 1)

	// The rebuild must not die with the request that triggered it
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.rebuilding.Store(false)
		defer close(result)

		if err := s.rebuild(bgCtx); err != nil {
			s.Logger.Error("net worth rebuild failed", zap.Error(err))
			result <- err
			return
		}
		s.Logger.Info("net worth rebuild finished")
	}()

	return result
}

func (s *Service) rebuild(ctx context.Context) error {
	if err := s.Snapshots.DeleteAll(ctx); err != nil {
		return err
	}

	wallets, err := s.WalletRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list wallets: %w", err)
	}

	now := s.now()
	first := domain.MonthOf(now)
	for _, wallet := range wallets {
		firstTx, err := s.TransactionRepo.FirstTransactionDate(ctx, wallet.ID)
		if err != nil {
			return fmt.Errorf("failed to get first transaction date for %s: %w", wallet.Name, err)
		}
		if firstTx != nil {
			if m := domain.MonthOf(*firstTx); m.Before(first) {
				first = m
			}
		}
	}

	last := domain.MonthOf(now).AddMonths(s.futureHorizonMonths)
	for month := first; !month.After(last); month = month.Next() {
		snap, err := s.computeMonth(ctx, wallets, month)
		if err != nil {
			return fmt.Errorf("failed to compute net worth for %s: %w", month, err)
		}
		if err := s.Snapshots.Save(ctx, snap); err != nil {
			return err
		}

		s.Logger.Debug("net worth snapshot persisted",
			zap.String("month", month.String()),
			zap.String("net_worth", snap.NetWorth.String()))
	}

	return nil
}

// computeMonth assembles the month's breakdown:
//
//	assets      = positive wallet balances + investments + remaining recurring income
//	liabilities = credit-card debt + negative wallet balances + remaining recurring expenses
//	net worth   = assets − liabilities
func (s *Service) computeMonth(ctx context.Context, wallets []*domain.Wallet, month domain.Month) (*domain.NetWorthSnapshot, error) {
	walletBalances, negatives, err := s.Balance.BalancesForMonth(ctx, wallets, month)
	if err != nil {
		return nil, err
	}

	investments, err := s.Valuation.InvestmentValueForMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	remainingIncome, err := s.Projector.RemainingByType(ctx, month, domain.TransactionTypeIncome)
	if err != nil {
		return nil, err
	}
	remainingExpense, err := s.Projector.RemainingByType(ctx, month, domain.TransactionTypeExpense)
	if err != nil {
		return nil, err
	}

	debt, err := s.CreditCardRepo.DebtAt(ctx, month.EndOrNow(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get credit card debt: %w", err)
	}

	assets := walletBalances.Add(investments).Add(remainingIncome)
	liabilities := debt.Add(negatives).Add(remainingExpense)

	return &domain.NetWorthSnapshot{
		Month:                  int(month.Month),
		Year:                   month.Year,
		Assets:                 assets,
		Liabilities:            liabilities,
		NetWorth:               assets.Sub(liabilities),
		WalletBalances:         walletBalances,
		Investments:            investments,
		CreditCardDebt:         debt,
		NegativeWalletBalances: negatives,
	}, nil
}
