package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository defines the read-only query surface over wallets
type WalletRepository interface {
	// List retrieves all non-archived wallets ordered by name
	List(ctx context.Context) ([]*Wallet, error)

	// GetByID retrieves a wallet by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
}

// TransactionRepository defines the read-only query surface over wallet
// transactions and transfers
type TransactionRepository interface {
	// ListByWalletAfter retrieves the wallet's transactions dated strictly
	// after the given instant, any status
	ListByWalletAfter(ctx context.Context, walletID uuid.UUID, after time.Time) ([]*WalletTransaction, error)

	// ListByMonth retrieves all transactions dated inside the given month
	ListByMonth(ctx context.Context, month Month) ([]*WalletTransaction, error)

	// ListTransfersByWalletAfter retrieves transfers involving the wallet
	// (as sender or receiver) dated strictly after the given instant
	ListTransfersByWalletAfter(ctx context.Context, walletID uuid.UUID, after time.Time) ([]*Transfer, error)

	// FirstTransactionDate returns the wallet's earliest transaction or
	// transfer date, or nil when the wallet has no ledger activity
	FirstTransactionDate(ctx context.Context, walletID uuid.UUID) (*time.Time, error)
}

// CreditCardRepository defines the read-only query surface over credit-card
// debts and payments
type CreditCardRepository interface {
	// EffectivePaidByMonth returns the total of paid installments charged
	// to the wallet with a due date inside the given month
	EffectivePaidByMonth(ctx context.Context, walletID uuid.UUID, month Month) (decimal.Decimal, error)

	// DebtAt returns the outstanding credit-card debt at the given instant:
	// debts created at or before it minus payments settled at or before it
	DebtAt(ctx context.Context, at time.Time) (decimal.Decimal, error)
}

// RecurringRepository defines the read-only query surface over recurring
// transaction schedules
type RecurringRepository interface {
	// ListActive retrieves all active schedules
	ListActive(ctx context.Context) ([]*RecurringTransaction, error)
}

// TickerRepository defines the read-only query surface over tradable
// assets and their trade history
type TickerRepository interface {
	// ListNonArchived retrieves all non-archived tickers ordered by symbol
	ListNonArchived(ctx context.Context) ([]*Ticker, error)

	// ListPurchases retrieves the ticker's purchases ordered by date
	ListPurchases(ctx context.Context, tickerID uuid.UUID) ([]*TickerPurchase, error)

	// ListSales retrieves the ticker's sales ordered by date
	ListSales(ctx context.Context, tickerID uuid.UUID) ([]*TickerSale, error)

	// ListDividends retrieves every dividend across all tickers
	ListDividends(ctx context.Context) ([]*Dividend, error)
}

// BondRepository defines the read-only query surface over bonds and their
// operations
type BondRepository interface {
	// ListNonArchived retrieves all non-archived bonds ordered by name
	ListNonArchived(ctx context.Context) ([]*Bond, error)

	// ListOperations retrieves the bond's operations ordered by date
	ListOperations(ctx context.Context, bondID uuid.UUID) ([]*BondOperation, error)
}

// PriceHistoryRepository defines the lookup surface over the sparse price
// history
type PriceHistoryRepository interface {
	// ClosestBefore returns the price observation closest to, and not
	// after, the given date. ok is false when no earlier observation
	// exists; that is a data gap, not an error.
	ClosestBefore(ctx context.Context, tickerID uuid.UUID, date time.Time) (price decimal.Decimal, ok bool, err error)
}

// IndicatorRepository defines the lookup surface over market indicator
// history (business days only)
type IndicatorRepository interface {
	// Between retrieves the indicator's observations inside [from, to],
	// ordered by date
	Between(ctx context.Context, index InterestIndex, from, to time.Time) ([]*IndicatorRate, error)
}

// BondInterestRepository persists the monthly bond interest records
type BondInterestRepository interface {
	// LastCalculated returns the record with the latest reference month
	// for the bond, or nil when none exists
	LastCalculated(ctx context.Context, bondID uuid.UUID) (*BondInterestRecord, error)

	// LatestNotAfter returns the record with the latest reference month
	// not after the given month, or nil when none exists
	LatestNotAfter(ctx context.Context, bondID uuid.UUID, month Month) (*BondInterestRecord, error)

	// GetByMonth returns the bond's record for the exact reference month,
	// or nil when none exists
	GetByMonth(ctx context.Context, bondID uuid.UUID, month Month) (*BondInterestRecord, error)

	// Upsert inserts or replaces the record keyed by (bond, reference month)
	Upsert(ctx context.Context, record *BondInterestRecord) error
}

// NetWorthSnapshotRepository persists cached net-worth computations keyed
// by (month, year)
type NetWorthSnapshotRepository interface {
	// Get returns the snapshot for the month, or nil when absent
	Get(ctx context.Context, month, year int) (*NetWorthSnapshot, error)

	// Upsert inserts or replaces the snapshot by its (month, year) key
	Upsert(ctx context.Context, snapshot *NetWorthSnapshot) error

	// DeleteAll clears the cache
	DeleteAll(ctx context.Context) error

	// HasAny reports whether any snapshot exists
	HasAny(ctx context.Context) (bool, error)

	// ListOrdered retrieves all snapshots in chronological order
	ListOrdered(ctx context.Context) ([]*NetWorthSnapshot, error)
}

// PerformanceSnapshotRepository persists cached investment-performance
// computations keyed by (month, year)
type PerformanceSnapshotRepository interface {
	// Get returns the snapshot for the month, or nil when absent
	Get(ctx context.Context, month, year int) (*PerformanceSnapshot, error)

	// Upsert inserts or replaces the snapshot by its (month, year) key
	Upsert(ctx context.Context, snapshot *PerformanceSnapshot) error

	// DeleteAll clears the cache
	DeleteAll(ctx context.Context) error

	// HasAny reports whether any snapshot exists
	HasAny(ctx context.Context) (bool, error)

	// ListOrdered retrieves all snapshots in chronological order
	ListOrdered(ctx context.Context) ([]*PerformanceSnapshot, error)
}
