package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a wallet transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus represents whether a transaction has affected the
// wallet balance yet. Only CONFIRMED transactions have been applied.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
)

// Frequency represents how often a recurring transaction materializes
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Wallet represents a cash account. Balance is authoritative only for
// "now": it is mutated exclusively by confirmed ledger events and is never
// time-indexed. Historical balances are derived by reversal (see the
// balance usecase).
type Wallet struct {
	ID       uuid.UUID
	Name     string
	Balance  decimal.Decimal
	Archived bool
}

// WalletTransaction represents a single income or expense ledger event.
// Amount is always positive (absolute value); Type carries the sign.
type WalletTransaction struct {
	ID          uuid.UUID
	WalletID    uuid.UUID
	Type        TransactionType
	Status      TransactionStatus
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// Transfer represents a confirmed cash movement between two wallets.
// Reversal treats it as an expense for the sender and an income for the
// receiver.
type Transfer struct {
	ID               uuid.UUID
	SenderWalletID   uuid.UUID
	ReceiverWalletID uuid.UUID
	Amount           decimal.Decimal
	Date             time.Time
}

// CreditCardPayment represents one installment settling credit-card debt.
// WalletID is set when the installment is actually paid from a wallet; the
// due date, not the originating debt's date, decides which month the cash
// left the wallet in.
type CreditCardPayment struct {
	ID       uuid.UUID
	WalletID *uuid.UUID
	Amount   decimal.Decimal
	DueDate  time.Time
	Paid     bool
}

// RecurringDefaultEndDate marks an open-ended schedule. Schedules carrying
// it are projected forward but excluded from remaining-installment totals.
var RecurringDefaultEndDate = time.Date(2100, time.December, 31, 0, 0, 0, 0, time.UTC)

// RecurringTransaction is a schedule template. It is used only to project
// events that have not materialized yet; it never represents a real ledger
// entry.
type RecurringTransaction struct {
	ID                uuid.UUID
	WalletID          uuid.UUID
	Type              TransactionType
	Amount            decimal.Decimal
	Frequency         Frequency
	StartDate         time.Time
	// NextDueDate is the first occurrence still pending. Occurrences
	// before it have already materialized as real ledger entries.
	NextDueDate       time.Time
	EndDate           time.Time
	Description       string
	IncludeInNetWorth bool
}

// OpenEnded reports whether the schedule has no real end date.
func (r *RecurringTransaction) OpenEnded() bool {
	y1, m1, d1 := r.EndDate.Date()
	y2, m2, d2 := RecurringDefaultEndDate.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
