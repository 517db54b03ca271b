package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// ListByWalletAfter retrieves the wallet's transactions dated strictly
// after the given instant, any status
func (r *transactionRepository) ListByWalletAfter(ctx context.Context, walletID uuid.UUID, after time.Time) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, type, status, amount, date, description
		FROM wallet_transactions
		WHERE wallet_id = $1 AND date > $2
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, walletID, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions after date: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByMonth retrieves all transactions dated inside the given month
func (r *transactionRepository) ListByMonth(ctx context.Context, month domain.Month) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, type, status, amount, date, description
		FROM wallet_transactions
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, month.Start(), month.End())
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by month: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListTransfersByWalletAfter retrieves transfers involving the wallet (as
// sender or receiver) dated strictly after the given instant
func (r *transactionRepository) ListTransfersByWalletAfter(ctx context.Context, walletID uuid.UUID, after time.Time) ([]*domain.Transfer, error) {
	query := `
		SELECT id, sender_wallet_id, receiver_wallet_id, amount, date
		FROM transfers
		WHERE (sender_wallet_id = $1 OR receiver_wallet_id = $1) AND date > $2
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, walletID, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers after date: %w", err)
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		var transfer domain.Transfer
		var amountStr string

		err := rows.Scan(
			&transfer.ID,
			&transfer.SenderWalletID,
			&transfer.ReceiverWalletID,
			&amountStr,
			&transfer.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transfer amount: %w", err)
		}
		transfer.Amount = amount

		transfers = append(transfers, &transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfers: %w", err)
	}

	return transfers, nil
}

// FirstTransactionDate returns the wallet's earliest transaction or
// transfer date, or nil when the wallet has no ledger activity
func (r *transactionRepository) FirstTransactionDate(ctx context.Context, walletID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT MIN(date) FROM (
			SELECT date FROM wallet_transactions WHERE wallet_id = $1
			UNION ALL
			SELECT date FROM transfers WHERE sender_wallet_id = $1 OR receiver_wallet_id = $1
		) dates
	`

	var first sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, walletID).Scan(&first); err != nil {
		return nil, fmt.Errorf("failed to get first transaction date: %w", err)
	}
	if !first.Valid {
		return nil, nil
	}

	return &first.Time, nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.WalletTransaction, error) {
	var transactions []*domain.WalletTransaction
	for rows.Next() {
		var tx domain.WalletTransaction
		var amountStr string

		err := rows.Scan(
			&tx.ID,
			&tx.WalletID,
			&tx.Type,
			&tx.Status,
			&amountStr,
			&tx.Date,
			&tx.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction amount: %w", err)
		}
		tx.Amount = amount

		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}
