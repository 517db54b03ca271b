package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// netWorthSnapshotRepository implements domain.NetWorthSnapshotRepository
type netWorthSnapshotRepository struct {
	db *DB
}

// NewNetWorthSnapshotRepository creates a new net worth snapshot repository
func NewNetWorthSnapshotRepository(db *DB) domain.NetWorthSnapshotRepository {
	return &netWorthSnapshotRepository{db: db}
}

const netWorthColumns = `
	month, year, assets, liabilities, net_worth, wallet_balances,
	investments, credit_card_debt, negative_wallet_balances, calculated_at
`

// Get returns the snapshot for the month, or nil when absent
func (r *netWorthSnapshotRepository) Get(ctx context.Context, month, year int) (*domain.NetWorthSnapshot, error) {
	query := `
		SELECT ` + netWorthColumns + `
		FROM net_worth_snapshots
		WHERE month = $1 AND year = $2
	`

	snapshot, err := scanNetWorthSnapshot(r.db.QueryRowContext(ctx, query, month, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get net worth snapshot: %w", err)
	}

	return snapshot, nil
}

// Upsert inserts or replaces the snapshot by its (month, year) key
func (r *netWorthSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.NetWorthSnapshot) error {
	query := `
		INSERT INTO net_worth_snapshots (
			month, year, assets, liabilities, net_worth, wallet_balances,
			investments, credit_card_debt, negative_wallet_balances, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (month, year) DO UPDATE SET
			assets = EXCLUDED.assets,
			liabilities = EXCLUDED.liabilities,
			net_worth = EXCLUDED.net_worth,
			wallet_balances = EXCLUDED.wallet_balances,
			investments = EXCLUDED.investments,
			credit_card_debt = EXCLUDED.credit_card_debt,
			negative_wallet_balances = EXCLUDED.negative_wallet_balances,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.Month,
		snapshot.Year,
		snapshot.Assets.String(),
		snapshot.Liabilities.String(),
		snapshot.NetWorth.String(),
		snapshot.WalletBalances.String(),
		snapshot.Investments.String(),
		snapshot.CreditCardDebt.String(),
		snapshot.NegativeWalletBalances.String(),
		snapshot.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert net worth snapshot: %w", err)
	}

	return nil
}

// DeleteAll clears the cache
func (r *netWorthSnapshotRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM net_worth_snapshots`); err != nil {
		return fmt.Errorf("failed to delete net worth snapshots: %w", err)
	}
	return nil
}

// HasAny reports whether any snapshot exists
func (r *netWorthSnapshotRepository) HasAny(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM net_worth_snapshots)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to probe net worth snapshots: %w", err)
	}
	return exists, nil
}

// ListOrdered retrieves all snapshots in chronological order
func (r *netWorthSnapshotRepository) ListOrdered(ctx context.Context) ([]*domain.NetWorthSnapshot, error) {
	query := `
		SELECT ` + netWorthColumns + `
		FROM net_worth_snapshots
		ORDER BY year, month
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list net worth snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.NetWorthSnapshot
	for rows.Next() {
		snapshot, err := scanNetWorthSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate net worth snapshots: %w", err)
	}

	return snapshots, nil
}

func scanNetWorthSnapshot(row scanner) (*domain.NetWorthSnapshot, error) {
	var snapshot domain.NetWorthSnapshot
	var assetsStr, liabilitiesStr, netWorthStr, balancesStr string
	var investmentsStr, debtStr, negativesStr string

	err := row.Scan(
		&snapshot.Month,
		&snapshot.Year,
		&assetsStr,
		&liabilitiesStr,
		&netWorthStr,
		&balancesStr,
		&investmentsStr,
		&debtStr,
		&negativesStr,
		&snapshot.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan net worth snapshot: %w", err)
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
		col string
	}{
		{&snapshot.Assets, assetsStr, "assets"},
		{&snapshot.Liabilities, liabilitiesStr, "liabilities"},
		{&snapshot.NetWorth, netWorthStr, "net_worth"},
		{&snapshot.WalletBalances, balancesStr, "wallet_balances"},
		{&snapshot.Investments, investmentsStr, "investments"},
		{&snapshot.CreditCardDebt, debtStr, "credit_card_debt"},
		{&snapshot.NegativeWalletBalances, negativesStr, "negative_wallet_balances"},
	}
	for _, f := range fields {
		value, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.col, err)
		}
		*f.dst = value
	}

	return &snapshot, nil
}
