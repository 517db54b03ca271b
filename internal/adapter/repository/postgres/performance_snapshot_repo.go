package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// performanceSnapshotRepository implements domain.PerformanceSnapshotRepository
type performanceSnapshotRepository struct {
	db *DB
}

// NewPerformanceSnapshotRepository creates a new performance snapshot repository
func NewPerformanceSnapshotRepository(db *DB) domain.PerformanceSnapshotRepository {
	return &performanceSnapshotRepository{db: db}
}

const performanceColumns = `
	month, year, invested_value, portfolio_value, accumulated_gains,
	monthly_gains, calculated_at
`

// Get returns the snapshot for the month, or nil when absent
func (r *performanceSnapshotRepository) Get(ctx context.Context, month, year int) (*domain.PerformanceSnapshot, error) {
	query := `
		SELECT ` + performanceColumns + `
		FROM performance_snapshots
		WHERE month = $1 AND year = $2
	`

	snapshot, err := scanPerformanceSnapshot(r.db.QueryRowContext(ctx, query, month, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get performance snapshot: %w", err)
	}

	return snapshot, nil
}

// Upsert inserts or replaces the snapshot by its (month, year) key
func (r *performanceSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.PerformanceSnapshot) error {
	query := `
		INSERT INTO performance_snapshots (
			month, year, invested_value, portfolio_value, accumulated_gains,
			monthly_gains, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (month, year) DO UPDATE SET
			invested_value = EXCLUDED.invested_value,
			portfolio_value = EXCLUDED.portfolio_value,
			accumulated_gains = EXCLUDED.accumulated_gains,
			monthly_gains = EXCLUDED.monthly_gains,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.Month,
		snapshot.Year,
		snapshot.InvestedValue.String(),
		snapshot.PortfolioValue.String(),
		snapshot.AccumulatedGains.String(),
		snapshot.MonthlyGains.String(),
		snapshot.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert performance snapshot: %w", err)
	}

	return nil
}

// DeleteAll clears the cache
func (r *performanceSnapshotRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM performance_snapshots`); err != nil {
		return fmt.Errorf("failed to delete performance snapshots: %w", err)
	}
	return nil
}

// HasAny reports whether any snapshot exists
func (r *performanceSnapshotRepository) HasAny(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM performance_snapshots)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to probe performance snapshots: %w", err)
	}
	return exists, nil
}

// ListOrdered retrieves all snapshots in chronological order
func (r *performanceSnapshotRepository) ListOrdered(ctx context.Context) ([]*domain.PerformanceSnapshot, error) {
	query := `
		SELECT ` + performanceColumns + `
		FROM performance_snapshots
		ORDER BY year, month
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.PerformanceSnapshot
	for rows.Next() {
		snapshot, err := scanPerformanceSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate performance snapshots: %w", err)
	}

	return snapshots, nil
}

func scanPerformanceSnapshot(row scanner) (*domain.PerformanceSnapshot, error) {
	var snapshot domain.PerformanceSnapshot
	var investedStr, portfolioStr, accumulatedStr, monthlyStr string

	err := row.Scan(
		&snapshot.Month,
		&snapshot.Year,
		&investedStr,
		&portfolioStr,
		&accumulatedStr,
		&monthlyStr,
		&snapshot.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan performance snapshot: %w", err)
	}

	if snapshot.InvestedValue, err = decimal.NewFromString(investedStr); err != nil {
		return nil, fmt.Errorf("failed to parse invested_value: %w", err)
	}
	if snapshot.PortfolioValue, err = decimal.NewFromString(portfolioStr); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio_value: %w", err)
	}
	if snapshot.AccumulatedGains, err = decimal.NewFromString(accumulatedStr); err != nil {
		return nil, fmt.Errorf("failed to parse accumulated_gains: %w", err)
	}
	if snapshot.MonthlyGains, err = decimal.NewFromString(monthlyStr); err != nil {
		return nil, fmt.Errorf("failed to parse monthly_gains: %w", err)
	}

	return &snapshot, nil
}
