package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// NetWorthService manages the monthly net-worth snapshot cache. It stamps
// CalculatedAt on save so readers can tell how stale an entry is.
type NetWorthService struct {
	Repo domain.NetWorthSnapshotRepository

	now func() time.Time
}

// NewNetWorthService creates a new NetWorthService instance
func NewNetWorthService(repo domain.NetWorthSnapshotRepository) *NetWorthService {
	return &NetWorthService{Repo: repo, now: time.Now}
}

// Get returns the cached snapshot for the month, or nil when absent
func (s *NetWorthService) Get(ctx context.Context, month domain.Month) (*domain.NetWorthSnapshot, error) {
	snapshot, err := s.Repo.Get(ctx, int(month.Month), month.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to get net worth snapshot for %s: %w", month, err)
	}
	return snapshot, nil
}

// Save upserts the snapshot by its (month, year) key
func (s *NetWorthService) Save(ctx context.Context, snapshot *domain.NetWorthSnapshot) error {
	snapshot.CalculatedAt = s.now()
	if err := s.Repo.Upsert(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save net worth snapshot for %d-%02d: %w",
			snapshot.Year, snapshot.Month, err)
	}
	return nil
}

// DeleteAll clears the cache
func (s *NetWorthService) DeleteAll(ctx context.Context) error {
	if err := s.Repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear net worth snapshots: %w", err)
	}
	return nil
}

// HasAny reports whether the cache holds at least one snapshot
func (s *NetWorthService) HasAny(ctx context.Context) (bool, error) {
	ok, err := s.Repo.HasAny(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to probe net worth snapshots: %w", err)
	}
	return ok, nil
}

// ListOrdered retrieves all snapshots in chronological order
func (s *NetWorthService) ListOrdered(ctx context.Context) ([]*domain.NetWorthSnapshot, error) {
	snapshots, err := s.Repo.ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list net worth snapshots: %w", err)
	}
	return snapshots, nil
}

// PerformanceService manages the monthly investment-performance snapshot
// cache, mirroring NetWorthService.
type PerformanceService struct {
	Repo domain.PerformanceSnapshotRepository

	now func() time.Time
}

// NewPerformanceService creates a new PerformanceService instance
func NewPerformanceService(repo domain.PerformanceSnapshotRepository) *PerformanceService {
	return &PerformanceService{Repo: repo, now: time.Now}
}

// Get returns the cached snapshot for the month, or nil when absent
func (s *PerformanceService) Get(ctx context.Context, month domain.Month) (*domain.PerformanceSnapshot, error) {
	snapshot, err := s.Repo.Get(ctx, int(month.Month), month.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance snapshot for %s: %w", month, err)
	}
	return snapshot, nil
}

// Save upserts the snapshot by its (month, year) key
func (s *PerformanceService) Save(ctx context.Context, snapshot *domain.PerformanceSnapshot) error {
	snapshot.CalculatedAt = s.now()
	if err := s.Repo.Upsert(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save performance snapshot for %d-%02d: %w",
			snapshot.Year, snapshot.Month, err)
	}
	return nil
}

// DeleteAll clears the cache
func (s *PerformanceService) DeleteAll(ctx context.Context) error {
	if err := s.Repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear performance snapshots: %w", err)
	}
	return nil
}

// HasAny reports whether the cache holds at least one snapshot
func (s *PerformanceService) HasAny(ctx context.Context) (bool, error) {
	ok, err := s.Repo.HasAny(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to probe performance snapshots: %w", err)
	}
	return ok, nil
}

// ListOrdered retrieves all snapshots in chronological order
func (s *PerformanceService) ListOrdered(ctx context.Context) ([]*domain.PerformanceSnapshot, error) {
	snapshots, err := s.Repo.ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance snapshots: %w", err)
	}
	return snapshots, nil
}
