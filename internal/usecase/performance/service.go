package performance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/gains"
	"github.com/plutusapp/plutus-backend/internal/usecase/snapshot"
)

// Service serves the investment-performance series over a trailing window
// of months, backed by the snapshot cache. Reads are served from cache when
// every month of the window is present; otherwise the series is recomputed
// once for the whole window and the missing months are persisted.
type Service struct {
	Gains     *gains.Service
	Snapshots *snapshot.PerformanceService
	Logger    *zap.Logger

	windowMonths int
	rebuilding   atomic.Bool
	now          func() time.Time
}

// NewService creates a new performance Service instance
func NewService(
	gainsService *gains.Service,
	snapshots *snapshot.PerformanceService,
	logger *zap.Logger,
	windowMonths int,
) *Service {
	return &Service{
		Gains:        gainsService,
		Snapshots:    snapshots,
		Logger:       logger,
		windowMonths: windowMonths,
		now:          time.Now,
	}
}

// window returns the trailing windowMonths+1 months ending at the current
// month, oldest first.
func (s *Service) window() []domain.Month {
	currentMonth := domain.MonthOf(s.now())
	return domain.MonthRange(currentMonth.AddMonths(-s.windowMonths), currentMonth)
}

// GetPerformanceData returns the four series for the trailing window.
//
// Warm path: every month cached, no computation. Cold or partially filled
// cache: the series is batch-computed once, but cached months are still
// served from the cache; only the months that were missing are answered
// from the recomputation and persisted, so a stale entry is never silently
// contradicted or overwritten outside a full rebuild. A month that cannot
// be persisted is logged and skipped; the remaining months still land.
func (s *Service) GetPerformanceData(ctx context.Context) (*domain.PerformanceSeries, error) {
	months := s.window()
	series := domain.NewPerformanceSeries(months)

	cached := make(map[domain.Month]*domain.PerformanceSnapshot, len(months))
	missing := make([]domain.Month, 0)
	for _, month := range months {
		snap, err := s.Snapshots.Get(ctx, month)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			missing = append(missing, month)
			continue
		}
		cached[month] = snap
	}

	if len(missing) == 0 {
		for _, month := range months {
			snap := cached[month]
			series.InvestedValue[month] = snap.InvestedValue
			series.PortfolioValue[month] = snap.PortfolioValue
			series.AccumulatedGains[month] = snap.AccumulatedGains
			series.MonthlyGains[month] = snap.MonthlyGains
		}
		return series, nil
	}

	s.Logger.Info("performance cache incomplete, computing window",
		zap.Int("missing_months", len(missing)),
		zap.Int("window_months", len(months)))

	computed, err := s.computeSeries(ctx, months)
	if err != nil {
		return nil, err
	}

	for _, month := range months {
		if snap, ok := cached[month]; ok {
			series.InvestedValue[month] = snap.InvestedValue
			series.PortfolioValue[month] = snap.PortfolioValue
			series.AccumulatedGains[month] = snap.AccumulatedGains
			series.MonthlyGains[month] = snap.MonthlyGains
			continue
		}

		series.InvestedValue[month] = computed.InvestedValue[month]
		series.PortfolioValue[month] = computed.PortfolioValue[month]
		series.AccumulatedGains[month] = computed.AccumulatedGains[month]
		series.MonthlyGains[month] = computed.MonthlyGains[month]

		snap := &domain.PerformanceSnapshot{
			Month:            int(month.Month),
			Year:             month.Year,
			InvestedValue:    computed.InvestedValue[month],
			PortfolioValue:   computed.PortfolioValue[month],
			AccumulatedGains: computed.AccumulatedGains[month],
			MonthlyGains:     computed.MonthlyGains[month],
		}
		if err := s.Snapshots.Save(ctx, snap); err != nil {
			s.Logger.Warn("failed to cache performance month, continuing",
				zap.String("month", month.String()),
				zap.Error(err))
		}
	}

	return series, nil
}

// computeSeries evaluates the four series once and projects them onto the
// requested months. Months without any investment activity read as zero.
func (s *Service) computeSeries(ctx context.Context, months []domain.Month) (*domain.PerformanceSeries, error) {
	invested, err := s.Gains.MonthlyInvestedValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute invested value series: %w", err)
	}
	portfolio, err := s.Gains.MonthlyPortfolioValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute portfolio value series: %w", err)
	}
	monthly, err := s.Gains.MonthlyCapitalGains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly gains series: %w", err)
	}
	accumulated, err := s.Gains.AccumulatedCapitalGains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute accumulated gains series: %w", err)
	}

	series := domain.NewPerformanceSeries(months)
	for _, month := range months {
		series.InvestedValue[month] = invested[month]
		series.PortfolioValue[month] = portfolio[month]
		series.AccumulatedGains[month] = accumulated[month]
		series.MonthlyGains[month] = monthly[month]
	}

	return series, nil
}

// RecalculateAllSnapshots rebuilds the performance snapshot cache on a
// background goroutine, from the series' first activity month through the
// current month in chronological order. Single-flight: a concurrent call is
// a no-op observing an already-closed channel.
func (s *Service) RecalculateAllSnapshots(ctx context.Context) <-chan error {
	if !s.rebuilding.CompareAndSwap(false, true) {
		s.Logger.Info("performance rebuild already running, request ignored")
		done := make(chan error)
		close(done)
		return done
	}

	result := make(chan error, 1)

	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.rebuilding.Store(false)
		defer close(result)

		if err := s.rebuild(bgCtx); err != nil {
			s.Logger.Error("performance rebuild failed", zap.Error(err))
			result <- err
			return
		}
		s.Logger.Info("performance rebuild finished")
	}()

	return result
}

func (s *Service) rebuild(ctx context.Context) error {
	if err := s.Snapshots.DeleteAll(ctx); err != nil {
		return err
	}

	first, found, err := s.Gains.FirstSeriesMonth(ctx)
	if err != nil {
		return err
	}
	if !found {
		s.Logger.Info("no investment activity, performance rebuild is empty")
		return nil
	}

	months := domain.MonthRange(first, domain.MonthOf(s.now()))
	computed, err := s.computeSeries(ctx, months)
	if err != nil {
		return err
	}

	for _, month := range months {
		snap := &domain.PerformanceSnapshot{
			Month:            int(month.Month),
			Year:             month.Year,
			InvestedValue:    computed.InvestedValue[month],
			PortfolioValue:   computed.PortfolioValue[month],
			AccumulatedGains: computed.AccumulatedGains[month],
			MonthlyGains:     computed.MonthlyGains[month],
		}
		if err := s.Snapshots.Save(ctx, snap); err != nil {
			return err
		}
	}

	return nil
}
