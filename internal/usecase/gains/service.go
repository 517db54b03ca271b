package gains

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/valuation"
)

// Service aggregates realized trade gains, dividends, bond interest and
// unrealized appreciation into the four monthly performance series.
type Service struct {
	TickerRepo       domain.TickerRepository
	BondRepo         domain.BondRepository
	PriceRepo        domain.PriceHistoryRepository
	BondInterestRepo domain.BondInterestRepository
	Valuation        *valuation.Service

	now func() time.Time
}

// NewService creates a new gains Service instance
func NewService(
	tickerRepo domain.TickerRepository,
	bondRepo domain.BondRepository,
	priceRepo domain.PriceHistoryRepository,
	bondInterestRepo domain.BondInterestRepository,
	valuationService *valuation.Service,
) *Service {
	return &Service{
		TickerRepo:       tickerRepo,
		BondRepo:         bondRepo,
		PriceRepo:        priceRepo,
		BondInterestRepo: bondInterestRepo,
		Valuation:        valuationService,
		now:              time.Now,
	}
}

// tickerHistory bundles a ticker with its full trade history so the series
// builders fetch each ticker's trades exactly once.
type tickerHistory struct {
	ticker    *domain.Ticker
	purchases []*domain.TickerPurchase
	sales     []*domain.TickerSale
	first     domain.Month
}

func (s *Service) loadTickerHistories(ctx context.Context) ([]tickerHistory, error) {
	tickers, err := s.TickerRepo.ListNonArchived(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	histories := make([]tickerHistory, 0, len(tickers))
	for _, ticker := range tickers {
		purchases, err := s.TickerRepo.ListPurchases(ctx, ticker.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list purchases for %s: %w", ticker.Symbol, err)
		}
		sales, err := s.TickerRepo.ListSales(ctx, ticker.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sales for %s: %w", ticker.Symbol, err)
		}

		first, ok := valuation.FirstActivityMonth(ticker, purchases)
		if !ok {
			continue
		}

		histories = append(histories, tickerHistory{
			ticker:    ticker,
			purchases: purchases,
			sales:     sales,
			first:     first,
		})
	}

	return histories, nil
}

type bondHistory struct {
	bond       *domain.Bond
	operations []*domain.BondOperation
	first      domain.Month
}

func (s *Service) loadBondHistories(ctx context.Context) ([]bondHistory, error) {
	bonds, err := s.BondRepo.ListNonArchived(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}

	histories := make([]bondHistory, 0, len(bonds))
	for _, bond := range bonds {
		operations, err := s.BondRepo.ListOperations(ctx, bond.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list operations for %s: %w", bond.Name, err)
		}
		if len(operations) == 0 {
			continue
		}

		earliest := operations[0].Date
		for _, op := range operations[1:] {
			if op.Date.Before(earliest) {
				earliest = op.Date
			}
		}

		histories = append(histories, bondHistory{
			bond:       bond,
			operations: operations,
			first:      domain.MonthOf(earliest),
		})
	}

	return histories, nil
}

// FirstSeriesMonth derives where the whole series starts: the earliest
// month across all tickers' first activity, all dividends, and all bond
// operations. ok is false when no investment activity exists at all.
func (s *Service) FirstSeriesMonth(ctx context.Context) (domain.Month, bool, error) {
	var first domain.Month
	found := false

	observe := func(m domain.Month) {
		if !found || m.Before(first) {
			first = m
			found = true
		}
	}

	tickerHistories, err := s.loadTickerHistories(ctx)
	if err != nil {
		return domain.Month{}, false, err
	}
	for _, h := range tickerHistories {
		observe(h.first)
	}

	dividends, err := s.TickerRepo.ListDividends(ctx)
	if err != nil {
		return domain.Month{}, false, fmt.Errorf("failed to list dividends: %w", err)
	}
	for _, d := range dividends {
		observe(domain.MonthOf(d.Date))
	}

	bondHistories, err := s.loadBondHistories(ctx)
	if err != nil {
		return domain.Month{}, false, err
	}
	for _, h := range bondHistories {
		observe(h.first)
	}

	return first, found, nil
}

// MonthlyInvestedValue computes, per month, the cost basis of the held
// position: month-end quantity × running average cost for tickers, plus
// each bond's cumulative invested value (clamped at zero).
func (s *Service) MonthlyInvestedValue(ctx context.Context) (map[domain.Month]decimal.Decimal, error) {
	invested := make(map[domain.Month]decimal.Decimal)

	tickerHistories, err := s.loadTickerHistories(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range tickerHistories {
		quantityByMonth := s.Valuation.QuantityByMonthEnd(h.ticker, h.purchases, h.sales, h.first)
		for month, quantity := range quantityByMonth {
			if quantity.LessThanOrEqual(decimal.Zero) {
				continue
			}
			addTo(invested, month, h.ticker.AverageUnitValue.Mul(quantity))
		}
	}

	if err := s.addBondCumulativeByMonth(ctx, invested); err != nil {
		return nil, err
	}

	return invested, nil
}

// MonthlyPortfolioValue computes, per month, the market value of the held
// position at month end (today for the current month). Tickers with no
// price observation for a month are skipped for that month, logged as a
// data gap.
func (s *Service) MonthlyPortfolioValue(ctx context.Context) (map[domain.Month]decimal.Decimal, error) {
	portfolio := make(map[domain.Month]decimal.Decimal)
	now := s.now()

	tickerHistories, err := s.loadTickerHistories(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range tickerHistories {
		quantityByMonth := s.Valuation.QuantityByMonthEnd(h.ticker, h.purchases, h.sales, h.first)
		for month, quantity := range quantityByMonth {
			if quantity.LessThanOrEqual(decimal.Zero) {
				continue
			}

			price, ok, err := s.Valuation.PriceAt(ctx, h.ticker.ID, month.EndOrNow(now))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			addTo(portfolio, month, quantity.Mul(price))
		}
	}

	if err := s.addBondCumulativeByMonth(ctx, portfolio); err != nil {
		return nil, err
	}

	return portfolio, nil
}

// addBondCumulativeByMonth folds each bond's cumulative invested value into
// the series, month by month from its first operation through now. Zero or
// negative cumulative values are excluded, not emitted.
func (s *Service) addBondCumulativeByMonth(ctx context.Context, series map[domain.Month]decimal.Decimal) error {
	currentMonth := domain.MonthOf(s.now())

	bondHistories, err := s.loadBondHistories(ctx)
	if err != nil {
		return err
	}
	for _, h := range bondHistories {
		for month := h.first; !month.After(currentMonth); month = month.Next() {
			cumulative := valuation.BondCumulativeValueAt(h.operations, month.End())
			if cumulative.GreaterThan(decimal.Zero) {
				addTo(series, month, cumulative)
			}
		}
	}

	return nil
}

// MonthlyCapitalGains computes the per-month gain: dividends at receipt
// month, bond sale net profit and ticker realized gains at sale month, and
// unrealized appreciation attributed via the sub-period split.
func (s *Service) MonthlyCapitalGains(ctx context.Context) (map[domain.Month]decimal.Decimal, error) {
	gains := make(map[domain.Month]decimal.Decimal)

	dividends, err := s.TickerRepo.ListDividends(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dividends: %w", err)
	}
	for _, d := range dividends {
		addTo(gains, domain.MonthOf(d.Date), d.Amount)
	}

	bondHistories, err := s.loadBondHistories(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range bondHistories {
		for _, op := range h.operations {
			if op.Type == domain.BondOperationSell && op.NetProfit != nil {
				addTo(gains, domain.MonthOf(op.Date), *op.NetProfit)
			}
		}
	}

	tickerHistories, err := s.loadTickerHistories(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range tickerHistories {
		for _, sale := range h.sales {
			addTo(gains, domain.MonthOf(sale.Date), sale.RealizedGain())
		}

		currentMonth := domain.MonthOf(s.now())
		for month := h.first; !month.After(currentMonth); month = month.Next() {
			appreciation, err := s.monthAppreciation(ctx, h, month)
			if err != nil {
				return nil, err
			}
			if !appreciation.IsZero() {
				addTo(gains, month, appreciation)
			}
		}
	}

	return gains, nil
}

// monthAppreciation computes one ticker's unrealized appreciation for one
// month by splitting the month into sub-periods at every trade date inside
// it (plus month start and month end/today) and summing
// (price(periodEnd) − price(periodStart)) × quantityHeldDuringPeriod.
// The split keeps a mid-month quantity change from inflating the
// appreciation of shares already held; an asset first bought mid-month
// starts appreciating at its purchase date. Zero-quantity periods
// contribute zero and are never priced.
func (s *Service) monthAppreciation(ctx context.Context, h tickerHistory, month domain.Month) (decimal.Decimal, error) {
	boundaries := []time.Time{month.Start()}
	for _, p := range h.purchases {
		if month.Contains(p.Date) {
			boundaries = append(boundaries, p.Date)
		}
	}
	for _, sale := range h.sales {
		if month.Contains(sale.Date) {
			boundaries = append(boundaries, sale.Date)
		}
	}
	// A derived positive initial quantity makes the creation timestamp an
	// implicit acquisition date: it partitions the month like a trade does
	if valuation.InitialQuantity(h.ticker, h.purchases, h.sales).GreaterThan(decimal.Zero) && month.Contains(h.ticker.CreatedAt) {
		boundaries = append(boundaries, h.ticker.CreatedAt)
	}
	boundaries = append(boundaries, month.EndOrNow(s.now()))

	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Before(boundaries[j]) })
	boundaries = dedupeTimes(boundaries)

	total := decimal.Zero
	for i := 0; i < len(boundaries)-1; i++ {
		periodStart := boundaries[i]
		periodEnd := boundaries[i+1]

		quantity := valuation.QuantityAt(h.ticker, h.purchases, h.sales, periodStart)
		if quantity.LessThanOrEqual(decimal.Zero) {
			continue
		}

		startPrice, ok, err := s.Valuation.PriceAt(ctx, h.ticker.ID, periodStart)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			continue
		}
		endPrice, ok, err := s.Valuation.PriceAt(ctx, h.ticker.ID, periodEnd)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			continue
		}

		total = total.Add(endPrice.Sub(startPrice).Mul(quantity))
	}

	return total, nil
}

// AccumulatedCapitalGains computes, per month M since the series start, the
// unrealized gain of every position against its cost basis as of M's end
// (today for the current month), plus all dividends received on or before
// M, plus each bond's accumulated interest from its latest interest record
// not after M.
func (s *Service) AccumulatedCapitalGains(ctx context.Context) (map[domain.Month]decimal.Decimal, error) {
	first, found, err := s.FirstSeriesMonth(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[domain.Month]decimal.Decimal{}, nil
	}

	tickerHistories, err := s.loadTickerHistories(ctx)
	if err != nil {
		return nil, err
	}
	dividends, err := s.TickerRepo.ListDividends(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dividends: %w", err)
	}
	bondHistories, err := s.loadBondHistories(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	currentMonth := domain.MonthOf(now)
	accumulated := make(map[domain.Month]decimal.Decimal)

	for month := first; !month.After(currentMonth); month = month.Next() {
		monthEnd := month.EndOrNow(now)
		total := decimal.Zero

		for _, h := range tickerHistories {
			quantity := valuation.QuantityAt(h.ticker, h.purchases, h.sales, monthEnd)
			if quantity.LessThanOrEqual(decimal.Zero) {
				continue
			}

			price, ok, err := s.Valuation.PriceAt(ctx, h.ticker.ID, monthEnd)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			costBasis := h.ticker.AverageUnitValue.Mul(quantity)
			total = total.Add(price.Mul(quantity).Sub(costBasis))
		}

		for _, d := range dividends {
			if !d.Date.After(monthEnd) {
				total = total.Add(d.Amount)
			}
		}

		for _, h := range bondHistories {
			record, err := s.BondInterestRepo.LatestNotAfter(ctx, h.bond.ID, month)
			if err != nil {
				return nil, fmt.Errorf("failed to get interest record for %s: %w", h.bond.Name, err)
			}
			if record != nil {
				total = total.Add(record.AccumulatedInterest)
			}
		}

		accumulated[month] = total
	}

	return accumulated, nil
}

func addTo(series map[domain.Month]decimal.Decimal, month domain.Month, amount decimal.Decimal) {
	series[month] = series[month].Add(amount)
}

func dedupeTimes(sorted []time.Time) []time.Time {
	out := sorted[:0]
	for i, t := range sorted {
		if i == 0 || !t.Equal(sorted[i-1]) {
			out = append(out, t)
		}
	}
	return out
}
