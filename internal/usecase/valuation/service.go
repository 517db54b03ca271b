package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/domain"
)

// Service reconstructs historical asset quantities and valuations from the
// trade ledger. Every method is a pure derivation: stored state is never
// mutated.
type Service struct {
	TickerRepo domain.TickerRepository
	BondRepo   domain.BondRepository
	PriceRepo  domain.PriceHistoryRepository
	Logger     *zap.Logger

	now func() time.Time
}

// NewService creates a new valuation Service instance
func NewService(
	tickerRepo domain.TickerRepository,
	bondRepo domain.BondRepository,
	priceRepo domain.PriceHistoryRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		TickerRepo: tickerRepo,
		BondRepo:   bondRepo,
		PriceRepo:  priceRepo,
		Logger:     logger,
		now:        time.Now,
	}
}

// InitialQuantity derives the quantity held before the first recorded
// purchase (assets seeded outside the purchase ledger):
//
//	initial = current − Σ purchases + Σ sales
func InitialQuantity(ticker *domain.Ticker, purchases []*domain.TickerPurchase, sales []*domain.TickerSale) decimal.Decimal {
	initial := ticker.CurrentQuantity
	for _, p := range purchases {
		initial = initial.Sub(p.Quantity)
	}
	for _, s := range sales {
		initial = initial.Add(s.Quantity)
	}
	return initial
}

// QuantityAt derives the quantity held at the end of the given date by
// replaying trades dated at or before it on top of the derived initial
// quantity. Equivalent to current quantity minus later purchases plus
// later sales.
func QuantityAt(ticker *domain.Ticker, purchases []*domain.TickerPurchase, sales []*domain.TickerSale, date time.Time) decimal.Decimal {
	quantity := InitialQuantity(ticker, purchases, sales)

	for _, p := range purchases {
		if !p.Date.After(date) {
			quantity = quantity.Add(p.Quantity)
		}
	}
	for _, s := range sales {
		if !s.Date.After(date) {
			quantity = quantity.Sub(s.Quantity)
		}
	}

	return quantity
}

// FirstActivityMonth returns the month the ticker's history starts in: the
// earliest purchase month, or the creation month when the ticker was seeded
// without purchases. ok is false for tickers with no purchases and no
// current position.
func FirstActivityMonth(ticker *domain.Ticker, purchases []*domain.TickerPurchase) (domain.Month, bool) {
	if len(purchases) == 0 {
		if ticker.CurrentQuantity.LessThanOrEqual(decimal.Zero) {
			return domain.Month{}, false
		}
		return domain.MonthOf(ticker.CreatedAt), true
	}

	earliest := purchases[0].Date
	for _, p := range purchases[1:] {
		if p.Date.Before(earliest) {
			earliest = p.Date
		}
	}
	return domain.MonthOf(earliest), true
}

// QuantityByMonthEnd derives the quantity held at the end of each month
// from firstMonth through the current month, carrying the last known
// quantity across months without trades.
func (s *Service) QuantityByMonthEnd(
	ticker *domain.Ticker,
	purchases []*domain.TickerPurchase,
	sales []*domain.TickerSale,
	firstMonth domain.Month,
) map[domain.Month]decimal.Decimal {
	currentMonth := domain.MonthOf(s.now())
	quantityByMonth := make(map[domain.Month]decimal.Decimal)

	for month := firstMonth; !month.After(currentMonth); month = month.Next() {
		quantityByMonth[month] = QuantityAt(ticker, purchases, sales, month.End())
	}

	return quantityByMonth
}

// PriceAt looks up the ticker's price at the closest observation not after
// the given date. A missing observation is a data gap: it is logged and
// reported via ok=false, never as an error.
func (s *Service) PriceAt(ctx context.Context, tickerID uuid.UUID, date time.Time) (decimal.Decimal, bool, error) {
	price, ok, err := s.PriceRepo.ClosestBefore(ctx, tickerID, date)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to look up price: %w", err)
	}
	if !ok {
		s.Logger.Debug("price data gap, asset skipped for period",
			zap.String("ticker_id", tickerID.String()),
			zap.Time("date", date))
		return decimal.Zero, false, nil
	}
	return price, true, nil
}

// TickerValueAt computes the total market value of all non-archived tickers
// at the given date. Tickers with no position at the date, or with no price
// observation at or before it, contribute zero.
func (s *Service) TickerValueAt(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	tickers, err := s.TickerRepo.ListNonArchived(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list tickers: %w", err)
	}

	total := decimal.Zero
	for _, ticker := range tickers {
		purchases, err := s.TickerRepo.ListPurchases(ctx, ticker.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to list purchases for %s: %w", ticker.Symbol, err)
		}
		sales, err := s.TickerRepo.ListSales(ctx, ticker.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to list sales for %s: %w", ticker.Symbol, err)
		}

		quantity := QuantityAt(ticker, purchases, sales, date)
		if quantity.LessThanOrEqual(decimal.Zero) {
			continue
		}

		price, ok, err := s.PriceAt(ctx, ticker.ID, date)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			continue
		}

		total = total.Add(quantity.Mul(price))
	}

	return total, nil
}

// BondCumulativeValueAt derives a bond's invested value at the given date
// by walking its operations chronologically: buys add quantity×unitPrice,
// sells subtract. Bonds carry accrued interest rather than a quoted market
// price, so the cumulative invested value stands in for a valuation.
func BondCumulativeValueAt(operations []*domain.BondOperation, date time.Time) decimal.Decimal {
	cumulative := decimal.Zero
	for _, op := range operations {
		if op.Date.After(date) {
			continue
		}
		value := op.UnitPrice.Mul(op.Quantity)
		switch op.Type {
		case domain.BondOperationBuy:
			cumulative = cumulative.Add(value)
		case domain.BondOperationSell:
			cumulative = cumulative.Sub(value)
		}
	}
	return cumulative
}

// BondValueAt computes the total cumulative invested value across all
// non-archived bonds at the given date. A zero or negative per-bond value
// is excluded from the result, never emitted as negative equity.
func (s *Service) BondValueAt(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	bonds, err := s.BondRepo.ListNonArchived(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list bonds: %w", err)
	}

	total := decimal.Zero
	for _, bond := range bonds {
		operations, err := s.BondRepo.ListOperations(ctx, bond.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to list operations for %s: %w", bond.Name, err)
		}

		cumulative := BondCumulativeValueAt(operations, date)
		if cumulative.GreaterThan(decimal.Zero) {
			total = total.Add(cumulative)
		}
	}

	return total, nil
}

// InvestmentValueForMonth computes the combined ticker and bond value at
// the month's end ("today" substitutes for month end in the current month).
func (s *Service) InvestmentValueForMonth(ctx context.Context, month domain.Month) (decimal.Decimal, error) {
	at := month.EndOrNow(s.now())

	tickerValue, err := s.TickerValueAt(ctx, at)
	if err != nil {
		return decimal.Zero, err
	}

	bondValue, err := s.BondValueAt(ctx, at)
	if err != nil {
		return decimal.Zero, err
	}

	return tickerValue.Add(bondValue), nil
}
