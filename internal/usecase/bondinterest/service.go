package bondinterest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/valuation"
)

// businessDaysPerYear is the Brazilian market convention used to
// annualize fixed rates and daily indicator factors.
const businessDaysPerYear = 252

// Service maintains each bond's monthly interest ledger. Records are
// immutable once their month closes; only the current month's record is
// recomputed in place as new indicator observations arrive.
type Service struct {
	BondRepo         domain.BondRepository
	IndicatorRepo    domain.IndicatorRepository
	BondInterestRepo domain.BondInterestRepository
	Logger           *zap.Logger

	now func() time.Time
}

// NewService creates a new bondinterest Service instance
func NewService(
	bondRepo domain.BondRepository,
	indicatorRepo domain.IndicatorRepository,
	bondInterestRepo domain.BondInterestRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		BondRepo:         bondRepo,
		IndicatorRepo:    indicatorRepo,
		BondInterestRepo: bondInterestRepo,
		Logger:           logger,
		now:              time.Now,
	}
}

// SyncAll brings every non-archived bond's interest ledger up to the
// current month. A bond resumes after its last calculated reference month;
// if that month is the current one, it is recomputed in place.
func (s *Service) SyncAll(ctx context.Context) error {
	bonds, err := s.BondRepo.ListNonArchived(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bonds: %w", err)
	}

	for _, bond := range bonds {
		if err := s.syncBond(ctx, bond); err != nil {
			return fmt.Errorf("failed to sync interest for %s: %w", bond.Name, err)
		}
	}

	return nil
}

func (s *Service) syncBond(ctx context.Context, bond *domain.Bond) error {
	operations, err := s.BondRepo.ListOperations(ctx, bond.ID)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}
	if len(operations) == 0 {
		return nil
	}

	firstMonth := domain.MonthOf(operations[0].Date)
	for _, op := range operations[1:] {
		if m := domain.MonthOf(op.Date); m.Before(firstMonth) {
			firstMonth = m
		}
	}

	start := firstMonth
	previousAccumulated := decimal.Zero

	last, err := s.BondInterestRepo.LastCalculated(ctx, bond.ID)
	if err != nil {
		return fmt.Errorf("failed to load last interest record: %w", err)
	}
	if last != nil {
		// The closed months before the last record stay untouched; the last
		// record itself is recomputed so a partial current month converges
		start = last.ReferenceMonth
		previous, err := s.BondInterestRepo.GetByMonth(ctx, bond.ID, last.ReferenceMonth.Prev())
		if err != nil {
			return fmt.Errorf("failed to load previous interest record: %w", err)
		}
		if previous != nil {
			previousAccumulated = previous.AccumulatedInterest
		}
	}

	currentMonth := domain.MonthOf(s.now())
	for month := start; !month.After(currentMonth); month = month.Next() {
		quantity := quantityAt(operations, month.End())
		invested := valuation.BondCumulativeValueAt(operations, month.End())
		if invested.LessThanOrEqual(decimal.Zero) || quantity.LessThanOrEqual(decimal.Zero) {
			// Position closed within this month; the ledger stops here and
			// realized profit is carried by the sale operation itself
			previousAccumulated = decimal.Zero
			continue
		}

		monthly, err := s.periodInterest(ctx, bond, operations, month)
		if err != nil {
			return err
		}

		accumulated := previousAccumulated.Add(monthly)
		record := &domain.BondInterestRecord{
			BondID:              bond.ID,
			ReferenceMonth:      month,
			Quantity:            quantity,
			InvestedAmount:      invested,
			MonthlyInterest:     monthly,
			AccumulatedInterest: accumulated,
			FinalValue:          invested.Add(accumulated),
			Method:              string(bond.InterestType),
		}
		if err := s.BondInterestRepo.Upsert(ctx, record); err != nil {
			return fmt.Errorf("failed to upsert interest record: %w", err)
		}

		previousAccumulated = accumulated
	}

	return nil
}

// periodInterest computes one month of interest by walking the month's
// business days in sub-periods. A trade inside the month splits the
// accrual: each run of business days compounds on the invested amount and
// spread in effect on those days, so a bond bought on the month's last
// business day accrues a single day of interest, and a mid-month spread
// renegotiation only governs the days after it. Zero-coupon bonds accrue
// nothing monthly; their gain surfaces as net profit at sale.
func (s *Service) periodInterest(
	ctx context.Context,
	bond *domain.Bond,
	operations []*domain.BondOperation,
	month domain.Month,
) (decimal.Decimal, error) {
	switch bond.InterestType {
	case domain.InterestTypeZeroCoupon:
		return decimal.Zero, nil
	case domain.InterestTypeFixed, domain.InterestTypeFloating:
	default:
		return decimal.Zero, fmt.Errorf("unknown interest type %q", bond.InterestType)
	}

	rates, err := s.IndicatorRepo.Between(ctx, bond.InterestIndex, month.Start(), month.End())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load indicator rates: %w", err)
	}
	if len(rates) == 0 {
		s.Logger.Warn("no indicator observations for month, interest deferred",
			zap.String("bond", bond.Name),
			zap.String("index", string(bond.InterestIndex)),
			zap.String("month", month.String()))
		return decimal.Zero, nil
	}

	total := decimal.Zero
	for i := 0; i < len(rates); {
		invested := valuation.BondCumulativeValueAt(operations, rates[i].Date)
		spread := spreadInEffect(operations, rates[i].Date)

		j := i + 1
		for j < len(rates) &&
			valuation.BondCumulativeValueAt(operations, rates[j].Date).Equal(invested) &&
			spreadInEffect(operations, rates[j].Date).Equal(spread) {
			j++
		}

		if invested.GreaterThan(decimal.Zero) {
			total = total.Add(subPeriodInterest(bond, invested, spread, rates[i:j]))
		}
		i = j
	}

	return total, nil
}

// subPeriodInterest compounds one run of business days over a constant
// invested amount and spread.
func subPeriodInterest(bond *domain.Bond, invested, spread decimal.Decimal, rates []*domain.IndicatorRate) decimal.Decimal {
	switch bond.InterestType {
	case domain.InterestTypeFixed:
		annualRate := bond.InterestRate.InexactFloat64() / 100
		factor := math.Pow(1+annualRate, float64(len(rates))/businessDaysPerYear)
		return invested.Mul(decimal.NewFromFloat(factor - 1))

	case domain.InterestTypeFloating:
		scaled := spread.InexactFloat64() / 100
		factor := 1.0
		for _, rate := range rates {
			daily := math.Pow(1+rate.Rate.InexactFloat64()/100, 1.0/businessDaysPerYear) - 1
			factor *= 1 + daily*scaled
		}
		return invested.Mul(decimal.NewFromFloat(factor - 1))
	}

	return decimal.Zero
}

// spreadInEffect returns the spread of the most recent buy operation on or
// before the date. Each purchase renegotiates the contract spread, so the
// latest one governs accrual. Defaults to 100 (tracking the indicator 1:1)
// when no buy carries a spread.
func spreadInEffect(operations []*domain.BondOperation, date time.Time) decimal.Decimal {
	spread := decimal.NewFromInt(100)
	var latest time.Time

	for _, op := range operations {
		if op.Type != domain.BondOperationBuy || op.Spread == nil || op.Date.After(date) {
			continue
		}
		if latest.IsZero() || op.Date.After(latest) {
			latest = op.Date
			spread = *op.Spread
		}
	}

	return spread
}

func quantityAt(operations []*domain.BondOperation, date time.Time) decimal.Decimal {
	quantity := decimal.Zero
	for _, op := range operations {
		if op.Date.After(date) {
			continue
		}
		switch op.Type {
		case domain.BondOperationBuy:
			quantity = quantity.Add(op.Quantity)
		case domain.BondOperationSell:
			quantity = quantity.Sub(op.Quantity)
		}
	}
	return quantity
}
