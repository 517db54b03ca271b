package gains

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/plutusapp/plutus-backend/internal/domain"
	"github.com/plutusapp/plutus-backend/internal/usecase/valuation"
)

// MockTickerRepository is a mock implementation of TickerRepository for testing
type MockTickerRepository struct {
	mock.Mock
}

func (m *MockTickerRepository) ListNonArchived(ctx context.Context) ([]*domain.Ticker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticker), args.Error(1)
}

func (m *MockTickerRepository) ListPurchases(ctx context.Context, tickerID uuid.UUID) ([]*domain.TickerPurchase, error) {
	args := m.Called(ctx, tickerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TickerPurchase), args.Error(1)
}

func (m *MockTickerRepository) ListSales(ctx context.Context, tickerID uuid.UUID) ([]*domain.TickerSale, error) {
	args := m.Called(ctx, tickerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TickerSale), args.Error(1)
}

func (m *MockTickerRepository) ListDividends(ctx context.Context) ([]*domain.Dividend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Dividend), args.Error(1)
}

// MockBondRepository is a mock implementation of BondRepository for testing
type MockBondRepository struct {
	mock.Mock
}

func (m *MockBondRepository) ListNonArchived(ctx context.Context) ([]*domain.Bond, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bond), args.Error(1)
}

func (m *MockBondRepository) ListOperations(ctx context.Context, bondID uuid.UUID) ([]*domain.BondOperation, error) {
	args := m.Called(ctx, bondID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BondOperation), args.Error(1)
}

// MockPriceHistoryRepository is a mock implementation of PriceHistoryRepository for testing
type MockPriceHistoryRepository struct {
	mock.Mock
}

func (m *MockPriceHistoryRepository) ClosestBefore(ctx context.Context, tickerID uuid.UUID, date time.Time) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, tickerID, date)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

// MockBondInterestRepository is a mock implementation of BondInterestRepository for testing
type MockBondInterestRepository struct {
	mock.Mock
}

func (m *MockBondInterestRepository) LastCalculated(ctx context.Context, bondID uuid.UUID) (*domain.BondInterestRecord, error) {
	args := m.Called(ctx, bondID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BondInterestRecord), args.Error(1)
}

func (m *MockBondInterestRepository) LatestNotAfter(ctx context.Context, bondID uuid.UUID, month domain.Month) (*domain.BondInterestRecord, error) {
	args := m.Called(ctx, bondID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BondInterestRecord), args.Error(1)
}

func (m *MockBondInterestRepository) GetByMonth(ctx context.Context, bondID uuid.UUID, month domain.Month) (*domain.BondInterestRecord, error) {
	args := m.Called(ctx, bondID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BondInterestRecord), args.Error(1)
}

func (m *MockBondInterestRepository) Upsert(ctx context.Context, record *domain.BondInterestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestService(tickerRepo *MockTickerRepository, bondRepo *MockBondRepository, priceRepo *MockPriceHistoryRepository, interestRepo *MockBondInterestRepository) *Service {
	valuationService := valuation.NewService(tickerRepo, bondRepo, priceRepo, zap.NewNop())
	service := NewService(tickerRepo, bondRepo, priceRepo, interestRepo, valuationService)
	service.now = func() time.Time { return testNow }
	return service
}

// A ticker bought twice in February and sold out on March 10. Its derived
// initial quantity is zero, so the creation date never becomes a boundary.
func soldOutTicker() (*domain.Ticker, []*domain.TickerPurchase, []*domain.TickerSale) {
	ticker := &domain.Ticker{
		ID:               uuid.New(),
		Symbol:           "VOO",
		CurrentQuantity:  decimal.Zero,
		AverageUnitValue: decimal.NewFromInt(105),
		CreatedAt:        day(2024, time.February, 1),
	}
	purchases := []*domain.TickerPurchase{
		{TickerID: ticker.ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), Date: day(2024, time.February, 1)},
		{TickerID: ticker.ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(110), Date: day(2024, time.February, 15)},
	}
	sales := []*domain.TickerSale{
		{TickerID: ticker.ID, Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(120), AverageCost: decimal.NewFromInt(105), Date: day(2024, time.March, 10)},
	}
	return ticker, purchases, sales
}

func TestFirstSeriesMonth_EarliestAcrossSources(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	service := newTestService(tickerRepo, bondRepo, new(MockPriceHistoryRepository), new(MockBondInterestRepository))

	ticker, purchases, sales := soldOutTicker()
	bond := &domain.Bond{ID: uuid.New(), Name: "Treasury 2027"}

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{ticker}, nil)
	tickerRepo.On("ListPurchases", ctx, ticker.ID).Return(purchases, nil)
	tickerRepo.On("ListSales", ctx, ticker.ID).Return(sales, nil)
	tickerRepo.On("ListDividends", ctx).Return([]*domain.Dividend{
		{TickerID: ticker.ID, Amount: decimal.NewFromInt(50), Date: day(2024, time.January, 5)},
	}, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{bond}, nil)
	bondRepo.On("ListOperations", ctx, bond.ID).Return([]*domain.BondOperation{
		{BondID: bond.ID, Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), Date: day(2023, time.December, 20)},
	}, nil)

	first, found, err := service.FirstSeriesMonth(ctx)

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.NewMonth(2023, 12), first)
}

func TestFirstSeriesMonth_NoActivity(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	service := newTestService(tickerRepo, bondRepo, new(MockPriceHistoryRepository), new(MockBondInterestRepository))

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{}, nil)
	tickerRepo.On("ListDividends", ctx).Return([]*domain.Dividend{}, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{}, nil)

	_, found, err := service.FirstSeriesMonth(ctx)

	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMonthlyCapitalGains_SubPeriodSplit(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	priceRepo := new(MockPriceHistoryRepository)
	service := newTestService(tickerRepo, bondRepo, priceRepo, new(MockBondInterestRepository))

	ticker, purchases, sales := soldOutTicker()
	feb := domain.NewMonth(2024, 2)
	mar := domain.NewMonth(2024, 3)

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{ticker}, nil)
	tickerRepo.On("ListPurchases", ctx, ticker.ID).Return(purchases, nil)
	tickerRepo.On("ListSales", ctx, ticker.ID).Return(sales, nil)
	tickerRepo.On("ListDividends", ctx).Return([]*domain.Dividend{
		{TickerID: ticker.ID, Amount: decimal.NewFromInt(50), Date: day(2024, time.February, 20)},
	}, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{}, nil)

	priceRepo.On("ClosestBefore", ctx, ticker.ID, day(2024, time.February, 1)).Return(decimal.NewFromInt(100), true, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, day(2024, time.February, 15)).Return(decimal.NewFromInt(110), true, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, feb.End()).Return(decimal.NewFromInt(112), true, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, mar.Start()).Return(decimal.NewFromInt(112), true, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, day(2024, time.March, 10)).Return(decimal.NewFromInt(120), true, nil)

	gains, err := service.MonthlyCapitalGains(ctx)

	assert.NoError(t, err)
	// February: 50 dividend + (110-100)*10 + (112-110)*20 appreciation
	assert.True(t, gains[feb].Equal(decimal.NewFromInt(190)), "got %s", gains[feb])
	// March: (120-105)*20 realized + (120-112)*20 over the pre-sale period;
	// the post-sale period holds nothing and is never priced
	assert.True(t, gains[mar].Equal(decimal.NewFromInt(460)), "got %s", gains[mar])
	assert.Len(t, gains, 2)
	priceRepo.AssertExpectations(t)
}

func TestMonthlyCapitalGains_MidMonthFirstPurchaseAppreciates(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	priceRepo := new(MockPriceHistoryRepository)
	service := newTestService(tickerRepo, bondRepo, priceRepo, new(MockBondInterestRepository))
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	ticker := &domain.Ticker{
		ID:               uuid.New(),
		Symbol:           "VOO",
		CurrentQuantity:  decimal.NewFromInt(10),
		AverageUnitValue: decimal.NewFromInt(50),
		CreatedAt:        day(2024, time.March, 5),
	}
	purchases := []*domain.TickerPurchase{
		{TickerID: ticker.ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(50), Date: day(2024, time.March, 5)},
	}
	mar := domain.NewMonth(2024, 3)

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{ticker}, nil)
	tickerRepo.On("ListPurchases", ctx, ticker.ID).Return(purchases, nil)
	tickerRepo.On("ListSales", ctx, ticker.ID).Return([]*domain.TickerSale{}, nil)
	tickerRepo.On("ListDividends", ctx).Return([]*domain.Dividend{}, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{}, nil)

	// The pre-purchase sub-period holds nothing and is never priced; the
	// month is appreciated from the purchase date onward
	priceRepo.On("ClosestBefore", ctx, ticker.ID, day(2024, time.March, 5)).Return(decimal.NewFromInt(50), true, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, mar.EndOrNow(now)).Return(decimal.NewFromInt(60), true, nil)

	gains, err := service.MonthlyCapitalGains(ctx)

	assert.NoError(t, err)
	assert.True(t, gains[mar].Equal(decimal.NewFromInt(100)), "got %s", gains[mar])
	priceRepo.AssertExpectations(t)
}

func TestMonthlyInvestedValue_CostBasisPlusBondCumulative(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	service := newTestService(tickerRepo, bondRepo, new(MockPriceHistoryRepository), new(MockBondInterestRepository))

	ticker, purchases, sales := soldOutTicker()
	bond := &domain.Bond{ID: uuid.New(), Name: "Treasury 2027"}

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{ticker}, nil)
	tickerRepo.On("ListPurchases", ctx, ticker.ID).Return(purchases, nil)
	tickerRepo.On("ListSales", ctx, ticker.ID).Return(sales, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{bond}, nil)
	bondRepo.On("ListOperations", ctx, bond.ID).Return([]*domain.BondOperation{
		{BondID: bond.ID, Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), Date: day(2024, time.May, 1)},
	}, nil)

	invested, err := service.MonthlyInvestedValue(ctx)

	assert.NoError(t, err)
	// February held 20 shares at 105 average; March onwards the position is
	// empty and contributes nothing
	feb := domain.NewMonth(2024, 2)
	assert.True(t, invested[feb].Equal(decimal.NewFromInt(2100)), "got %s", invested[feb])
	may := domain.NewMonth(2024, 5)
	jun := domain.NewMonth(2024, 6)
	assert.True(t, invested[may].Equal(decimal.NewFromInt(1000)), "got %s", invested[may])
	assert.True(t, invested[jun].Equal(decimal.NewFromInt(1000)), "got %s", invested[jun])
	assert.Len(t, invested, 3)
}

func TestMonthlyPortfolioValue_MarketValueAtMonthEnd(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	priceRepo := new(MockPriceHistoryRepository)
	service := newTestService(tickerRepo, bondRepo, priceRepo, new(MockBondInterestRepository))

	ticker, purchases, sales := soldOutTicker()
	bond := &domain.Bond{ID: uuid.New(), Name: "Treasury 2027"}
	feb := domain.NewMonth(2024, 2)

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{ticker}, nil)
	tickerRepo.On("ListPurchases", ctx, ticker.ID).Return(purchases, nil)
	tickerRepo.On("ListSales", ctx, ticker.ID).Return(sales, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{bond}, nil)
	bondRepo.On("ListOperations", ctx, bond.ID).Return([]*domain.BondOperation{
		{BondID: bond.ID, Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), Date: day(2024, time.May, 1)},
	}, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, feb.End()).Return(decimal.NewFromInt(112), true, nil)

	portfolio, err := service.MonthlyPortfolioValue(ctx)

	assert.NoError(t, err)
	assert.True(t, portfolio[feb].Equal(decimal.NewFromInt(2240)), "got %s", portfolio[feb])
	may := domain.NewMonth(2024, 5)
	jun := domain.NewMonth(2024, 6)
	assert.True(t, portfolio[may].Equal(decimal.NewFromInt(1000)), "got %s", portfolio[may])
	assert.True(t, portfolio[jun].Equal(decimal.NewFromInt(1000)), "got %s", portfolio[jun])
	assert.Len(t, portfolio, 3)
}

func TestAccumulatedCapitalGains(t *testing.T) {
	ctx := context.Background()
	tickerRepo := new(MockTickerRepository)
	bondRepo := new(MockBondRepository)
	priceRepo := new(MockPriceHistoryRepository)
	interestRepo := new(MockBondInterestRepository)
	service := newTestService(tickerRepo, bondRepo, priceRepo, interestRepo)

	ticker := &domain.Ticker{
		ID:               uuid.New(),
		Symbol:           "VTI",
		CurrentQuantity:  decimal.NewFromInt(10),
		AverageUnitValue: decimal.NewFromInt(100),
		CreatedAt:        day(2024, time.April, 5),
	}
	purchases := []*domain.TickerPurchase{
		{TickerID: ticker.ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), Date: day(2024, time.April, 5)},
	}
	bond := &domain.Bond{ID: uuid.New(), Name: "Treasury 2027"}

	apr := domain.NewMonth(2024, 4)
	may := domain.NewMonth(2024, 5)
	jun := domain.NewMonth(2024, 6)

	tickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{ticker}, nil)
	tickerRepo.On("ListPurchases", ctx, ticker.ID).Return(purchases, nil)
	tickerRepo.On("ListSales", ctx, ticker.ID).Return([]*domain.TickerSale{}, nil)
	tickerRepo.On("ListDividends", ctx).Return([]*domain.Dividend{
		{TickerID: ticker.ID, Amount: decimal.NewFromInt(20), Date: day(2024, time.May, 10)},
	}, nil)
	bondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{bond}, nil)
	bondRepo.On("ListOperations", ctx, bond.ID).Return([]*domain.BondOperation{
		{BondID: bond.ID, Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500), Date: day(2024, time.April, 1)},
	}, nil)
	priceRepo.On("ClosestBefore", ctx, ticker.ID, mock.Anything).Return(decimal.NewFromInt(110), true, nil)
	interestRepo.On("LatestNotAfter", ctx, bond.ID, apr).Return(nil, nil)
	interestRepo.On("LatestNotAfter", ctx, bond.ID, may).Return(&domain.BondInterestRecord{
		BondID: bond.ID, ReferenceMonth: may, AccumulatedInterest: decimal.NewFromInt(5),
	}, nil)
	interestRepo.On("LatestNotAfter", ctx, bond.ID, jun).Return(&domain.BondInterestRecord{
		BondID: bond.ID, ReferenceMonth: jun, AccumulatedInterest: decimal.NewFromInt(9),
	}, nil)

	accumulated, err := service.AccumulatedCapitalGains(ctx)

	assert.NoError(t, err)
	// Each month: (110-100)*10 unrealized, plus dividends received so far,
	// plus the bond's latest accumulated interest
	assert.True(t, accumulated[apr].Equal(decimal.NewFromInt(100)), "got %s", accumulated[apr])
	assert.True(t, accumulated[may].Equal(decimal.NewFromInt(125)), "got %s", accumulated[may])
	assert.True(t, accumulated[jun].Equal(decimal.NewFromInt(129)), "got %s", accumulated[jun])
	assert.Len(t, accumulated, 3)
	interestRepo.AssertExpectations(t)
}
