package valuation

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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInitialQuantity_SeededBeforeLedger(t *testing.T) {
	// Current quantity 50, ledger shows +30 bought and -10 sold:
	// 30 units must have existed before the first recorded purchase
	ticker := &domain.Ticker{CurrentQuantity: decimal.NewFromInt(50)}
	purchases := []*domain.TickerPurchase{
		{Quantity: decimal.NewFromInt(30), Date: day(2024, time.January, 10)},
	}
	sales := []*domain.TickerSale{
		{Quantity: decimal.NewFromInt(10), Date: day(2024, time.February, 5)},
	}

	initial := InitialQuantity(ticker, purchases, sales)

	assert.True(t, initial.Equal(decimal.NewFromInt(30)), "got %s", initial)
}

func TestQuantityAt_ReplaysTrades(t *testing.T) {
	ticker := &domain.Ticker{CurrentQuantity: decimal.NewFromInt(20)}
	purchases := []*domain.TickerPurchase{
		{Quantity: decimal.NewFromInt(10), Date: day(2024, time.January, 10)},
		{Quantity: decimal.NewFromInt(15), Date: day(2024, time.March, 20)},
	}
	sales := []*domain.TickerSale{
		{Quantity: decimal.NewFromInt(5), Date: day(2024, time.February, 5)},
	}

	// initial = 20 - 25 + 5 = 0
	assert.True(t, QuantityAt(ticker, purchases, sales, day(2023, time.December, 31)).IsZero())
	// after first purchase
	assert.True(t, QuantityAt(ticker, purchases, sales, day(2024, time.January, 31)).Equal(decimal.NewFromInt(10)))
	// after the February sale
	assert.True(t, QuantityAt(ticker, purchases, sales, day(2024, time.February, 29)).Equal(decimal.NewFromInt(5)))
	// after everything: matches the current quantity
	assert.True(t, QuantityAt(ticker, purchases, sales, day(2024, time.December, 31)).Equal(ticker.CurrentQuantity))
}

func TestQuantityAt_TradeOnBoundaryDateCounts(t *testing.T) {
	ticker := &domain.Ticker{CurrentQuantity: decimal.NewFromInt(10)}
	purchases := []*domain.TickerPurchase{
		{Quantity: decimal.NewFromInt(10), Date: day(2024, time.January, 31)},
	}

	assert.True(t, QuantityAt(ticker, purchases, nil, day(2024, time.January, 31)).Equal(decimal.NewFromInt(10)))
	assert.True(t, QuantityAt(ticker, purchases, nil, day(2024, time.January, 30)).IsZero())
}

func TestFirstActivityMonth(t *testing.T) {
	purchases := []*domain.TickerPurchase{
		{Date: day(2024, time.March, 20)},
		{Date: day(2024, time.January, 10)},
	}

	first, ok := FirstActivityMonth(&domain.Ticker{}, purchases)
	assert.True(t, ok)
	assert.Equal(t, domain.NewMonth(2024, 1), first)

	// Seeded ticker without purchases starts at its creation month
	seeded := &domain.Ticker{
		CurrentQuantity: decimal.NewFromInt(5),
		CreatedAt:       day(2023, time.June, 15),
	}
	first, ok = FirstActivityMonth(seeded, nil)
	assert.True(t, ok)
	assert.Equal(t, domain.NewMonth(2023, 6), first)

	// No purchases and no position: no history at all
	_, ok = FirstActivityMonth(&domain.Ticker{}, nil)
	assert.False(t, ok)
}

func TestPriceAt_DataGapIsNotAnError(t *testing.T) {
	ctx := context.Background()
	mockPriceRepo := new(MockPriceHistoryRepository)
	service := NewService(new(MockTickerRepository), new(MockBondRepository), mockPriceRepo, zap.NewNop())

	tickerID := uuid.New()
	at := day(2024, time.January, 31)
	mockPriceRepo.On("ClosestBefore", ctx, tickerID, at).Return(decimal.Zero, false, nil)

	_, ok, err := service.PriceAt(ctx, tickerID, at)

	assert.NoError(t, err)
	assert.False(t, ok)
	mockPriceRepo.AssertExpectations(t)
}

func TestTickerValueAt_SkipsUnpricedAndEmptyPositions(t *testing.T) {
	ctx := context.Background()
	mockTickerRepo := new(MockTickerRepository)
	mockPriceRepo := new(MockPriceHistoryRepository)
	service := NewService(mockTickerRepo, new(MockBondRepository), mockPriceRepo, zap.NewNop())

	at := day(2024, time.June, 30)

	priced := &domain.Ticker{ID: uuid.New(), Symbol: "PRICED", CurrentQuantity: decimal.NewFromInt(10)}
	unpriced := &domain.Ticker{ID: uuid.New(), Symbol: "GAP", CurrentQuantity: decimal.NewFromInt(3)}
	sold := &domain.Ticker{ID: uuid.New(), Symbol: "SOLD", CurrentQuantity: decimal.Zero}

	mockTickerRepo.On("ListNonArchived", ctx).Return([]*domain.Ticker{priced, unpriced, sold}, nil)
	for _, tk := range []*domain.Ticker{priced, unpriced, sold} {
		mockTickerRepo.On("ListPurchases", ctx, tk.ID).Return([]*domain.TickerPurchase{}, nil)
		mockTickerRepo.On("ListSales", ctx, tk.ID).Return([]*domain.TickerSale{}, nil)
	}

	mockPriceRepo.On("ClosestBefore", ctx, priced.ID, at).Return(decimal.NewFromInt(7), true, nil)
	mockPriceRepo.On("ClosestBefore", ctx, unpriced.ID, at).Return(decimal.Zero, false, nil)

	total, err := service.TickerValueAt(ctx, at)

	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(70)), "got %s", total)
	mockTickerRepo.AssertExpectations(t)
	mockPriceRepo.AssertExpectations(t)
}

func TestBondCumulativeValueAt(t *testing.T) {
	operations := []*domain.BondOperation{
		{Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100), Date: day(2024, time.January, 5)},
		{Type: domain.BondOperationSell, Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(100), Date: day(2024, time.March, 10)},
	}

	assert.True(t, BondCumulativeValueAt(operations, day(2024, time.January, 31)).Equal(decimal.NewFromInt(1000)))
	assert.True(t, BondCumulativeValueAt(operations, day(2024, time.March, 31)).Equal(decimal.NewFromInt(600)))
	assert.True(t, BondCumulativeValueAt(operations, day(2023, time.December, 31)).IsZero())
}

func TestBondValueAt_ExcludesClosedPositions(t *testing.T) {
	ctx := context.Background()
	mockBondRepo := new(MockBondRepository)
	service := NewService(new(MockTickerRepository), mockBondRepo, new(MockPriceHistoryRepository), zap.NewNop())

	open := &domain.Bond{ID: uuid.New(), Name: "Open"}
	closed := &domain.Bond{ID: uuid.New(), Name: "Closed"}

	mockBondRepo.On("ListNonArchived", ctx).Return([]*domain.Bond{open, closed}, nil)
	mockBondRepo.On("ListOperations", ctx, open.ID).Return([]*domain.BondOperation{
		{Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(200), Date: day(2024, time.January, 5)},
	}, nil)
	mockBondRepo.On("ListOperations", ctx, closed.ID).Return([]*domain.BondOperation{
		{Type: domain.BondOperationBuy, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), Date: day(2024, time.January, 5)},
		{Type: domain.BondOperationSell, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(110), Date: day(2024, time.February, 5)},
	}, nil)

	total, err := service.BondValueAt(ctx, day(2024, time.June, 30))

	assert.NoError(t, err)
	// The closed bond's cumulative value went negative (sold above cost)
	// and is excluded rather than subtracted
	assert.True(t, total.Equal(decimal.NewFromInt(1000)), "got %s", total)
	mockBondRepo.AssertExpectations(t)
}
