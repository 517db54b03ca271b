package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InterestType represents how a bond accrues interest
type InterestType string

const (
	InterestTypeFixed      InterestType = "FIXED"
	InterestTypeFloating   InterestType = "FLOATING"
	InterestTypeZeroCoupon InterestType = "ZERO_COUPON"
)

// InterestIndex identifies the market indicator a floating bond tracks
type InterestIndex string

const (
	IndexCDI   InterestIndex = "CDI"
	IndexSELIC InterestIndex = "SELIC"
	IndexIPCA  InterestIndex = "IPCA"
)

// BondOperationType distinguishes buys from sells
type BondOperationType string

const (
	BondOperationBuy  BondOperationType = "BUY"
	BondOperationSell BondOperationType = "SELL"
)

// Bond represents a fixed-income asset. Bonds have no quoted market price;
// their value is the cumulative invested amount plus accrued interest.
type Bond struct {
	ID            uuid.UUID
	Name          string
	InterestType  InterestType
	InterestIndex InterestIndex
	InterestRate  decimal.Decimal
	Archived      bool
}

// BondOperation represents a bond buy or sell. Spread captures the rate
// spread in effect at trade time; it may change between trades and must be
// attributed per holding period, never globally. NetProfit is recorded on
// sells only.
type BondOperation struct {
	ID        uuid.UUID
	BondID    uuid.UUID
	Type      BondOperationType
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Spread    *decimal.Decimal
	NetProfit *decimal.Decimal
	Date      time.Time
}

// IndicatorRate is one business-day observation of a market indicator's
// daily rate (percentage). The history contains business days only.
type IndicatorRate struct {
	Index InterestIndex
	Date  time.Time
	Rate  decimal.Decimal
}

// BondInterestRecord is the stored result of the monthly bond interest
// calculation for one bond and one reference month.
type BondInterestRecord struct {
	ID                  uuid.UUID
	BondID              uuid.UUID
	ReferenceMonth      Month
	CalculationDate     time.Time
	Quantity            decimal.Decimal
	InvestedAmount      decimal.Decimal
	MonthlyInterest     decimal.Decimal
	AccumulatedInterest decimal.Decimal
	FinalValue          decimal.Decimal
	Method              string
}
