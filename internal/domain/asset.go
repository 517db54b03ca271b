package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType represents the kind of tradable asset a ticker tracks
type AssetType string

const (
	AssetTypeEquity AssetType = "EQUITY"
	AssetTypeFund   AssetType = "FUND"
	AssetTypeCrypto AssetType = "CRYPTO"
)

// Ticker represents a tradable asset. CurrentQuantity, CurrentUnitValue
// and AverageUnitValue are authoritative only for "now"; historical
// quantity and value are derived from the trade history (see the valuation
// usecase). Invariant:
//
//	CurrentQuantity == initial + Σ purchases.Quantity − Σ sales.Quantity
//
// where initial is the quantity held before the first recorded purchase
// (assets seeded outside the purchase ledger) and is itself derived.
type Ticker struct {
	ID               uuid.UUID
	Symbol           string
	Name             string
	Type             AssetType
	CurrentQuantity  decimal.Decimal
	CurrentUnitValue decimal.Decimal
	AverageUnitValue decimal.Decimal
	CreatedAt        time.Time
	Archived         bool
}

// TickerPurchase represents an asset buy trade
type TickerPurchase struct {
	ID        uuid.UUID
	TickerID  uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Date      time.Time
}

// TickerSale represents an asset sell trade. AverageCost is the running
// average cost captured at sale time; the realized gain is
// (UnitPrice − AverageCost) × Quantity.
type TickerSale struct {
	ID          uuid.UUID
	TickerID    uuid.UUID
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	AverageCost decimal.Decimal
	Date        time.Time
}

// RealizedGain returns the profit or loss locked in by the sale.
func (s *TickerSale) RealizedGain() decimal.Decimal {
	return s.UnitPrice.Sub(s.AverageCost).Mul(s.Quantity)
}

// Dividend represents a dividend received for a ticker, attributed in full
// to its receipt month.
type Dividend struct {
	ID       uuid.UUID
	TickerID uuid.UUID
	Amount   decimal.Decimal
	Date     time.Time
}

// PricePoint is one observation of a ticker's unit price. The history is
// sparse: transaction dates, month ends of past months, and the single most
// recent date of the current month. Lookups use closest-at-or-before
// semantics with no interpolation.
type PricePoint struct {
	TickerID uuid.UUID
	Date     time.Time
	Price    decimal.Decimal
}
