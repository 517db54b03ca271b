package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetWorthSnapshot is the cached net-worth computation for one month.
// Keyed uniquely by (Month, Year); created on first successful computation,
// overwritten on recompute, and deleted en masse only by a full rebuild.
// A snapshot is always computed in full before being persisted.
type NetWorthSnapshot struct {
	Month                  int
	Year                   int
	Assets                 decimal.Decimal
	Liabilities            decimal.Decimal
	NetWorth               decimal.Decimal
	WalletBalances         decimal.Decimal
	Investments            decimal.Decimal
	CreditCardDebt         decimal.Decimal
	NegativeWalletBalances decimal.Decimal
	CalculatedAt           time.Time
}

// PerformanceSnapshot is the cached investment-performance computation for
// one month, with the same (Month, Year) keying and lifecycle as
// NetWorthSnapshot.
type PerformanceSnapshot struct {
	Month            int
	Year             int
	InvestedValue    decimal.Decimal
	PortfolioValue   decimal.Decimal
	AccumulatedGains decimal.Decimal
	MonthlyGains     decimal.Decimal
	CalculatedAt     time.Time
}

// PerformanceSeries carries the four monthly series returned by the
// performance read path, over an ordered trailing window of months.
type PerformanceSeries struct {
	Months           []Month
	InvestedValue    map[Month]decimal.Decimal
	PortfolioValue   map[Month]decimal.Decimal
	AccumulatedGains map[Month]decimal.Decimal
	MonthlyGains     map[Month]decimal.Decimal
}

// NewPerformanceSeries allocates an empty series for the given window.
func NewPerformanceSeries(months []Month) *PerformanceSeries {
	return &PerformanceSeries{
		Months:           months,
		InvestedValue:    make(map[Month]decimal.Decimal, len(months)),
		PortfolioValue:   make(map[Month]decimal.Decimal, len(months)),
		AccumulatedGains: make(map[Month]decimal.Decimal, len(months)),
		MonthlyGains:     make(map[Month]decimal.Decimal, len(months)),
	}
}
