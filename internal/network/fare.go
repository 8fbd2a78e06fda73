package network

import "github.com/shopspring/decimal"

// DefaultRatePerEdge is the fare charged per hop travelled.
var DefaultRatePerEdge = decimal.RequireFromString("5.00")

// ComputePrice returns (hops * rate). Paths shorter than two stations cost
// nothing.
func ComputePrice(path Path, rate decimal.Decimal) decimal.Decimal {
	if len(path) < 2 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(path.Hops()))).Round(2)
}
