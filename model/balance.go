package model

import "github.com/shopspring/decimal"

// AssetBalance is a venue's view of one asset: total held vs. available
// (unencumbered by open orders).
type AssetBalance struct {
	Total     decimal.Decimal
	Available decimal.Decimal
}

// Balances maps asset -> balance for one venue, as returned by
// venue.Venue.GetBalance.
type Balances map[string]AssetBalance
