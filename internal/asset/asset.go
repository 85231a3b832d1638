// Package asset models the assets that perpetual pool markets are built on.
// A market like "ETH/USD" has a base asset (ETH) and a quote asset (USD);
// the registry resolves tickers to display names and precision.
package asset

import "strings"

// Asset is the metadata of a market asset. Identity is the upper-cased ticker.
type Asset struct {
	symbol          string
	name            string
	decimals        uint8 // smallest unit on chain
	displayDecimals int32 // places used when denoting values in this asset, -1 = unset
}

// NewAsset creates an asset with no display precision of its own.
func NewAsset(symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{
		symbol:          strings.ToUpper(symbol),
		name:            name,
		decimals:        decimals,
		displayDecimals: -1,
	}
}

// WithDisplayDecimals returns a copy with the given denotation precision.
func (a *Asset) WithDisplayDecimals(places int32) *Asset {
	c := *a
	c.displayDecimals = places
	return &c
}

// Symbol returns the ticker (e.g. "ETH").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name, or the ticker when none was given.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the on-chain decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// DisplayDecimals returns the denotation precision and whether one is set.
func (a *Asset) DisplayDecimals() (int32, bool) {
	return a.displayDecimals, a.displayDecimals >= 0
}

func (a *Asset) String() string {
	return a.symbol
}
