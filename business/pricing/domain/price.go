// Package domain contains the core domain types for the pricing context.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// Market is a spot market symbol such as "ETH/USD".
type Market struct {
	Base  string
	Quote string
}

// ParseMarket splits "ETH/USD" into its assets. Tickers are upper-cased.
func ParseMarket(symbol string) (Market, error) {
	base, quote, ok := strings.Cut(strings.TrimSpace(symbol), "/")
	if !ok || base == "" || quote == "" || strings.Contains(quote, "/") {
		return Market{}, apperror.New(apperror.CodeInvalidFormat, apperror.WithContext("market "+symbol))
	}
	return Market{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}, nil
}

// String returns "BASE/QUOTE".
func (m Market) String() string {
	return m.Base + "/" + m.Quote
}

// ExchangeSymbol is the concatenated exchange ticker. USD quotes are
// replaced by usdQuote (e.g. "USDT"), so ETH/USD becomes ETHUSDT.
func (m Market) ExchangeSymbol(usdQuote string) string {
	quote := m.Quote
	if quote == "USD" && usdQuote != "" {
		quote = strings.ToUpper(usdQuote)
	}
	return m.Base + quote
}

// SpotPrice is one market's price at a point in time.
type SpotPrice struct {
	Market    string
	Price     decimal.Decimal
	Source    string // "binance", "static"
	Timestamp time.Time
}

// IsStale reports whether the price is older than maxAge at now.
func (p SpotPrice) IsStale(now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && now.Sub(p.Timestamp) > maxAge
}

// Snapshot keys prices by market symbol.
type Snapshot map[string]SpotPrice

// Decimals flattens the snapshot to market -> price, skipping zero prices.
func (s Snapshot) Decimals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s))
	for market, p := range s {
		if p.Price.IsPositive() {
			out[market] = p.Price
		}
	}
	return out
}
