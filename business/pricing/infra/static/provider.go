// Package static serves spot prices from a fixed table.
package static

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pricing/domain"
)

// Provider implements app.Provider over a configured price table.
type Provider struct {
	prices map[string]decimal.Decimal
	now    func() time.Time
}

// NewProvider creates a Provider. prices is keyed by market symbol ("ETH/USD").
func NewProvider(prices map[string]decimal.Decimal) *Provider {
	table := make(map[string]decimal.Decimal, len(prices))
	for symbol, p := range prices {
		m, err := domain.ParseMarket(symbol)
		if err != nil {
			continue
		}
		table[m.String()] = p
	}
	return &Provider{prices: table, now: time.Now}
}

// Name implements app.Provider.
func (p *Provider) Name() string {
	return "static"
}

// Prices implements app.Provider.
func (p *Provider) Prices(ctx context.Context, markets []domain.Market) ([]domain.SpotPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.SpotPrice, 0, len(markets))
	for _, m := range markets {
		if price, ok := p.prices[m.String()]; ok {
			out = append(out, domain.SpotPrice{
				Market:    m.String(),
				Price:     price,
				Source:    p.Name(),
				Timestamp: p.now(),
			})
		}
	}
	return out, nil
}
