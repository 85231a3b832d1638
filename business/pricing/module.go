// Package pricing implements the spot price context that feeds market banners.
package pricing

import (
	"context"
	"fmt"

	"github.com/fd1az/perpetual-pools/business/pricing/app"
	pricingDI "github.com/fd1az/perpetual-pools/business/pricing/di"
	"github.com/fd1az/perpetual-pools/business/pricing/infra/binance"
	"github.com/fd1az/perpetual-pools/business/pricing/infra/static"
	"github.com/fd1az/perpetual-pools/internal/config"
	"github.com/fd1az/perpetual-pools/internal/di"
	"github.com/fd1az/perpetual-pools/internal/logger"
	"github.com/fd1az/perpetual-pools/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Provider - private dependency, nil when pricing is disabled
	di.RegisterToken(c, pricingDI.Provider, func(sr di.ServiceRegistry) app.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		switch cfg.Pricing.Provider {
		case config.PricingBinance:
			provider, err := binance.NewProvider(binance.Config{
				BaseURL:    cfg.Pricing.BinanceURL,
				QuoteAsset: cfg.Pricing.QuoteAsset,
				Timeout:    cfg.Source.Timeout,
				RateLimit:  cfg.Pricing.RateLimit,
			}, log)
			if err != nil {
				panic("failed to create binance provider: " + err.Error())
			}
			return provider
		case config.PricingStatic:
			return static.NewProvider(cfg.Pricing.StaticPrices())
		}
		return nil
	})

	// SpotPriceService (public - consumed by the pools module)
	di.RegisterToken(c, pricingDI.SpotPriceService, func(sr di.ServiceRegistry) *app.SpotPriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewSpotPriceService(pricingDI.GetProvider(sr), cfg.Pricing.CacheTTL, log)
		if err != nil {
			panic(fmt.Sprintf("failed to create spot price service: %v", err))
		}
		return svc
	})

	return nil
}

// Startup resolves the provider so configuration errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	provider := "none"
	if p := pricingDI.GetProvider(mono.Services()); p != nil {
		provider = p.Name()
	}
	_ = pricingDI.GetSpotPriceService(mono.Services())

	log.Info(ctx, "pricing module started", "provider", provider)
	return nil
}
