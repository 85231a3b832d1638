// Package pools implements the pool listing context: sources, pipeline and presenters.
package pools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/perpetual-pools/business/pools/app"
	poolsDI "github.com/fd1az/perpetual-pools/business/pools/di"
	"github.com/fd1az/perpetual-pools/business/pools/infra"
	"github.com/fd1az/perpetual-pools/business/pools/infra/httpapi"
	"github.com/fd1az/perpetual-pools/business/pools/infra/jsonfile"
	"github.com/fd1az/perpetual-pools/business/pools/infra/postgres"
	"github.com/fd1az/perpetual-pools/business/pools/infra/wsfeed"
	pricingDI "github.com/fd1az/perpetual-pools/business/pricing/di"
	"github.com/fd1az/perpetual-pools/internal/asset"
	"github.com/fd1az/perpetual-pools/internal/config"
	"github.com/fd1az/perpetual-pools/internal/di"
	"github.com/fd1az/perpetual-pools/internal/logger"
	"github.com/fd1az/perpetual-pools/internal/monolith"
)

// APIRoute is where the JSON listing is served.
const APIRoute = "/api/pools"

// Module implements the pools bounded context.
type Module struct {
	source app.RowSource
}

// RegisterServices registers all pools services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// RowSource - selected by source.kind
	di.RegisterToken(c, poolsDI.RowSource, func(sr di.ServiceRegistry) app.RowSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		source, err := NewRowSource(cfg, log)
		if err != nil {
			panic("failed to create row source: " + err.Error())
		}
		return source
	})

	// Denoter - precision from the asset registry
	di.RegisterToken(c, poolsDI.Denoter, func(sr di.ServiceRegistry) *app.Denoter {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		return app.NewDenoter(registry, cfg.Display.DefaultBaseDecimals)
	})

	// BrowseService (public)
	di.RegisterToken(c, poolsDI.BrowseService, func(sr di.ServiceRegistry) *app.BrowseService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		var spot app.SpotPriceSource
		if cfg.Pricing.Provider != config.PricingNone && sr.Has(pricingDI.SpotPriceService.Name()) {
			spot = pricingDI.GetSpotPriceService(sr)
		}

		svc, err := app.NewBrowseService(poolsDI.GetRowSource(sr), spot, registry, poolsDI.GetDenoter(sr), log, app.ServiceConfig{
			StaleAfter:      cfg.Source.StaleAfter,
			HoldingsAccount: cfg.Browse.Account,
		})
		if err != nil {
			panic(fmt.Sprintf("failed to create browse service: %v", err))
		}
		return svc
	})

	// APIHandler - private
	di.RegisterToken(c, poolsDI.APIHandler, func(sr di.ServiceRegistry) *infra.APIHandler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return infra.NewAPIHandler(poolsDI.GetBrowseService(sr), app.ParseDenotation(cfg.Display.Denotation), log)
	})

	return nil
}

// NewRowSource builds the source named by cfg.Source.Kind.
func NewRowSource(cfg *config.Config, log logger.LoggerInterface) (app.RowSource, error) {
	switch cfg.Source.Kind {
	case config.SourceJSONFile:
		return jsonfile.NewSource(cfg.Source.Path), nil
	case config.SourceHTTP:
		return httpapi.NewSource(httpapi.Config{
			URL:       cfg.Source.URL,
			Account:   cfg.Browse.Account,
			Timeout:   cfg.Source.Timeout,
			RateLimit: cfg.Source.RateLimit,
		}, log)
	case config.SourcePostgres:
		timeout := cfg.Source.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return postgres.NewStore(ctx, cfg.Source.DSN, cfg.Source.Kind)
	case config.SourceWS:
		return wsfeed.NewFeed(wsfeed.Config{
			URL:       cfg.Source.URL,
			Account:   cfg.Browse.Account,
			WaitFirst: cfg.Source.Timeout,
		}, log)
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}

// Startup connects the source, registers health checks and mounts the API.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	services := mono.Services()

	m.source = poolsDI.GetRowSource(services)

	switch src := m.source.(type) {
	case *postgres.Store:
		if err := src.EnsureSchema(ctx); err != nil {
			return err
		}
		mono.HTTPServer().RegisterCheck("postgres", func(ctx context.Context) (bool, string) {
			if err := src.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
	case *wsfeed.Feed:
		// Connect in the background; Rows waits for the first snapshot.
		go func() {
			if err := src.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn(ctx, "pools feed connection failed", "error", err)
			}
		}()
		mono.HTTPServer().RegisterCheck("pools_feed", func(ctx context.Context) (bool, string) {
			if !src.Connected() {
				return false, "disconnected"
			}
			return true, "updated " + src.UpdatedAt().Format(time.RFC3339)
		})
	default:
		mono.HTTPServer().RegisterCheck("pools_source", func(ctx context.Context) (bool, string) {
			rows, err := src.Rows(ctx)
			if err != nil {
				return false, err.Error()
			}
			return true, fmt.Sprintf("%d rows", len(rows))
		})
	}

	mono.HTTPServer().Handle(APIRoute, otelhttp.NewHandler(poolsDI.GetAPIHandler(services), "pools.api"))

	log.Info(ctx, "pools module started", "source", m.source.Name())
	return nil
}

// Close releases the row source.
func (m *Module) Close() error {
	switch src := m.source.(type) {
	case *postgres.Store:
		src.Close()
	case *wsfeed.Feed:
		return src.Close()
	}
	return nil
}
