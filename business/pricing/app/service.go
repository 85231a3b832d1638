package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/perpetual-pools/business/pricing/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

const instrumentationName = "github.com/fd1az/perpetual-pools/business/pricing"

// SpotPriceService serves spot prices keyed by market symbol, caching each
// market for a TTL so repeated browses do not hit the provider.
type SpotPriceService struct {
	provider Provider
	ttl      time.Duration
	log      logger.LoggerInterface
	tracer   trace.Tracer
	now      func() time.Time

	fetches metric.Int64Counter
	misses  metric.Int64Counter

	mu    sync.Mutex
	cache domain.Snapshot
}

// NewSpotPriceService creates a SpotPriceService. A nil provider yields no prices.
func NewSpotPriceService(provider Provider, ttl time.Duration, log logger.LoggerInterface) (*SpotPriceService, error) {
	meter := otel.Meter(instrumentationName)

	fetches, err := meter.Int64Counter(
		"pricing_provider_fetches_total",
		metric.WithDescription("Spot price provider calls"),
	)
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter(
		"pricing_unpriced_markets_total",
		metric.WithDescription("Markets the provider could not price"),
	)
	if err != nil {
		return nil, err
	}

	return &SpotPriceService{
		provider: provider,
		ttl:      ttl,
		log:      log,
		tracer:   otel.Tracer(instrumentationName),
		now:      time.Now,
		fetches:  fetches,
		misses:   misses,
		cache:    make(domain.Snapshot),
	}, nil
}

// SpotPrices returns the price of each market it can price. Unparseable
// and unpriced markets are left out of the map.
func (s *SpotPriceService) SpotPrices(ctx context.Context, markets []string) (map[string]decimal.Decimal, error) {
	if s.provider == nil || len(markets) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	ctx, span := s.tracer.Start(ctx, "pricing.spot_prices",
		trace.WithAttributes(
			attribute.String("provider", s.provider.Name()),
			attribute.Int("markets", len(markets)),
		))
	defer span.End()

	now := s.now()
	out := make(domain.Snapshot, len(markets))
	var missing []domain.Market

	s.mu.Lock()
	for _, symbol := range markets {
		m, err := domain.ParseMarket(symbol)
		if err != nil {
			s.log.Debug(ctx, "skipping unparseable market", "market", symbol)
			continue
		}
		if p, ok := s.cache[m.String()]; ok && !p.IsStale(now, s.ttl) {
			out[symbol] = p
			continue
		}
		missing = append(missing, m)
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		s.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", s.provider.Name())))
		prices, err := s.provider.Prices(ctx, missing)
		if err != nil {
			span.RecordError(err)
			if len(out) == 0 {
				return nil, apperror.Wrap(err, apperror.CodeSpotPriceFailed, s.provider.Name())
			}
			s.log.Warn(ctx, "spot price refresh failed, serving cached prices",
				"provider", s.provider.Name(), "error", err)
			return out.Decimals(), nil
		}

		got := make(map[string]bool, len(prices))
		s.mu.Lock()
		for _, p := range prices {
			s.cache[p.Market] = p
			got[p.Market] = true
		}
		s.mu.Unlock()

		for _, symbol := range markets {
			m, err := domain.ParseMarket(symbol)
			if err != nil {
				continue
			}
			if p, ok := s.lookup(m.String()); ok && got[m.String()] {
				out[symbol] = p
			}
		}
		if n := len(missing) - len(prices); n > 0 {
			s.misses.Add(ctx, int64(n), metric.WithAttributes(attribute.String("provider", s.provider.Name())))
		}
	}

	span.SetAttributes(attribute.Int("priced", len(out)))
	return out.Decimals(), nil
}

func (s *SpotPriceService) lookup(market string) (domain.SpotPrice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.cache[market]
	return p, ok
}
