// Package binance prices markets from the Binance REST ticker.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/perpetual-pools/business/pricing/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/circuitbreaker"
	"github.com/fd1az/perpetual-pools/internal/httpclient"
	"github.com/fd1az/perpetual-pools/internal/logger"
	"github.com/fd1az/perpetual-pools/internal/ratelimit"
)

const (
	// BaseAPIURL is the public Binance REST endpoint.
	BaseAPIURL = "https://api.binance.com"

	tickerEndpoint = "/api/v3/ticker/price"
	tracerName     = "github.com/fd1az/perpetual-pools/business/pricing/infra/binance"
	httpTimeout    = 10 * time.Second

	// codeInvalidSymbol is Binance's error for an unlisted symbol.
	codeInvalidSymbol = -1121
)

// Config holds ticker client settings.
type Config struct {
	BaseURL    string
	QuoteAsset string // substituted for USD, e.g. "USDT"
	Timeout    time.Duration
	RateLimit  float64 // requests per second, <= 0 disables
}

// Provider implements app.Provider against /api/v3/ticker/price.
type Provider struct {
	client  httpclient.Client
	cfg     Config
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[decimal.Decimal]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	now     func() time.Time
}

// NewProvider creates a Provider.
func NewProvider(cfg Config, log logger.LoggerInterface) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("binance-ticker")
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled) || isInvalidSymbol(err)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Provider{
		client:  client,
		cfg:     cfg,
		limiter: ratelimit.New("binance", cfg.RateLimit, 1),
		breaker: circuitbreaker.New[decimal.Decimal](cbCfg),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}, nil
}

// Name implements app.Provider.
func (p *Provider) Name() string {
	return "binance"
}

// TickerResponse is one entry of the ticker price endpoint.
type TickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Prices implements app.Provider. Symbols Binance does not list are skipped.
func (p *Provider) Prices(ctx context.Context, markets []domain.Market) ([]domain.SpotPrice, error) {
	out := make([]domain.SpotPrice, 0, len(markets))
	for _, m := range markets {
		price, err := p.price(ctx, m)
		if err != nil {
			if isInvalidSymbol(err) {
				p.logger.Debug(ctx, "market not listed on binance", "market", m.String())
				continue
			}
			return out, err
		}
		out = append(out, domain.SpotPrice{
			Market:    m.String(),
			Price:     price,
			Source:    p.Name(),
			Timestamp: p.now(),
		})
	}
	return out, nil
}

func (p *Provider) price(ctx context.Context, m domain.Market) (decimal.Decimal, error) {
	symbol := m.ExchangeSymbol(p.cfg.QuoteAsset)
	ctx, span := p.tracer.Start(ctx, "binance.http.ticker_price",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	price, err := p.breaker.Execute(ctx, func(ctx context.Context) (decimal.Decimal, error) {
		var result TickerResponse
		_, err := p.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "ticker_price"),
				httpclient.NewLabel("symbol", symbol),
			),
			httpclient.WithResponseErrorHandler(binanceErrorHandler),
		).
			SetQueryParam("symbol", symbol).
			SetResult(&result).
			Get(ctx, tickerEndpoint)
		if err != nil {
			if isInvalidSymbol(err) {
				return decimal.Zero, err
			}
			return decimal.Zero, apperror.New(apperror.CodeSpotPriceFailed,
				apperror.WithCause(err),
				apperror.WithContext("failed to fetch ticker for "+symbol))
		}

		d, err := decimal.NewFromString(result.Price)
		if err != nil {
			return decimal.Zero, apperror.New(apperror.CodeSpotPriceFailed,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("bad price %q for %s", result.Price, symbol)))
		}
		return d, nil
	})
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	span.SetAttributes(attribute.String("price", price.String()))
	return price, nil
}

// APIError represents an error response from the Binance API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

func isInvalidSymbol(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol
}

func binanceErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
