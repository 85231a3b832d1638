// Package httpapi fetches pool rows from a remote pools API.
package httpapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/business/pools/infra/wire"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/circuitbreaker"
	"github.com/fd1az/perpetual-pools/internal/httpclient"
	"github.com/fd1az/perpetual-pools/internal/logger"
	"github.com/fd1az/perpetual-pools/internal/ratelimit"
)

const (
	tracerName     = "github.com/fd1az/perpetual-pools/business/pools/infra/httpapi"
	defaultTimeout = 10 * time.Second
)

// Config holds the remote API settings.
type Config struct {
	URL       string // full endpoint, e.g. https://api.example.com/pools
	Account   string // sent as ?account= so the API can fill myHoldings
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 disables
}

// Source is an app.RowSource backed by an HTTP API.
type Source struct {
	client  httpclient.Client
	path    string
	account string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[[]domain.PoolTokenRow]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewSource creates a Source.
func NewSource(cfg Config, log logger.LoggerInterface) (*Source, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("source url %q", cfg.URL)))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("pools-api"),
		httpclient.WithBaseURL(u.Scheme+"://"+u.Host),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	cbCfg := circuitbreaker.DefaultConfig("pools-api")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Source{
		client:  client,
		path:    path,
		account: cfg.Account,
		limiter: ratelimit.New("pools-api", cfg.RateLimit, 1),
		breaker: circuitbreaker.New[[]domain.PoolTokenRow](cbCfg),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Name implements app.RowSource.
func (s *Source) Name() string {
	return "http"
}

// Rows implements app.RowSource.
func (s *Source) Rows(ctx context.Context) ([]domain.PoolTokenRow, error) {
	ctx, span := s.tracer.Start(ctx, "pools.http.rows",
		trace.WithAttributes(attribute.String("path", s.path)))
	defer span.End()

	if err := s.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows, err := s.breaker.Execute(ctx, s.fetch)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	s.logger.Debug(ctx, "fetched pool rows", "source", s.Name(), "rows", len(rows))
	return rows, nil
}

func (s *Source) fetch(ctx context.Context) ([]domain.PoolTokenRow, error) {
	req := s.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "pools")),
		httpclient.WithResponseErrorHandler(apiErrorHandler),
	)
	if s.account != "" {
		req = req.SetQueryParam("account", s.account)
	}

	resp, err := req.Get(ctx, s.path)
	if err != nil {
		return nil, apperror.New(apperror.CodePoolSourceFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch pool rows"))
	}

	rows, err := wire.Decode(resp.Body())
	if err != nil {
		return nil, apperror.New(apperror.CodePoolSourceFailed,
			apperror.WithCause(err),
			apperror.WithContext("invalid pool rows payload"))
	}
	return rows, nil
}

func apiErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		if len(body) > 256 {
			body = body[:256]
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
