// Package httpclient provides an HTTP client with OTEL tracing and metrics
// for the remote pool and price APIs.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
	metricRequestLatency = "http_client_request_duration_ms"
)

// Client builds instrumented requests.
type Client interface {
	NewRequest() Request
	NewRequestWithOptions(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	latency        metric.Float64Histogram
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	defaultHeaders map[string]string
}

// ClientOptions holds configuration for the instrumented HTTP client.
type ClientOptions struct {
	meterProvider  metric.MeterProvider
	providerName   string
	roundTripper   http.RoundTripper
	requestTimeout time.Duration
	headers        map[string]string
	baseURL        string
}

// ClientOption configures ClientOptions.
type ClientOption func(*ClientOptions)

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(o *ClientOptions) { o.meterProvider = mp }
}

// WithProviderName sets the provider name for metrics and traces.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) { o.providerName = name }
}

// WithRoundTripper sets a custom HTTP transport.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *ClientOptions) { o.roundTripper = rt }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) { o.requestTimeout = timeout }
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) { o.headers = headers }
}

// WithBaseURL sets the base URL for relative paths.
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) { o.baseURL = url }
}

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	options := &ClientOptions{requestTimeout: defaultRequestTimeout, providerName: "default"}
	for _, o := range opts {
		o(options)
	}

	transport := options.roundTripper
	if transport == nil {
		transport = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: options.requestTimeout,
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	meterProvider := options.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	meter := meterProvider.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", options.providerName)),
	)

	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		metricRequestLatency,
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		client:         httpClient,
		requestCounter: requestCounter,
		latency:        latency,
		providerName:   options.providerName,
		tracer:         otel.Tracer("instrumented_http_client"),
		baseURL:        options.baseURL,
		defaultHeaders: options.headers,
	}, nil
}

// NewRequest creates a request builder with default options.
func (c *InstrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

// NewRequestWithOptions creates a request builder with custom options.
func (c *InstrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	reqOpts := &RequestOptions{}
	for _, o := range opts {
		o(reqOpts)
	}

	headers := make(map[string]string, len(c.defaultHeaders))
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}

	return &requestBuilder{
		c:            c,
		headers:      headers,
		errorHandler: reqOpts.responseErrorHandler,
		labels:       reqOpts.labels,
	}
}

// RequestOptions holds per-request configuration.
type RequestOptions struct {
	responseErrorHandler ResponseErrorHandler
	labels               []*Label
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

// ResponseErrorHandler turns a response into an error, or nil to accept it.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithResponseErrorHandler sets a custom error handler for responses.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *RequestOptions) { o.responseErrorHandler = handler }
}

// Label is a key-value pair for metrics.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a new label.
func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

// WithLabels sets metric labels for the request.
func WithLabels(labels ...*Label) RequestOption {
	return func(o *RequestOptions) { o.labels = labels }
}
