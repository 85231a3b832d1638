package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes one HTTP call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)

	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
}

// Response wraps http.Response with the already-read body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// IsError returns true for status >= 400.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// ErrDecode is returned when a result was requested but the body is not valid JSON for it.
var ErrDecode = errors.New("httpclient: decode response")

type requestBuilder struct {
	c            *InstrumentedClient
	headers      map[string]string
	query        url.Values
	result       any
	errorHandler ResponseErrorHandler
	labels       []*Label
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetResult sets the JSON decode target for successful responses.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	ctx, span := r.c.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
			attribute.String("provider", r.c.providerName),
		),
	)
	defer span.End()

	fullURL := path
	if r.c.baseURL != "" && !strings.HasPrefix(path, "http") {
		fullURL = strings.TrimSuffix(r.c.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.c.client.Do(req)
	if err != nil {
		r.recordError(ctx, span, err, start)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		r.recordError(ctx, span, err, start)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	response := &Response{Response: resp, body: body}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, body); handlerErr != nil {
			r.recordMetrics(ctx, false, start)
			span.SetStatus(codes.Error, handlerErr.Error())
			return response, handlerErr
		}
	}

	if r.result != nil && !response.IsError() {
		if err := json.Unmarshal(body, r.result); err != nil {
			r.recordMetrics(ctx, false, start)
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode failed")
			return response, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	r.recordMetrics(ctx, !response.IsError(), start)
	return response, nil
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, err error, start time.Time) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.recordMetrics(ctx, false, start)
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool, start time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.c.providerName),
		attribute.Bool("success", success),
	}
	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}

	r.c.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.c.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))
}
