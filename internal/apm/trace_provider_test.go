package apm

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/perpetual-pools/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-team=abc, api-key=k=v ,broken,=empty")
	if got["x-team"] != "abc" {
		t.Errorf("x-team = %q", got["x-team"])
	}
	if got["api-key"] != "k=v" {
		t.Errorf("api-key = %q", got["api-key"])
	}
	if len(got) != 2 {
		t.Errorf("got %v, want 2 entries", got)
	}
}

func TestNewTraceProvider_Noop(t *testing.T) {
	tp, err := NewTraceProvider(context.Background(), logger.NewNop(), Options{Exporter: NoopExporter})
	if err != nil {
		t.Fatal(err)
	}
	if err := tp.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestNewTraceProvider_UnknownExporter(t *testing.T) {
	_, err := NewTraceProvider(context.Background(), logger.NewNop(), Options{Exporter: "jaeger"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSpan_NoticeErrorNil(t *testing.T) {
	ctx, span := NewTracer("test").StartSpanFromContext(context.Background(), "unit")
	defer span.End()
	span.NoticeError(nil)
	span.NoticeError(errors.New("boom"))
	if NewTracer("test").SpanFromContext(ctx) == nil {
		t.Error("expected span from context")
	}
}
