package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pricing/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

type fakeProvider struct {
	prices map[string]decimal.Decimal
	err    error
	calls  int
	asked  [][]domain.Market
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Prices(ctx context.Context, markets []domain.Market) ([]domain.SpotPrice, error) {
	f.calls++
	f.asked = append(f.asked, markets)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.SpotPrice
	for _, m := range markets {
		if p, ok := f.prices[m.String()]; ok {
			out = append(out, domain.SpotPrice{Market: m.String(), Price: p, Timestamp: time.Now()})
		}
	}
	return out, nil
}

func newService(t *testing.T, p Provider, ttl time.Duration) *SpotPriceService {
	t.Helper()
	s, err := NewSpotPriceService(p, ttl, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSpotPriceService_PricesKnownMarkets(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{"ETH/USD": decimal.NewFromInt(3000)}}
	s := newService(t, p, time.Minute)

	got, err := s.SpotPrices(context.Background(), []string{"ETH/USD", "TOKE/USD", "garbage"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got["ETH/USD"].Equal(decimal.NewFromInt(3000)) {
		t.Errorf("prices = %v", got)
	}
	if len(p.asked) != 1 || len(p.asked[0]) != 2 {
		t.Errorf("provider asked for %v", p.asked)
	}
}

func TestSpotPriceService_CachesWithinTTL(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{"ETH/USD": decimal.NewFromInt(3000)}}
	s := newService(t, p, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := s.SpotPrices(context.Background(), []string{"ETH/USD"}); err != nil {
			t.Fatal(err)
		}
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := s.SpotPrices(context.Background(), []string{"ETH/USD"}); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Errorf("expired entry not refetched, calls = %d", p.calls)
	}
}

func TestSpotPriceService_ProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("upstream down")}
	s := newService(t, p, time.Minute)

	_, err := s.SpotPrices(context.Background(), []string{"ETH/USD"})
	if apperror.GetCode(err) != apperror.CodeSpotPriceFailed {
		t.Errorf("err = %v", err)
	}
}

func TestSpotPriceService_FailureServesCachedSubset(t *testing.T) {
	p := &fakeProvider{prices: map[string]decimal.Decimal{"ETH/USD": decimal.NewFromInt(3000)}}
	s := newService(t, p, time.Minute)

	if _, err := s.SpotPrices(context.Background(), []string{"ETH/USD"}); err != nil {
		t.Fatal(err)
	}
	p.err = errors.New("upstream down")

	got, err := s.SpotPrices(context.Background(), []string{"ETH/USD", "BTC/USD"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got["ETH/USD"].Equal(decimal.NewFromInt(3000)) {
		t.Errorf("prices = %v", got)
	}
}

func TestSpotPriceService_NilProvider(t *testing.T) {
	s := newService(t, nil, time.Minute)
	got, err := s.SpotPrices(context.Background(), []string{"ETH/USD"})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}
