package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/asset"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

type fakeSource struct {
	rows  []domain.PoolTokenRow
	err   error
	calls int
}

func (f *fakeSource) Rows(ctx context.Context) ([]domain.PoolTokenRow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSource) Name() string { return "fake" }

type fakeSpot struct {
	prices  map[string]decimal.Decimal
	err     error
	markets []string
}

func (f *fakeSpot) SpotPrices(ctx context.Context, markets []string) (map[string]decimal.Decimal, error) {
	f.markets = markets
	return f.prices, f.err
}

func newTestService(t *testing.T, src RowSource, spot SpotPriceSource, cfg ServiceConfig) *BrowseService {
	t.Helper()
	registry := asset.DefaultRegistry()
	s, err := NewBrowseService(src, spot, registry, NewDenoter(registry, DefaultBaseDecimals), logger.NewNop(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBrowseService_Browse(t *testing.T) {
	src := &fakeSource{rows: fixtureRows()}
	spot := &fakeSpot{prices: map[string]decimal.Decimal{"BTC/USD": d("40000")}}
	s := newTestService(t, src, spot, ServiceConfig{})

	state := domain.Reduce(domain.DefaultBrowseState(false), domain.SetSortBy{Value: domain.SortByTotalValueLocked})
	view, err := s.Browse(context.Background(), state, BrowseContext{Denotation: DenotedInNotional})
	if err != nil {
		t.Fatal(err)
	}

	if len(view.Groups) != 4 || view.Groups[0].MarketSymbol != "BTC/USD" {
		t.Fatalf("groups = %+v", view.Groups)
	}
	if len(view.Banners) != 4 || view.Banners[0].SpotPrice != "$40,000.00" {
		t.Errorf("banner spot = %+v", view.Banners[0])
	}
	if view.Banners[1].SpotPrice != NoValue {
		t.Errorf("unpriced market spot = %s", view.Banners[1].SpotPrice)
	}
	if len(view.Tokens) != 2*len(view.Rows) {
		t.Errorf("tokens = %d", len(view.Tokens))
	}
	if len(spot.markets) != 4 {
		t.Errorf("spot asked for %v", spot.markets)
	}
	want := []int{1, 3, 10}
	if len(view.LeverageOptions) != len(want) {
		t.Fatalf("leverage options = %v", view.LeverageOptions)
	}
	for i := range want {
		if view.LeverageOptions[i] != want[i] {
			t.Errorf("leverage options = %v", view.LeverageOptions)
		}
	}
	if view.Stale || view.Source != "fake" {
		t.Errorf("stale=%v source=%s", view.Stale, view.Source)
	}
}

func TestBrowseService_ContextSpotPricesOverride(t *testing.T) {
	spot := &fakeSpot{err: errors.New("should not be called")}
	s := newTestService(t, &fakeSource{rows: fixtureRows()}, spot, ServiceConfig{})

	view, err := s.Browse(context.Background(), domain.DefaultBrowseState(false), BrowseContext{
		SpotPrices: map[string]decimal.Decimal{"ETH/USD": d("3000")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if spot.markets != nil {
		t.Error("spot source consulted despite override")
	}
	if view.Banners[0].SpotPrice != "$3,000.00" {
		t.Errorf("spot = %s", view.Banners[0].SpotPrice)
	}
}

func TestBrowseService_SpotFailureDegrades(t *testing.T) {
	spot := &fakeSpot{err: apperror.New(apperror.CodeSpotPriceFailed)}
	s := newTestService(t, &fakeSource{rows: fixtureRows()}, spot, ServiceConfig{})

	view, err := s.Browse(context.Background(), domain.DefaultBrowseState(false), BrowseContext{})
	if err != nil {
		t.Fatalf("spot failure should not fail the browse: %v", err)
	}
	for _, b := range view.Banners {
		if b.SpotPrice != NoValue {
			t.Errorf("%s spot = %s", b.MarketSymbol, b.SpotPrice)
		}
	}
}

func TestBrowseService_SourceFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	s := newTestService(t, src, nil, ServiceConfig{})

	_, err := s.Browse(context.Background(), domain.DefaultBrowseState(false), BrowseContext{})
	if apperror.GetCode(err) != apperror.CodePoolSourceFailed {
		t.Fatalf("err = %v", err)
	}
}

func TestBrowseService_ServesLastGoodSnapshot(t *testing.T) {
	src := &fakeSource{rows: fixtureRows()}
	s := newTestService(t, src, nil, ServiceConfig{})

	if _, err := s.Browse(context.Background(), domain.DefaultBrowseState(false), BrowseContext{}); err != nil {
		t.Fatal(err)
	}

	src.err = errors.New("timeout")
	view, err := s.Browse(context.Background(), domain.DefaultBrowseState(false), BrowseContext{})
	if err != nil {
		t.Fatal(err)
	}
	if !view.Stale {
		t.Error("view should be stale")
	}
	if len(view.Rows) != len(fixtureRows()) {
		t.Errorf("rows = %d", len(view.Rows))
	}
}

func TestBrowseService_StaleAfter(t *testing.T) {
	src := &fakeSource{rows: fixtureRows()}
	s := newTestService(t, src, nil, ServiceConfig{StaleAfter: time.Minute})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(2 * time.Minute)
	}

	view, err := s.Browse(context.Background(), domain.DefaultBrowseState(false), BrowseContext{})
	if err != nil {
		t.Fatal(err)
	}
	if !view.Stale {
		t.Error("snapshot older than StaleAfter should be stale")
	}
}

func TestLeverageOptions_SkipsMalformed(t *testing.T) {
	rows := append(fixtureRows(), row("bad", "X/USD", 0, 0))
	opts := LeverageOptions(rows)
	if len(opts) != 3 {
		t.Errorf("options = %v", opts)
	}
}

func holdingOf(t *testing.T, view *BrowseView, pool string) HoldingValue {
	t.Helper()
	for i, r := range view.Rows {
		if r.Name == pool {
			return view.Holdings[i]
		}
	}
	t.Fatalf("pool %s not in view", pool)
	return HoldingValue{}
}

func TestBrowseService_HoldingsDenotation(t *testing.T) {
	s := newTestService(t, &fakeSource{rows: fixtureRows()}, nil, ServiceConfig{})
	spot := map[string]decimal.Decimal{"BTC/USD": d("40000")}

	tests := []struct {
		name         string
		in           Denotation
		pool         string
		wantValue    string
		wantExposure string
	}{
		{name: "notional", in: DenotedInNotional, pool: "3-BTC/USD", wantValue: "$9.00 USD", wantExposure: "$27.00 USD"},
		{name: "base", in: DenotedInBase, pool: "3-BTC/USD", wantValue: "0.00022500 BTC", wantExposure: "0.00067500 BTC"},
		{name: "base_without_spot", in: DenotedInBase, pool: "1-ETH/USD", wantValue: NoValue, wantExposure: NoValue},
		{name: "base_zero_holding", in: DenotedInBase, pool: "3-ETH/USD", wantValue: "0.00 ETH", wantExposure: "0.00 ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := s.Browse(context.Background(), domain.DefaultBrowseState(true), BrowseContext{
				Account:    "0xabc",
				Denotation: tt.in,
				SpotPrices: spot,
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(view.Holdings) != len(view.Rows) {
				t.Fatalf("holdings = %d, rows = %d", len(view.Holdings), len(view.Rows))
			}

			h := holdingOf(t, view, tt.pool)
			if h.Value != tt.wantValue || h.Exposure != tt.wantExposure {
				t.Errorf("holding = %q / %q, want %q / %q", h.Value, h.Exposure, tt.wantValue, tt.wantExposure)
			}

			for _, b := range view.Banners {
				for _, c := range b.Cards {
					if c.Name == tt.pool && c.Holding != h {
						t.Errorf("card holding = %+v, want %+v", c.Holding, h)
					}
				}
			}
		})
	}
}

func TestBrowseService_HoldingsNeedConnectedAccount(t *testing.T) {
	src := &fakeSource{rows: fixtureRows()}
	s := newTestService(t, src, nil, ServiceConfig{HoldingsAccount: "0xAbC"})

	tests := []struct {
		name    string
		account string
		want    []string
	}{
		{name: "disconnected", account: "", want: names(fixtureRows())},
		{name: "other_account", account: "0xdef", want: names(fixtureRows())},
		{name: "source_account", account: "0xabc", want: []string{"3-BTC/USD", "1-ETH/USD", "3-LINK/USD", "1-BTC/USD", "3-ETH/USD", "10-EUR/USD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := domain.Reduce(domain.DefaultBrowseState(false), domain.SetSortBy{Value: domain.SortByMyHoldings})
			view, err := s.Browse(context.Background(), state, BrowseContext{Account: tt.account})
			if err != nil {
				t.Fatal(err)
			}

			got := names(view.Rows)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", got, tt.want)
				}
			}
			if tt.account == "0xabc" {
				return
			}
			for _, r := range view.Rows {
				if !r.MyHoldings.IsZero() {
					t.Errorf("%s holdings = %s, want 0", r.Name, r.MyHoldings)
				}
			}
		})
	}

	if !src.rows[3].MyHoldings.Equal(d("9")) {
		t.Errorf("source row mutated: %s", src.rows[3].MyHoldings)
	}
}
