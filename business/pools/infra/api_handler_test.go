package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/app"
	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/asset"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

func testRow(name, market string, tvl int64) domain.PoolTokenRow {
	m, _ := domain.ParseMarketName(name)
	return domain.PoolTokenRow{
		Name:         name,
		MarketSymbol: market,
		Leverage:     m.Leverage,
		TVL:          decimal.NewFromInt(tvl),
		OneDayVolume: decimal.NewFromInt(10),
		MinWaitTime:  300,
		MaxWaitTime:  3600,
		PoolStatus:   domain.PoolStatusLive,
		ShortToken:   domain.SideToken{Symbol: "S-" + name, TVL: decimal.NewFromInt(tvl / 2), EffectiveGain: decimal.NewFromInt(3)},
		LongToken:    domain.SideToken{Symbol: "L-" + name, TVL: decimal.NewFromInt(tvl / 2), EffectiveGain: decimal.NewFromInt(3)},
	}
}

var testRows = []domain.PoolTokenRow{
	testRow("3-ETH/USD", "ETH/USD", 100),
	testRow("1-BTC/USD", "BTC/USD", 300),
	testRow("1-ETH/USD", "ETH/USD", 200),
}

// fakeBrowser runs the real pipeline over fixed rows.
type fakeBrowser struct {
	err       error
	lastState domain.BrowseState
	lastCtx   app.BrowseContext
}

func (f *fakeBrowser) Browse(ctx context.Context, state domain.BrowseState, bctx app.BrowseContext) (*app.BrowseView, error) {
	f.lastState, f.lastCtx = state, bctx
	if f.err != nil {
		return nil, f.err
	}
	res := app.RunPipeline(testRows, state)
	return &app.BrowseView{
		State:           state,
		Denotation:      bctx.Denotation,
		Rows:            res.Rows,
		Groups:          res.Groups,
		Banners:         app.BuildBanners(res.Groups, nil, map[string]decimal.Decimal{"ETH/USD": decimal.NewFromInt(2000)}),
		LeverageOptions: app.LeverageOptions(testRows),
		Source:          "test",
	}, nil
}

func TestAPIHandler_GroupsFilteredRows(t *testing.T) {
	fb := &fakeBrowser{}
	h := NewAPIHandler(fb, app.DenotedInNotional, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/pools?leverage=1x&sort=tvl", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got viewJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 2 || len(got.Groups) != 2 {
		t.Fatalf("count=%d groups=%+v", got.Count, got.Groups)
	}
	// Sorted by TVL descending, so BTC's group comes first.
	if got.Groups[0].MarketSymbol != "BTC/USD" || got.Groups[1].Pools[0] != "1-ETH/USD" {
		t.Errorf("groups = %+v", got.Groups)
	}
	if got.Filters.Leverage != "1" || got.Filters.SortBy != "TotalValueLocked" || got.Filters.Denotation != "notional" {
		t.Errorf("filters = %+v", got.Filters)
	}
	if got.Banners[1].SpotPrice != "$2,000.00" || got.Banners[0].SpotPrice != app.NoValue {
		t.Errorf("spot prices = %q, %q", got.Banners[0].SpotPrice, got.Banners[1].SpotPrice)
	}
	if card := got.Banners[0].Cards[0]; card.Title != "1x BTC/USD" || card.Short.TVLShare != "50.00" {
		t.Errorf("card = %+v", card)
	}
}

func TestAPIHandler_AccountDefaultsToHoldingsSort(t *testing.T) {
	fb := &fakeBrowser{}
	h := NewAPIHandler(fb, app.DenotedInNotional, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pools?account=0xabc&denotation=BASE", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if fb.lastState.SortBy != domain.SortByMyHoldings {
		t.Errorf("sort = %s", fb.lastState.SortBy)
	}
	if fb.lastCtx.Account != "0xabc" || fb.lastCtx.Denotation != app.DenotedInBase {
		t.Errorf("browse context = %+v", fb.lastCtx)
	}
}

type fixedRows []domain.PoolTokenRow

func (f fixedRows) Rows(ctx context.Context) ([]domain.PoolTokenRow, error) { return f, nil }
func (f fixedRows) Name() string { return "fixed" }

type fixedSpot map[string]decimal.Decimal

func (f fixedSpot) SpotPrices(ctx context.Context, markets []string) (map[string]decimal.Decimal, error) {
	return f, nil
}

func TestAPIHandler_DenotationChangesHoldings(t *testing.T) {
	held := testRow("3-BTC/USD", "BTC/USD", 1000)
	held.MyHoldings = decimal.NewFromInt(1234)

	registry := asset.DefaultRegistry()
	svc, err := app.NewBrowseService(fixedRows{held}, fixedSpot{"BTC/USD": decimal.NewFromInt(40000)},
		registry, app.NewDenoter(registry, app.DefaultBaseDecimals), logger.NewNop(), app.ServiceConfig{})
	if err != nil {
		t.Fatal(err)
	}
	h := NewAPIHandler(svc, app.DenotedInNotional, logger.NewNop())

	holding := func(t *testing.T, query string) *holdingJSON {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pools?"+query, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var got viewJSON
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Banners) != 1 || len(got.Banners[0].Cards) != 1 {
			t.Fatalf("banners = %+v", got.Banners)
		}
		return got.Banners[0].Cards[0].Holding
	}

	tests := []struct {
		query string
		want  *holdingJSON
	}{
		{"account=0xabc&denotation=notional", &holdingJSON{NetValue: "1234.00", Value: "$1,234.00 USD", Exposure: "$3,702.00 USD"}},
		{"account=0xabc&denotation=base", &holdingJSON{NetValue: "1234.00", Value: "0.03085000 BTC", Exposure: "0.09255000 BTC"}},
		{"denotation=base", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := holding(t, tt.query)
			if tt.want == nil {
				if got != nil {
					t.Errorf("holding without account = %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("holding = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAPIHandler_BadParams(t *testing.T) {
	tests := []struct {
		query string
		code  apperror.Code
	}{
		{"market=dogecoin", apperror.CodeInvalidMarketFilter},
		{"leverage=zero", apperror.CodeInvalidLeverage},
		{"leverage=-2", apperror.CodeInvalidLeverage},
		{"sort=price", apperror.CodeInvalidSortKey},
		{"denotation=eur", apperror.CodeUnknownDenomination},
	}

	h := NewAPIHandler(&fakeBrowser{}, app.DenotedInNotional, logger.NewNop())
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pools?"+tt.query, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != string(tt.code) {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestAPIHandler_SourceFailure(t *testing.T) {
	fb := &fakeBrowser{err: apperror.Wrap(errors.New("dial tcp"), apperror.CodePoolSourceFailed, "http")}
	h := NewAPIHandler(fb, app.DenotedInNotional, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pools", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAPIHandler_MethodNotAllowed(t *testing.T) {
	h := NewAPIHandler(&fakeBrowser{}, app.DenotedInNotional, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pools", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestParseQuery_Defaults(t *testing.T) {
	state, bctx, err := ParseQuery(url.Values{}, app.DenotedInBase)
	if err != nil {
		t.Fatal(err)
	}
	if state != domain.DefaultBrowseState(false) {
		t.Errorf("state = %+v", state)
	}
	if bctx.Denotation != app.DenotedInBase || bctx.AccountConnected() {
		t.Errorf("bctx = %+v", bctx)
	}
}

func TestConsoleReporter_Render(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf)

	view, err := (&fakeBrowser{}).Browse(context.Background(), domain.DefaultBrowseState(false), app.BrowseContext{Denotation: app.DenotedInNotional})
	if err != nil {
		t.Fatal(err)
	}
	view.Malformed = []string{"ETH-USD"}
	r.Render(view)

	out := buf.String()
	for _, want := range []string{
		"Market: All  Leverage: All  Sort: Name",
		"MARKET TICKER (ETH/USD)",
		"Spot Price:     $2,000.00",
		"24H Volume:     $20.00",
		"3x ETH/USD",
		"5m ~ 1h",
		"3.00x LONG",
		"Unparsed pool names: ETH-USD",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	// ETH group was seen first.
	if strings.Index(out, "(ETH/USD)") > strings.Index(out, "(BTC/USD)") {
		t.Error("groups out of first-seen order")
	}
}

func TestConsoleReporter_RendersHolding(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf)

	view, err := (&fakeBrowser{}).Browse(context.Background(), domain.DefaultBrowseState(false), app.BrowseContext{})
	if err != nil {
		t.Fatal(err)
	}
	view.Banners[0].Cards[0].Holding = app.HoldingValue{
		Pool:     "3-ETH/USD",
		NetValue: decimal.NewFromInt(10),
		Value:    "0.005000 ETH",
		Exposure: "0.015000 ETH",
	}
	r.Render(view)

	if out := buf.String(); !strings.Contains(out, "HELD   0.005000 ETH  exposure 0.015000 ETH") {
		t.Errorf("output missing holding line\n%s", out)
	}
	if strings.Count(buf.String(), "HELD") != 1 {
		t.Error("pools without holdings should not print a holding line")
	}
}

func TestConsoleReporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf)
	r.Render(&app.BrowseView{State: domain.DefaultBrowseState(false), Stale: true})
	if !strings.Contains(buf.String(), "No pools match") || !strings.Contains(buf.String(), "[STALE]") {
		t.Errorf("output = %s", buf.String())
	}
}
