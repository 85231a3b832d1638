package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fd1az/perpetual-pools/business/pools/app"
	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

// Browser runs one listing. *app.BrowseService satisfies it.
type Browser interface {
	Browse(ctx context.Context, state domain.BrowseState, bctx app.BrowseContext) (*app.BrowseView, error)
}

// APIHandler serves GET /api/pools.
type APIHandler struct {
	browser    Browser
	denotation app.Denotation
	log        logger.LoggerInterface
}

// NewAPIHandler creates an APIHandler. denotation applies when the request omits it.
func NewAPIHandler(browser Browser, denotation app.Denotation, log logger.LoggerInterface) *APIHandler {
	return &APIHandler{browser: browser, denotation: denotation, log: log}
}

type sideJSON struct {
	Symbol   string `json:"symbol"`
	TVL      string `json:"tvl"`
	TCRPrice string `json:"tcrPrice"`
	DEXPrice string `json:"dexPrice"`
	TVLShare string `json:"tvlShare"`
	Trade    string `json:"trade"`
}

type holdingJSON struct {
	NetValue string `json:"netValue"`
	Value    string `json:"value"`
	Exposure string `json:"exposure"`
}

type cardJSON struct {
	Name       string       `json:"name"`
	Address    string       `json:"address,omitempty"`
	Title      string       `json:"title"`
	Leverage   int          `json:"leverage"`
	CommitWait string       `json:"commitWait"`
	SpotPrice  string       `json:"spotPrice"`
	Short      sideJSON     `json:"short"`
	Long       sideJSON     `json:"long"`
	Holding    *holdingJSON `json:"holding,omitempty"`
}

type bannerJSON struct {
	MarketSymbol string     `json:"marketSymbol"`
	AssetName    string     `json:"assetName"`
	SpotPrice    string     `json:"spotPrice"`
	Volume       string     `json:"oneDayVolume"`
	Cards        []cardJSON `json:"cards"`
}

type groupJSON struct {
	MarketSymbol string   `json:"marketSymbol"`
	Pools        []string `json:"pools"`
}

type filtersJSON struct {
	Search     string `json:"search"`
	Market     string `json:"market"`
	Leverage   string `json:"leverage"`
	SortBy     string `json:"sortBy"`
	Denotation string `json:"denotation"`
}

type viewJSON struct {
	Filters         filtersJSON  `json:"filters"`
	Source          string       `json:"source"`
	FetchedAt       time.Time    `json:"fetchedAt"`
	Stale           bool         `json:"stale"`
	Count           int          `json:"count"`
	Groups          []groupJSON  `json:"groups"`
	Banners         []bannerJSON `json:"banners"`
	LeverageOptions []int        `json:"leverageOptions"`
	Malformed       []string     `json:"malformed,omitempty"`
}

// ServeHTTP implements http.Handler.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.writeError(w, r, apperror.New(apperror.CodeValidationError,
			apperror.WithContext("method "+r.Method),
			apperror.WithStatusCode(http.StatusMethodNotAllowed)))
		return
	}

	state, bctx, err := ParseQuery(r.URL.Query(), h.denotation)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	view, err := h.browser.Browse(r.Context(), state, bctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toJSON(view)); err != nil {
		h.log.Warn(r.Context(), "encode browse response", "error", err)
	}
}

// ParseQuery builds the browse state from query parameters
// search, market, leverage, sort, denotation and account.
func ParseQuery(q url.Values, fallback app.Denotation) (domain.BrowseState, app.BrowseContext, error) {
	bctx := app.BrowseContext{
		Account:    strings.TrimSpace(q.Get("account")),
		Denotation: fallback,
	}
	state := domain.DefaultBrowseState(bctx.AccountConnected())
	state.Search = q.Get("search")

	market, err := domain.ParseMarketFilter(q.Get("market"))
	if err != nil {
		return state, bctx, err
	}
	state.MarketFilter = market

	lev, err := domain.ParseLeverageFilter(q.Get("leverage"))
	if err != nil {
		return state, bctx, err
	}
	state.LeverageFilter = lev

	if s := q.Get("sort"); s != "" {
		sortBy, err := domain.ParseSortBy(s)
		if err != nil {
			return state, bctx, err
		}
		state.SortBy = sortBy
	}

	switch d := strings.ToLower(strings.TrimSpace(q.Get("denotation"))); d {
	case "":
	case string(app.DenotedInBase), string(app.DenotedInNotional):
		bctx.Denotation = app.Denotation(d)
	default:
		return state, bctx, apperror.New(apperror.CodeUnknownDenomination, apperror.WithContext(d))
	}
	return state, bctx, nil
}

func toJSON(v *app.BrowseView) viewJSON {
	out := viewJSON{
		Filters: filtersJSON{
			Search:     v.State.Search,
			Market:     string(v.State.MarketFilter),
			Leverage:   v.State.LeverageFilter.String(),
			SortBy:     string(v.State.SortBy),
			Denotation: string(v.Denotation),
		},
		Source:          v.Source,
		FetchedAt:       v.FetchedAt,
		Stale:           v.Stale,
		Count:           len(v.Rows),
		Groups:          make([]groupJSON, 0, len(v.Groups)),
		Banners:         make([]bannerJSON, 0, len(v.Banners)),
		LeverageOptions: v.LeverageOptions,
		Malformed:       v.Malformed,
	}

	for _, g := range v.Groups {
		names := make([]string, 0, len(g.Rows))
		for _, r := range g.Rows {
			names = append(names, r.Name)
		}
		out.Groups = append(out.Groups, groupJSON{MarketSymbol: g.MarketSymbol, Pools: names})
	}

	for _, b := range v.Banners {
		bj := bannerJSON{
			MarketSymbol: b.MarketSymbol,
			AssetName:    b.AssetName,
			SpotPrice:    b.SpotPrice,
			Volume:       b.Volume,
			Cards:        make([]cardJSON, 0, len(b.Cards)),
		}
		for _, c := range b.Cards {
			bj.Cards = append(bj.Cards, cardJSON{
				Name:       c.Name,
				Address:    c.Address,
				Title:      c.Title,
				Leverage:   c.Leverage,
				CommitWait: c.CommitWait,
				SpotPrice:  c.SpotPrice,
				Short:      sideToJSON(c.Short),
				Long:       sideToJSON(c.Long),
				Holding:    holdingToJSON(c.Holding),
			})
		}
		out.Banners = append(out.Banners, bj)
	}
	return out
}

func sideToJSON(s app.SideCard) sideJSON {
	return sideJSON{
		Symbol:   s.Symbol,
		TVL:      s.TVL,
		TCRPrice: s.TCRPrice,
		DEXPrice: s.DEXPrice,
		TVLShare: s.TVLShare.StringFixed(2),
		Trade:    s.Trade,
	}
}

// holdingToJSON returns nil when the account holds nothing in the pool.
func holdingToJSON(h app.HoldingValue) *holdingJSON {
	if h.Value == "" || h.NetValue.IsZero() {
		return nil
	}
	return &holdingJSON{
		NetValue: h.NetValue.StringFixed(2),
		Value:    h.Value,
		Exposure: h.Exposure,
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeInternalError, "browse", err)
	}

	status := apperror.HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "browse request failed", appErr.ToLog()...)
	} else {
		h.log.Debug(r.Context(), "browse request rejected", "code", appErr.Code, "status", status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
