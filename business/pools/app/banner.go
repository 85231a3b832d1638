package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
)

// UnknownAssetName labels markets whose base asset has no registered name.
const UnknownAssetName = "MARKET TICKER"

// NoValue is shown where a value is unavailable.
const NoValue = "-"

// AssetNamer resolves a ticker to a display name.
type AssetNamer interface {
	Name(symbol string) (string, bool)
}

// SideCard is the display data for one side of a pool card.
type SideCard struct {
	Symbol   string
	TVL      string
	TCRPrice string
	DEXPrice string
	TVLShare decimal.Decimal // percent of pool TVL
	Trade    string          // "3.00x LONG"
}

// PoolCard is the display data for one live pool.
type PoolCard struct {
	Name         string
	Address      string
	MarketSymbol string
	AssetName    string
	Title        string // "3x ETH/USD"
	Leverage     int
	CommitWait   string // "5m ~ 1h"
	SpotPrice    string
	Short        SideCard
	Long         SideCard
	Holding      HoldingValue // zero until the account's holdings are derived
}

// MarketBanner summarises one market group. Only live rows contribute.
type MarketBanner struct {
	MarketSymbol string
	BaseAsset    string
	AssetName    string
	SpotPrice    string
	OneDayVolume decimal.Decimal
	Volume       string
	Cards        []PoolCard
}

// BuildBanners derives banners for every group that has a non-deprecated row.
func BuildBanners(groups []MarketGroup, names AssetNamer, spot map[string]decimal.Decimal) []MarketBanner {
	banners := make([]MarketBanner, 0, len(groups))
	for _, g := range groups {
		if b, ok := BuildBanner(g, names, spot); ok {
			banners = append(banners, b)
		}
	}
	return banners
}

// BuildBanner drops deprecated rows, takes banner info from the first
// remaining row and sums 24h volume. ok is false when nothing is live.
func BuildBanner(g MarketGroup, names AssetNamer, spot map[string]decimal.Decimal) (MarketBanner, bool) {
	live := make([]domain.PoolTokenRow, 0, len(g.Rows))
	for _, r := range g.Rows {
		if !r.IsDeprecated() {
			live = append(live, r)
		}
	}
	if len(live) == 0 {
		return MarketBanner{}, false
	}

	info := live[0]
	base, _ := domain.BaseAssetFromMarket(info.MarketSymbol)
	assetName := lookupAssetName(names, base)
	spotPrice := formatSpot(spot, info.MarketSymbol)

	volume := decimal.Zero
	cards := make([]PoolCard, 0, len(live))
	for _, r := range live {
		volume = volume.Add(r.OneDayVolume)
		cards = append(cards, BuildPoolCard(r, lookupAssetName(names, baseOf(r)), formatSpot(spot, r.MarketSymbol)))
	}

	return MarketBanner{
		MarketSymbol: info.MarketSymbol,
		BaseAsset:    base,
		AssetName:    assetName,
		SpotPrice:    spotPrice,
		OneDayVolume: volume,
		Volume:       ToApproxCurrency(volume),
		Cards:        cards,
	}, true
}

// BuildPoolCard derives the per-card display values of a row.
func BuildPoolCard(r domain.PoolTokenRow, assetName, spotPrice string) PoolCard {
	return PoolCard{
		Name:         r.Name,
		Address:      r.Address,
		MarketSymbol: r.MarketSymbol,
		AssetName:    assetName,
		Title:        fmt.Sprintf("%dx %s", r.Leverage, r.MarketSymbol),
		Leverage:     r.Leverage,
		CommitWait:   FormatSeconds(r.MinWaitTime) + " ~ " + FormatSeconds(r.MaxWaitTime),
		SpotPrice:    spotPrice,
		Short:        sideCard(r.ShortToken, r.TVL, "SHORT"),
		Long:         sideCard(r.LongToken, r.TVL, "LONG"),
	}
}

// TVLShare is side/total in percent, 0 when total is 0.
func TVLShare(side, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return side.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

func sideCard(t domain.SideToken, total decimal.Decimal, label string) SideCard {
	return SideCard{
		Symbol:   t.Symbol,
		TVL:      ToApproxCurrency(t.TVL),
		TCRPrice: ToApproxCurrency(t.NextTCRPrice),
		DEXPrice: ToApproxCurrency(t.BalancerPrice),
		TVLShare: TVLShare(t.TVL, total),
		Trade:    t.EffectiveGain.StringFixed(2) + "x " + label,
	}
}

func baseOf(r domain.PoolTokenRow) string {
	base, _ := domain.BaseAssetFromMarket(r.MarketSymbol)
	return base
}

func lookupAssetName(names AssetNamer, base string) string {
	if names == nil || base == "" {
		return UnknownAssetName
	}
	if n, ok := names.Name(base); ok {
		return n
	}
	return UnknownAssetName
}

func formatSpot(spot map[string]decimal.Decimal, market string) string {
	p, ok := spot[market]
	if !ok || p.IsZero() {
		return NoValue
	}
	return ToApproxCurrency(p)
}
