package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// MarketFilter selects pools by base asset.
type MarketFilter string

const (
	MarketAll      MarketFilter = "All"
	MarketEthereum MarketFilter = "Ethereum"
	MarketBitcoin  MarketFilter = "Bitcoin"
	MarketEuro     MarketFilter = "Euro"
	MarketToke     MarketFilter = "Toke"
	MarketLink     MarketFilter = "Link"
	MarketAave     MarketFilter = "Aave"
	MarketMatic    MarketFilter = "Matic"
)

var marketFilterAssets = map[MarketFilter]string{
	MarketEthereum: "ETH",
	MarketBitcoin:  "BTC",
	MarketEuro:     "EUR",
	MarketToke:     "TOKE",
	MarketLink:     "LINK",
	MarketAave:     "AAVE",
	MarketMatic:    "MATIC",
}

// MarketFilters lists every variant in display order.
var MarketFilters = []MarketFilter{
	MarketAll, MarketEthereum, MarketBitcoin, MarketEuro, MarketToke, MarketLink, MarketAave, MarketMatic,
}

// Asset returns the base ticker the filter selects, "" for All.
func (f MarketFilter) Asset() string {
	return marketFilterAssets[f]
}

// Next cycles to the following variant.
func (f MarketFilter) Next() MarketFilter {
	for i, v := range MarketFilters {
		if v == f {
			return MarketFilters[(i+1)%len(MarketFilters)]
		}
	}
	return MarketAll
}

// ParseMarketFilter accepts a variant name ("Bitcoin") or its ticker ("btc").
// An empty string is All.
func ParseMarketFilter(s string) (MarketFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MarketAll, nil
	}
	for _, f := range MarketFilters {
		if strings.EqualFold(string(f), s) || (f != MarketAll && strings.EqualFold(f.Asset(), s)) {
			return f, nil
		}
	}
	return MarketAll, apperror.New(apperror.CodeInvalidMarketFilter, apperror.WithContext(s))
}

// LeverageFilter selects pools by leverage. The zero value is All.
type LeverageFilter struct {
	leverage int
}

// LeverageAll passes every row.
var LeverageAll = LeverageFilter{}

// NewLeverageFilter selects exactly n.
func NewLeverageFilter(n int) (LeverageFilter, error) {
	if n <= 0 {
		return LeverageAll, apperror.New(apperror.CodeInvalidLeverage,
			apperror.WithContext(fmt.Sprintf("leverage filter %d", n)))
	}
	return LeverageFilter{leverage: n}, nil
}

// ParseLeverageFilter accepts "All" (any case, or empty) or a positive integer.
func ParseLeverageFilter(s string) (LeverageFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return LeverageAll, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(s), "x"))
	if err != nil {
		return LeverageAll, apperror.New(apperror.CodeInvalidLeverage,
			apperror.WithContext(s), apperror.WithCause(err))
	}
	return NewLeverageFilter(n)
}

// IsAll reports whether the filter passes everything.
func (f LeverageFilter) IsAll() bool {
	return f.leverage == 0
}

// Leverage returns the selected leverage, 0 for All.
func (f LeverageFilter) Leverage() int {
	return f.leverage
}

// Matches compares numerically.
func (f LeverageFilter) Matches(leverage int) bool {
	return f.IsAll() || f.leverage == leverage
}

func (f LeverageFilter) String() string {
	if f.IsAll() {
		return "All"
	}
	return strconv.Itoa(f.leverage)
}

// Next cycles All -> options[0] -> ... -> All.
func (f LeverageFilter) Next(options []int) LeverageFilter {
	if len(options) == 0 {
		return LeverageAll
	}
	if f.IsAll() {
		return LeverageFilter{leverage: options[0]}
	}
	for i, n := range options {
		if n == f.leverage {
			if i+1 < len(options) {
				return LeverageFilter{leverage: options[i+1]}
			}
			return LeverageAll
		}
	}
	return LeverageAll
}

// SortBy is the listing order.
type SortBy string

const (
	SortByName             SortBy = "Name" // input order
	SortByTotalValueLocked SortBy = "TotalValueLocked"
	SortByMyHoldings       SortBy = "MyHoldings"
)

// SortKeys lists the sort variants in cycling order.
var SortKeys = []SortBy{SortByName, SortByTotalValueLocked, SortByMyHoldings}

// Next cycles to the following sort key.
func (s SortBy) Next() SortBy {
	for i, v := range SortKeys {
		if v == s {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortByName
}

// ParseSortBy accepts variant names and the short forms "tvl" and "holdings".
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName, nil
	case "totalvaluelocked", "tvl":
		return SortByTotalValueLocked, nil
	case "myholdings", "holdings":
		return SortByMyHoldings, nil
	}
	return SortByName, apperror.New(apperror.CodeInvalidSortKey, apperror.WithContext(s))
}
