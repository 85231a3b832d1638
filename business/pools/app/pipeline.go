package app

import (
	"sort"
	"strings"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
)

// MarketGroup is the rows of one market in sorted order.
type MarketGroup struct {
	MarketSymbol string
	Rows         []domain.PoolTokenRow
}

// PipelineResult is the output of one pipeline run.
type PipelineResult struct {
	Rows      []domain.PoolTokenRow // filtered and sorted
	Groups    []MarketGroup
	Malformed []string // names that failed to parse
}

// RunPipeline filters, sorts and groups rows. rows is not modified.
func RunPipeline(rows []domain.PoolTokenRow, state domain.BrowseState) PipelineResult {
	filtered := FilterRows(rows, state)
	sorted := SortRows(filtered, state.SortBy)
	return PipelineResult{
		Rows:      sorted,
		Groups:    GroupByMarket(sorted),
		Malformed: MalformedNames(rows),
	}
}

// FilterRows keeps rows passing the market, leverage and search filters.
func FilterRows(rows []domain.PoolTokenRow, state domain.BrowseState) []domain.PoolTokenRow {
	needle := strings.ToLower(state.Search)
	out := make([]domain.PoolTokenRow, 0, len(rows))
	for _, r := range rows {
		if MatchesMarket(r, state.MarketFilter) &&
			MatchesLeverage(r, state.LeverageFilter) &&
			matchesLowered(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

// MatchesMarket reports whether the base asset in the row's name is the
// filter's asset. Unparseable names only pass All.
func MatchesMarket(r domain.PoolTokenRow, f domain.MarketFilter) bool {
	if f == domain.MarketAll || f == "" {
		return true
	}
	m, err := r.Market()
	if err != nil {
		return false
	}
	return strings.EqualFold(m.Base, f.Asset())
}

// MatchesLeverage compares the leverage in the row's name numerically.
// Unparseable names only pass All.
func MatchesLeverage(r domain.PoolTokenRow, f domain.LeverageFilter) bool {
	if f.IsAll() {
		return true
	}
	m, err := r.Market()
	if err != nil {
		return false
	}
	return f.Matches(m.Leverage)
}

// MatchesSearch is a case-insensitive literal substring match against the
// row's name, market symbol and both token symbols.
func MatchesSearch(r domain.PoolTokenRow, search string) bool {
	return matchesLowered(r, strings.ToLower(search))
}

func matchesLowered(r domain.PoolTokenRow, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{r.Name, r.MarketSymbol, r.ShortToken.Symbol, r.LongToken.Symbol} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// MalformedNames lists row names that do not parse.
func MalformedNames(rows []domain.PoolTokenRow) []string {
	var bad []string
	for _, r := range rows {
		if _, err := r.Market(); err != nil {
			bad = append(bad, r.Name)
		}
	}
	return bad
}

// SortRows returns a stably sorted copy. Name keeps input order.
func SortRows(rows []domain.PoolTokenRow, by domain.SortBy) []domain.PoolTokenRow {
	out := make([]domain.PoolTokenRow, len(rows))
	copy(out, rows)

	switch by {
	case domain.SortByTotalValueLocked:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TVL.GreaterThan(out[j].TVL)
		})
	case domain.SortByMyHoldings:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].MyHoldings.GreaterThan(out[j].MyHoldings)
		})
	}
	return out
}

// GroupByMarket partitions rows by market symbol. Groups appear in
// first-seen order and keep the input order within each group.
func GroupByMarket(rows []domain.PoolTokenRow) []MarketGroup {
	var groups []MarketGroup
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.MarketSymbol]
		if !ok {
			i = len(groups)
			index[r.MarketSymbol] = i
			groups = append(groups, MarketGroup{MarketSymbol: r.MarketSymbol})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}
