package domain

// RebalanceFocus selects which rebalance the cards highlight.
type RebalanceFocus string

const (
	RebalanceNext RebalanceFocus = "next"
	RebalanceLast RebalanceFocus = "last"
)

// DeltaDenotation selects how price deltas are shown.
type DeltaDenotation string

const (
	DeltaDollar     DeltaDenotation = "dollar"
	DeltaPercentile DeltaDenotation = "percentile"
)

// BrowseState is the listing's UI state. Only Search, MarketFilter,
// LeverageFilter and SortBy feed the pipeline; the rest are toggles the
// presentation layer owns.
type BrowseState struct {
	Search         string
	MarketFilter   MarketFilter
	LeverageFilter LeverageFilter
	SortBy         SortBy

	FiltersOpen         bool
	MintBurnModalOpen   bool
	AddAltPoolModalOpen bool
	RebalanceFocus      RebalanceFocus
	DeltaDenotation     DeltaDenotation
}

// DefaultBrowseState is the state a fresh listing opens with.
func DefaultBrowseState(accountConnected bool) BrowseState {
	s := BrowseState{
		MarketFilter:    MarketAll,
		LeverageFilter:  LeverageAll,
		SortBy:          SortByName,
		RebalanceFocus:  RebalanceNext,
		DeltaDenotation: DeltaPercentile,
	}
	if accountConnected {
		s.SortBy = SortByMyHoldings
	}
	return s
}

// Action is one discrete state transition.
type Action interface {
	apply(BrowseState) BrowseState
}

type (
	SetSearch              struct{ Value string }
	SetMarketFilter        struct{ Value MarketFilter }
	SetLeverageFilter      struct{ Value LeverageFilter }
	SetSortBy              struct{ Value SortBy }
	SetFiltersOpen         struct{ Value bool }
	SetMintBurnModalOpen   struct{ Value bool }
	SetAddAltPoolModalOpen struct{ Value bool }
	SetRebalanceFocus      struct{ Value RebalanceFocus }
	SetDeltaDenotation     struct{ Value DeltaDenotation }
)

func (a SetSearch) apply(s BrowseState) BrowseState {
	s.Search = a.Value
	return s
}

func (a SetMarketFilter) apply(s BrowseState) BrowseState {
	s.MarketFilter = a.Value
	return s
}

func (a SetLeverageFilter) apply(s BrowseState) BrowseState {
	s.LeverageFilter = a.Value
	return s
}

func (a SetSortBy) apply(s BrowseState) BrowseState {
	s.SortBy = a.Value
	return s
}

func (a SetFiltersOpen) apply(s BrowseState) BrowseState {
	s.FiltersOpen = a.Value
	return s
}

func (a SetMintBurnModalOpen) apply(s BrowseState) BrowseState {
	s.MintBurnModalOpen = a.Value
	return s
}

func (a SetAddAltPoolModalOpen) apply(s BrowseState) BrowseState {
	s.AddAltPoolModalOpen = a.Value
	return s
}

func (a SetRebalanceFocus) apply(s BrowseState) BrowseState {
	s.RebalanceFocus = a.Value
	return s
}

func (a SetDeltaDenotation) apply(s BrowseState) BrowseState {
	s.DeltaDenotation = a.Value
	return s
}

// Reduce applies one action and returns the new state. A nil action is a no-op.
func Reduce(s BrowseState, a Action) BrowseState {
	if a == nil {
		return s
	}
	return a.apply(s)
}
