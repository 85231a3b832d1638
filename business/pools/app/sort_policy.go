package app

import "github.com/fd1az/perpetual-pools/business/pools/domain"

// SortPolicy switches the listing to MyHoldings the first time an account
// connects while it is sorted by Name. Disconnecting never reverts it.
type SortPolicy struct {
	connected bool
}

// NewSortPolicy starts from the given connection state.
func NewSortPolicy(accountConnected bool) *SortPolicy {
	return &SortPolicy{connected: accountConnected}
}

// DefaultSort is MyHoldings with an account, Name without.
func DefaultSort(accountConnected bool) domain.SortBy {
	if accountConnected {
		return domain.SortByMyHoldings
	}
	return domain.SortByName
}

// Observe records the current connection state and returns the action to
// apply, or nil when the state should stay as is.
func (p *SortPolicy) Observe(state domain.BrowseState, accountConnected bool) domain.Action {
	was := p.connected
	p.connected = accountConnected
	if !was && accountConnected && state.SortBy == domain.SortByName {
		return domain.SetSortBy{Value: domain.SortByMyHoldings}
	}
	return nil
}
