package asset

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is a thread-safe set of known assets keyed by ticker.
type Registry struct {
	bySymbol map[string]*Asset
	mu       sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{bySymbol: make(map[string]*Asset)}
}

// Register adds an asset to the registry.
// Panics if the ticker is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySymbol[a.Symbol()]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.Symbol()))
	}
	r.bySymbol[a.Symbol()] = a
}

// Get looks up an asset by ticker, case-insensitively.
func (r *Registry) Get(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySymbol[strings.ToUpper(symbol)]
	return a, ok
}

// Name resolves a ticker to its display name.
func (r *Registry) Name(symbol string) (string, bool) {
	a, ok := r.Get(symbol)
	if !ok {
		return "", false
	}
	return a.Name(), true
}

// DisplayDecimals resolves the denotation precision for a ticker,
// returning fallback for unknown tickers or assets without one.
func (r *Registry) DisplayDecimals(symbol string, fallback int32) int32 {
	a, ok := r.Get(symbol)
	if !ok {
		return fallback
	}
	if places, set := a.DisplayDecimals(); set {
		return places
	}
	return fallback
}
