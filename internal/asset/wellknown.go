package asset

// Base assets of the listed markets.
var (
	BTC   = NewAsset("BTC", "Bitcoin", 8).WithDisplayDecimals(8)
	ETH   = NewAsset("ETH", "Ethereum", 18).WithDisplayDecimals(6)
	EUR   = NewAsset("EUR", "Euro", 2)
	TOKE  = NewAsset("TOKE", "Tokemak", 18)
	LINK  = NewAsset("LINK", "Chainlink", 18)
	AAVE  = NewAsset("AAVE", "Aave", 18)
	MATIC = NewAsset("MATIC", "Polygon", 18)
)

// Quote and settlement assets.
var (
	USD  = NewAsset("USD", "US Dollar", 2)
	USDC = NewAsset("USDC", "USD Coin", 6)
)

// DefaultRegistry returns a registry pre-populated with the listed assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	for _, a := range []*Asset{BTC, ETH, EUR, TOKE, LINK, AAVE, MATIC, USD, USDC} {
		r.Register(a)
	}

	return r
}
