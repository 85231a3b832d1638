// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/perpetual-pools/business/pricing/app"
	"github.com/fd1az/perpetual-pools/internal/di"
)

// Public service tokens - exposed to other modules
var (
	SpotPriceService = di.NewToken[*app.SpotPriceService]("pricing.SpotPriceService")
)

// Private dependency tokens - internal to pricing module
var (
	Provider = di.NewToken[app.Provider]("pricing:provider")
)

// GetSpotPriceService returns the shared spot price service.
func GetSpotPriceService(c di.ServiceRegistry) *app.SpotPriceService {
	return di.GetToken(c, SpotPriceService)
}

// GetProvider returns the configured provider, nil when pricing is off.
func GetProvider(c di.ServiceRegistry) app.Provider {
	p, _ := c.Get(Provider.Name()).(app.Provider)
	return p
}
