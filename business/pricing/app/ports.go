// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/perpetual-pools/business/pricing/domain"
)

// Provider fetches spot prices from one upstream.
type Provider interface {
	// Prices returns prices for the markets it can price. Markets it does
	// not list are absent from the result rather than an error.
	Prices(ctx context.Context, markets []domain.Market) ([]domain.SpotPrice, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
