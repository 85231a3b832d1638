// Package app contains the listing pipeline, display derivation and port
// definitions for the pools context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
)

// RowSource supplies the current pool rows.
type RowSource interface {
	// Rows returns a full snapshot. Callers must not mutate the slice.
	Rows(ctx context.Context) ([]domain.PoolTokenRow, error)

	// Name identifies the source in logs and metrics.
	Name() string
}

// SnapshotStore persists row snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, rows []domain.PoolTokenRow) (string, error)
}

// SpotPriceSource returns spot prices keyed by market symbol ("ETH/USD").
// Markets it cannot price are absent from the map.
type SpotPriceSource interface {
	SpotPrices(ctx context.Context, markets []string) (map[string]decimal.Decimal, error)
}

// Reporter presents browse results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Render displays one browse result.
	Render(view *BrowseView)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
