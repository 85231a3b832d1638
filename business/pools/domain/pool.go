package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// PoolStatus is the lifecycle state of a pool.
type PoolStatus string

const (
	PoolStatusLive       PoolStatus = "Live"
	PoolStatusDeprecated PoolStatus = "Deprecated"
	PoolStatusUnknown    PoolStatus = "Unknown"
)

// ParsePoolStatus maps a source string to a status. Unrecognised values are Unknown.
func ParsePoolStatus(s string) PoolStatus {
	switch strings.ToLower(s) {
	case "live":
		return PoolStatusLive
	case "deprecated":
		return PoolStatusDeprecated
	default:
		return PoolStatusUnknown
	}
}

// Side is the long or short half of a pool.
type Side string

const (
	SideShort Side = "short"
	SideLong  Side = "long"
)

// Label returns "Long" or "Short".
func (s Side) Label() string {
	if s == SideLong {
		return "Long"
	}
	return "Short"
}

// SideToken is one side's token of a pool.
type SideToken struct {
	Symbol        string
	TVL           decimal.Decimal
	NextTCRPrice  decimal.Decimal
	BalancerPrice decimal.Decimal
	EffectiveGain decimal.Decimal
	PoolStatus    PoolStatus
	Side          Side
}

// PoolTokenRow is one pool as listed: a long/short token pair in a market.
// Rows are read-only snapshots; pipeline stages copy, never mutate.
type PoolTokenRow struct {
	Name         string // "3-ETH/USD"
	MarketSymbol string // "ETH/USD"
	Address      string
	Leverage     int
	TVL          decimal.Decimal
	MyHoldings   decimal.Decimal
	OneDayVolume decimal.Decimal
	MinWaitTime  int64 // seconds
	MaxWaitTime  int64
	ShortToken   SideToken
	LongToken    SideToken
	PoolStatus   PoolStatus
}

// Market parses the row's name.
func (r PoolTokenRow) Market() (MarketName, error) {
	return ParseMarketName(r.Name)
}

// IsDeprecated reports whether the row is excluded from banners and cards.
func (r PoolTokenRow) IsDeprecated() bool {
	return r.PoolStatus == PoolStatusDeprecated
}

// DefaultTVLTolerance is the relative slack allowed between side TVLs and pool TVL.
var DefaultTVLTolerance = decimal.RequireFromString("0.001")

// Validate checks the row's structural invariants: a parseable name whose
// leverage matches Leverage, a hex pool address, and side TVLs summing to
// TVL within the relative tolerance.
func (r PoolTokenRow) Validate(tolerance decimal.Decimal) error {
	m, err := r.Market()
	if err != nil {
		return err
	}
	if m.Leverage != r.Leverage {
		return apperror.New(apperror.CodeInvalidLeverage,
			apperror.WithContext(fmt.Sprintf("%s: name says %d, row says %d", r.Name, m.Leverage, r.Leverage)))
	}
	if r.Address != "" && !common.IsHexAddress(r.Address) {
		return apperror.New(apperror.CodeInvalidPoolAddress,
			apperror.WithContext(fmt.Sprintf("%s: %q", r.Name, r.Address)))
	}

	sides := r.ShortToken.TVL.Add(r.LongToken.TVL)
	diff := sides.Sub(r.TVL).Abs()
	allowed := r.TVL.Abs().Mul(tolerance)
	if r.TVL.IsZero() {
		allowed = tolerance
	}
	if diff.GreaterThan(allowed) {
		return apperror.New(apperror.CodeTVLMismatch,
			apperror.WithContext(fmt.Sprintf("%s: short %s + long %s != tvl %s",
				r.Name, r.ShortToken.TVL, r.LongToken.TVL, r.TVL)))
	}
	return nil
}

// PoolToken is one side's token flattened out of a pool.
type PoolToken struct {
	Symbol string
	Side   Side
	Pool   string // pool address
}
