package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNegativeAmount = errors.New("asset: negative amount")
	ErrInvalidRaw     = errors.New("asset: invalid raw integer string")
)

// FromUnits converts a base-10 smallest-unit string the way pool APIs report
// balances ("1500000000000000000" with 18 decimals is 1.5) to whole units.
func FromUnits(raw string, decimals uint8) (decimal.Decimal, error) {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRaw, raw)
	}
	if n.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNegativeAmount, raw)
	}
	return decimal.NewFromBigInt(n, -int32(decimals)), nil
}
