package app

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// ErrZeroOraclePrice is returned when a base-denoted value would divide by zero.
var ErrZeroOraclePrice = apperror.Sentinel(apperror.CodeZeroOraclePrice)

// Denotation selects how a holding's value is shown.
type Denotation string

const (
	DenotedInBase     Denotation = "base"
	DenotedInNotional Denotation = "notional"
)

// ParseDenotation accepts "base" or "notional", defaulting to notional.
func ParseDenotation(s string) Denotation {
	if strings.EqualFold(s, string(DenotedInBase)) {
		return DenotedInBase
	}
	return DenotedInNotional
}

// Toggle flips between base and notional.
func (d Denotation) Toggle() Denotation {
	if d == DenotedInBase {
		return DenotedInNotional
	}
	return DenotedInBase
}

// DecimalsLookup resolves the display precision of a ticker.
type DecimalsLookup interface {
	DisplayDecimals(symbol string, fallback int32) int32
}

// DefaultBaseDecimals is the base-denoted precision for tickers without a registry entry.
const DefaultBaseDecimals int32 = 4

// Denoter formats holding values. Precision comes from the asset registry,
// with a configured fallback for tickers it does not know.
type Denoter struct {
	decimals DecimalsLookup
	fallback int32
}

// NewDenoter creates a Denoter.
func NewDenoter(decimals DecimalsLookup, fallback int32) *Denoter {
	return &Denoter{decimals: decimals, fallback: fallback}
}

// NetValue is holdings × price.
func NetValue(holdings, price decimal.Decimal) decimal.Decimal {
	return holdings.Mul(price)
}

// DenominationAsset is the ticker between '-' and '/' in a pool name.
func DenominationAsset(name string) (string, error) {
	m, err := domain.ParseMarketName(name)
	if err != nil {
		return "", err
	}
	return m.Base, nil
}

// Precision returns the number of decimals base-denoted values of ticker use.
func (d *Denoter) Precision(ticker string) int32 {
	if d.decimals == nil {
		return d.fallback
	}
	return d.decimals.DisplayDecimals(ticker, d.fallback)
}

// BaseDenote converts a USD net value into units of the pool's denomination
// asset. leverage <= 0 means no multiplier.
func (d *Denoter) BaseDenote(netValue, oraclePrice decimal.Decimal, name string, leverage int) (string, error) {
	if netValue.IsZero() {
		return "0.00", nil
	}
	ticker, err := DenominationAsset(name)
	if err != nil {
		return "", err
	}
	if oraclePrice.IsZero() {
		return "", apperror.New(apperror.CodeZeroOraclePrice, apperror.WithContext(name))
	}

	v := netValue.Div(oraclePrice)
	if leverage > 0 {
		v = v.Mul(decimal.NewFromInt(int64(leverage)))
	}
	return v.StringFixed(d.Precision(ticker)), nil
}

// HoldingValue is the account's position in one pool, in one denotation.
type HoldingValue struct {
	Pool     string // pool name
	NetValue decimal.Decimal
	Value    string // "0.50000000 BTC" or "$1,234.00 USD"
	Exposure string // Value with the pool's leverage applied
}

// Holding derives a row's holding value. MyHoldings is the USD net value of
// the account's tokens; oraclePrice is the market spot price. Base-denoted
// values without a usable oracle price are NoValue.
func (d *Denoter) Holding(r domain.PoolTokenRow, oraclePrice decimal.Decimal, in Denotation) HoldingValue {
	net := NetValue(r.MyHoldings, usdUnit)
	h := HoldingValue{Pool: r.Name, NetValue: net}

	if in != DenotedInBase {
		h.Value = NotionalDenote(net, 0) + " USD"
		h.Exposure = NotionalDenote(net, r.Leverage) + " USD"
		return h
	}

	ticker, err := DenominationAsset(r.Name)
	if err != nil {
		h.Value, h.Exposure = NoValue, NoValue
		return h
	}
	value, err := d.BaseDenote(net, oraclePrice, r.Name, 0)
	if err != nil {
		h.Value, h.Exposure = NoValue, NoValue
		return h
	}
	exposure, err := d.BaseDenote(net, oraclePrice, r.Name, r.Leverage)
	if err != nil {
		h.Value, h.Exposure = NoValue, NoValue
		return h
	}
	h.Value = value + " " + ticker
	h.Exposure = exposure + " " + ticker
	return h
}

// NotionalDenote formats a USD net value. leverage <= 0 means no multiplier.
func NotionalDenote(netValue decimal.Decimal, leverage int) string {
	if leverage > 0 {
		netValue = netValue.Mul(decimal.NewFromInt(int64(leverage)))
	}
	return ToApproxCurrency(netValue)
}

// usdUnit prices MyHoldings, which rows already carry in USD.
var usdUnit = decimal.NewFromInt(1)

var (
	currencyPrinter = message.NewPrinter(language.English)
	million         = decimal.NewFromInt(1_000_000)
	thousand        = decimal.NewFromInt(1_000)
	largeSuffixes   = []string{"M", "B", "T"}
)

// ToApproxCurrency renders a USD amount: "$1,234.56" below a million,
// "$1.23M" / "$4.50B" / "$2.00T" above. Rounding happens before the
// suffix is chosen, so 999999.999 is "$1.00M".
func ToApproxCurrency(v decimal.Decimal) string {
	v = v.Round(2)
	if v.IsZero() {
		return "$0.00"
	}
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}

	if v.LessThan(million) {
		f, _ := v.Float64()
		return sign + "$" + currencyPrinter.Sprintf("%.2f", f)
	}

	v = v.Div(million)
	i := 0
	for v.Round(2).GreaterThanOrEqual(thousand) && i < len(largeSuffixes)-1 {
		v = v.Div(thousand)
		i++
	}
	return sign + "$" + v.StringFixed(2) + largeSuffixes[i]
}

// FormatSeconds renders a duration in seconds as "1h 5m", "5m 30s" or "45s".
func FormatSeconds(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
