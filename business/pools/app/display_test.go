package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/asset"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNetValue(t *testing.T) {
	got := NetValue(d("0.1"), d("0.2"))
	if !got.Equal(d("0.02")) {
		t.Errorf("0.1 × 0.2 = %s", got)
	}
}

func TestBaseDenote(t *testing.T) {
	den := NewDenoter(asset.DefaultRegistry(), 4)

	tests := []struct {
		name     string
		net      string
		oracle   string
		pool     string
		leverage int
		want     string
	}{
		{name: "zero_net_ignores_oracle", net: "0", oracle: "0", pool: "3-BTC/USD", want: "0.00"},
		{name: "zero_net_malformed_name", net: "0", oracle: "1", pool: "garbage", want: "0.00"},
		{name: "btc_8_places", net: "1000", oracle: "40000", pool: "3-BTC/USD", want: "0.02500000"},
		{name: "eth_6_places", net: "1000", oracle: "3000", pool: "3-ETH/USD", want: "0.333333"},
		{name: "btc_with_leverage", net: "1000", oracle: "40000", pool: "3-BTC/USD", leverage: 3, want: "0.07500000"},
		{name: "fallback_precision", net: "100", oracle: "8", pool: "3-LINK/USD", want: "12.5000"},
		{name: "unknown_asset_fallback", net: "100", oracle: "3", pool: "1-DOGE/USD", want: "33.3333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := den.BaseDenote(d(tt.net), d(tt.oracle), tt.pool, tt.leverage)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBaseDenote_Precision(t *testing.T) {
	den := NewDenoter(asset.DefaultRegistry(), 4)

	for pool, places := range map[string]int{"3-BTC/USD": 8, "1-ETH/USD": 6} {
		got, err := den.BaseDenote(d("123.456"), d("7"), pool, 0)
		if err != nil {
			t.Fatal(err)
		}
		_, frac, _ := strings.Cut(got, ".")
		if len(frac) != places {
			t.Errorf("%s: %s has %d decimals, want %d", pool, got, len(frac), places)
		}
	}
}

func TestBaseDenote_Errors(t *testing.T) {
	den := NewDenoter(asset.DefaultRegistry(), 4)

	if _, err := den.BaseDenote(d("10"), decimal.Zero, "3-ETH/USD", 0); !errors.Is(err, ErrZeroOraclePrice) {
		t.Errorf("zero oracle: err = %v", err)
	}
	if _, err := den.BaseDenote(d("10"), d("1"), "ETH/USD", 0); !errors.Is(err, domain.ErrInvalidPoolName) {
		t.Errorf("bad name: err = %v", err)
	}
}

func TestBaseDenote_NoRegistry(t *testing.T) {
	den := NewDenoter(nil, 2)
	got, err := den.BaseDenote(d("10"), d("3"), "3-BTC/USD", 0)
	if err != nil || got != "3.33" {
		t.Errorf("got %s, %v", got, err)
	}
}

func TestNotionalDenote(t *testing.T) {
	if got := NotionalDenote(d("1000"), 3); got != "$3,000.00" {
		t.Errorf("leveraged = %s", got)
	}
	if got := NotionalDenote(d("1000"), 0); got != "$1,000.00" {
		t.Errorf("plain = %s", got)
	}
}

func TestToApproxCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1", "$1.00"},
		{"12.345", "$12.35"},
		{"1234.5", "$1,234.50"},
		{"999999.5", "$999,999.50"},
		{"1000000", "$1.00M"},
		{"1234567", "$1.23M"},
		{"4500000000", "$4.50B"},
		{"2000000000000", "$2.00T"},
		{"-12.5", "-$12.50"},
		{"999999.999", "$1.00M"},
		{"999999999", "$1.00B"},
		{"999999999999", "$1.00T"},
		{"999994999", "$999.99M"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		if got := ToApproxCurrency(d(tt.in)); got != tt.want {
			t.Errorf("ToApproxCurrency(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0s"},
		{-5, "0s"},
		{45, "45s"},
		{60, "1m"},
		{330, "5m 30s"},
		{3600, "1h"},
		{3900, "1h 5m"},
		{3930, "1h 5m"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDenotation(t *testing.T) {
	if ParseDenotation("BASE") != DenotedInBase || ParseDenotation("x") != DenotedInNotional {
		t.Error("parse")
	}
	if DenotedInBase.Toggle() != DenotedInNotional || DenotedInNotional.Toggle() != DenotedInBase {
		t.Error("toggle")
	}
}
