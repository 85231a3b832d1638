package asset_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/internal/asset"
)

func TestFromUnits(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals uint8
		want     string
		wantErr  error
	}{
		{name: "wei", raw: "1500000000000000000", decimals: 18, want: "1.5"},
		{name: "usdc", raw: "2500000", decimals: 6, want: "2.5"},
		{name: "zero", raw: "0", decimals: 6, want: "0"},
		{name: "fraction kept", raw: "123456789", decimals: 6, want: "123.456789"},
		{name: "garbage", raw: "1.5", decimals: 6, wantErr: asset.ErrInvalidRaw},
		{name: "negative", raw: "-1", decimals: 6, wantErr: asset.ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := asset.FromUnits(tt.raw, tt.decimals)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !d.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, want %s", d, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	btc, ok := r.Get("btc")
	if !ok {
		t.Fatal("BTC not found in registry")
	}
	if btc.Name() != "Bitcoin" {
		t.Errorf("expected Bitcoin, got %s", btc.Name())
	}

	tests := []struct {
		symbol string
		want   int32
	}{
		{"BTC", 8},
		{"ETH", 6},
		{"LINK", 4}, // registered without denotation precision
		{"DOGE", 4}, // unknown
	}
	for _, tt := range tests {
		if got := r.DisplayDecimals(tt.symbol, 4); got != tt.want {
			t.Errorf("DisplayDecimals(%s) = %d, want %d", tt.symbol, got, tt.want)
		}
	}

	if _, ok := r.Name("DOGE"); ok {
		t.Error("unexpected name for unknown ticker")
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := asset.NewRegistry()
	r.Register(asset.BTC)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r.Register(asset.NewAsset("btc", "Other", 8))
}
