// Package wire holds the JSON representation of pool rows shared by the
// file, HTTP and websocket sources and the snapshot writers.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
	"github.com/fd1az/perpetual-pools/internal/asset"
)

// SideToken is one side of a pool on the wire.
type SideToken struct {
	Symbol        string          `json:"symbol"`
	TVL           decimal.Decimal `json:"tvl"`
	NextTCRPrice  decimal.Decimal `json:"nextTCRPrice"`
	BalancerPrice decimal.Decimal `json:"balancerPrice"`
	EffectiveGain decimal.Decimal `json:"effectiveGain"`
	PoolStatus    string          `json:"poolStatus,omitempty"`
	Side          string          `json:"side,omitempty"`
}

// Row is one pool on the wire. When Decimals is set, TVL, MyHoldings,
// OneDayVolume and the side TVLs are integer base units (wei-style) and are
// scaled down by Decimals.
type Row struct {
	Name         string          `json:"name"`
	MarketSymbol string          `json:"marketSymbol"`
	Address      string          `json:"address"`
	Leverage     int             `json:"leverage,omitempty"`
	TVL          decimal.Decimal `json:"tvl"`
	MyHoldings   decimal.Decimal `json:"myHoldings"`
	OneDayVolume decimal.Decimal `json:"oneDayVolume"`
	MinWaitTime  int64           `json:"minWaitTime"`
	MaxWaitTime  int64           `json:"maxWaitTime"`
	ShortToken   SideToken       `json:"shortToken"`
	LongToken    SideToken       `json:"longToken"`
	PoolStatus   string          `json:"poolStatus"`
	Decimals     *uint8          `json:"decimals,omitempty"`
}

// Snapshot is the envelope written by the snapshot command and served by
// pool APIs.
type Snapshot struct {
	ID          string    `json:"id,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Rows        []Row     `json:"rows"`
}

// Decode accepts either a bare array of rows or a Snapshot envelope.
func Decode(data []byte) ([]domain.PoolTokenRow, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, apperror.New(apperror.CodePoolSnapshotEmpty)
	}

	var rows []Row
	if data[0] == '[' {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err))
		}
	} else {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err))
		}
		rows = snap.Rows
	}
	return ToDomain(rows)
}

// ToDomain converts wire rows, failing on the first row that cannot be converted.
func ToDomain(rows []Row) ([]domain.PoolTokenRow, error) {
	out := make([]domain.PoolTokenRow, 0, len(rows))
	for i, r := range rows {
		dr, err := r.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, r.Name, err)
		}
		out = append(out, dr)
	}
	return out, nil
}

// ToDomain converts one row. A missing leverage is taken from the name;
// a name that does not parse is kept and left for the pipeline to report.
func (r Row) ToDomain() (domain.PoolTokenRow, error) {
	scale := func(v decimal.Decimal) (decimal.Decimal, error) {
		if r.Decimals == nil {
			return v, nil
		}
		return asset.FromUnits(v.String(), *r.Decimals)
	}

	var err error
	out := domain.PoolTokenRow{
		Name:         r.Name,
		MarketSymbol: r.MarketSymbol,
		Address:      r.Address,
		Leverage:     r.Leverage,
		MinWaitTime:  r.MinWaitTime,
		MaxWaitTime:  r.MaxWaitTime,
		PoolStatus:   domain.ParsePoolStatus(r.PoolStatus),
	}
	if out.TVL, err = scale(r.TVL); err != nil {
		return out, err
	}
	if out.MyHoldings, err = scale(r.MyHoldings); err != nil {
		return out, err
	}
	if out.OneDayVolume, err = scale(r.OneDayVolume); err != nil {
		return out, err
	}
	if out.ShortToken, err = r.ShortToken.toDomain(domain.SideShort, out.PoolStatus, scale); err != nil {
		return out, err
	}
	if out.LongToken, err = r.LongToken.toDomain(domain.SideLong, out.PoolStatus, scale); err != nil {
		return out, err
	}

	if out.Leverage == 0 {
		if m, perr := domain.ParseMarketName(r.Name); perr == nil {
			out.Leverage = m.Leverage
		}
	}
	if out.MarketSymbol == "" {
		if m, perr := domain.ParseMarketName(r.Name); perr == nil {
			out.MarketSymbol = m.MarketSymbol()
		}
	}
	return out, nil
}

func (t SideToken) toDomain(side domain.Side, status domain.PoolStatus, scale func(decimal.Decimal) (decimal.Decimal, error)) (domain.SideToken, error) {
	tvl, err := scale(t.TVL)
	if err != nil {
		return domain.SideToken{}, err
	}
	st := domain.SideToken{
		Symbol:        t.Symbol,
		TVL:           tvl,
		NextTCRPrice:  t.NextTCRPrice,
		BalancerPrice: t.BalancerPrice,
		EffectiveGain: t.EffectiveGain,
		PoolStatus:    status,
		Side:          side,
	}
	if t.PoolStatus != "" {
		st.PoolStatus = domain.ParsePoolStatus(t.PoolStatus)
	}
	return st, nil
}

// FromDomain converts rows for writing.
func FromDomain(rows []domain.PoolTokenRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, Row{
			Name:         r.Name,
			MarketSymbol: r.MarketSymbol,
			Address:      r.Address,
			Leverage:     r.Leverage,
			TVL:          r.TVL,
			MyHoldings:   r.MyHoldings,
			OneDayVolume: r.OneDayVolume,
			MinWaitTime:  r.MinWaitTime,
			MaxWaitTime:  r.MaxWaitTime,
			ShortToken:   sideFromDomain(r.ShortToken),
			LongToken:    sideFromDomain(r.LongToken),
			PoolStatus:   string(r.PoolStatus),
		})
	}
	return out
}

func sideFromDomain(t domain.SideToken) SideToken {
	return SideToken{
		Symbol:        t.Symbol,
		TVL:           t.TVL,
		NextTCRPrice:  t.NextTCRPrice,
		BalancerPrice: t.BalancerPrice,
		EffectiveGain: t.EffectiveGain,
		PoolStatus:    string(t.PoolStatus),
		Side:          string(t.Side),
	}
}
