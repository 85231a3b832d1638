// Package domain contains the core domain types for the pools context.
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// ErrInvalidPoolName matches any *ParseError via errors.Is.
var ErrInvalidPoolName = apperror.Sentinel(apperror.CodeInvalidPoolName)

// MarketName is a parsed pool name of the form "<leverage>-<BASE>/<QUOTE>".
type MarketName struct {
	Leverage int
	Base     string
	Quote    string
}

// MarketSymbol returns "BASE/QUOTE".
func (m MarketName) MarketSymbol() string {
	return m.Base + "/" + m.Quote
}

func (m MarketName) String() string {
	return fmt.Sprintf("%d-%s", m.Leverage, m.MarketSymbol())
}

// ParseError reports a pool name that does not follow "<leverage>-<BASE>/<QUOTE>".
type ParseError struct {
	Name   string
	Reason string
	err    *apperror.AppError
}

func (e *ParseError) Error() string {
	return e.err.Error()
}

// Unwrap exposes the INVALID_POOL_NAME app error.
func (e *ParseError) Unwrap() error {
	return e.err
}

func newParseError(name, reason string) *ParseError {
	return &ParseError{
		Name:   name,
		Reason: reason,
		err: apperror.New(apperror.CodeInvalidPoolName,
			apperror.WithContext(fmt.Sprintf("%q: %s", name, reason))),
	}
}

// ParseMarketName parses a pool name. Every consumer that needs leverage or
// base asset goes through here so they all agree on the convention.
func ParseMarketName(name string) (MarketName, error) {
	levPart, pair, ok := strings.Cut(name, "-")
	if !ok {
		return MarketName{}, newParseError(name, "missing '-' separator")
	}

	if levPart == "" {
		return MarketName{}, newParseError(name, "missing leverage")
	}
	for _, r := range levPart {
		if r < '0' || r > '9' {
			return MarketName{}, newParseError(name, "leverage is not a number")
		}
	}
	lev, err := strconv.Atoi(levPart)
	if err != nil || lev <= 0 {
		return MarketName{}, newParseError(name, "leverage must be a positive integer")
	}

	base, quote, ok := strings.Cut(pair, "/")
	if !ok {
		return MarketName{}, newParseError(name, "missing '/' separator")
	}
	if base == "" || quote == "" || strings.Contains(quote, "/") {
		return MarketName{}, newParseError(name, "expected BASE/QUOTE")
	}

	return MarketName{Leverage: lev, Base: base, Quote: quote}, nil
}

// BaseAssetFromMarket returns the ticker before '/' in a market symbol.
func BaseAssetFromMarket(marketSymbol string) (string, bool) {
	base, _, ok := strings.Cut(marketSymbol, "/")
	if !ok || base == "" {
		return "", false
	}
	return base, true
}
