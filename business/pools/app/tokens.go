package app

import "github.com/fd1az/perpetual-pools/business/pools/domain"

// FlattenTokens lists each pool's short token then its long token.
func FlattenTokens(rows []domain.PoolTokenRow) []domain.PoolToken {
	tokens := make([]domain.PoolToken, 0, len(rows)*2)
	for _, r := range rows {
		tokens = append(tokens,
			domain.PoolToken{Symbol: r.ShortToken.Symbol, Side: domain.SideShort, Pool: r.Address},
			domain.PoolToken{Symbol: r.LongToken.Symbol, Side: domain.SideLong, Pool: r.Address},
		)
	}
	return tokens
}
