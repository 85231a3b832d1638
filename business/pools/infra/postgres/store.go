// Package postgres persists pool snapshots and serves the latest one as a row source.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// Schema creates the snapshot tables. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	id         UUID PRIMARY KEY,
	source     TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	taken_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS pool_snapshots_taken_at_idx ON pool_snapshots (taken_at DESC);

CREATE TABLE IF NOT EXISTS pool_rows (
	snapshot_id          UUID NOT NULL REFERENCES pool_snapshots (id) ON DELETE CASCADE,
	position             INTEGER NOT NULL,
	name                 TEXT NOT NULL,
	market_symbol        TEXT NOT NULL,
	address              TEXT NOT NULL,
	leverage             INTEGER NOT NULL,
	tvl                  NUMERIC NOT NULL,
	my_holdings          NUMERIC NOT NULL,
	one_day_volume       NUMERIC NOT NULL,
	min_wait_time        BIGINT NOT NULL,
	max_wait_time        BIGINT NOT NULL,
	pool_status          TEXT NOT NULL,
	short_symbol         TEXT NOT NULL,
	short_tvl            NUMERIC NOT NULL,
	short_next_tcr_price NUMERIC NOT NULL,
	short_balancer_price NUMERIC NOT NULL,
	short_effective_gain NUMERIC NOT NULL,
	long_symbol          TEXT NOT NULL,
	long_tvl             NUMERIC NOT NULL,
	long_next_tcr_price  NUMERIC NOT NULL,
	long_balancer_price  NUMERIC NOT NULL,
	long_effective_gain  NUMERIC NOT NULL,
	short_pool_status    TEXT NOT NULL DEFAULT '',
	long_pool_status     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (snapshot_id, position)
);

ALTER TABLE pool_rows ADD COLUMN IF NOT EXISTS short_pool_status TEXT NOT NULL DEFAULT '';
ALTER TABLE pool_rows ADD COLUMN IF NOT EXISTS long_pool_status TEXT NOT NULL DEFAULT '';
`

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool   *pgxpool.Pool
	source string
	now    func() time.Time
}

// NewStore connects to dsn. source labels the snapshots this store writes.
func NewStore(ctx context.Context, dsn, source string) (*Store, error) {
	if dsn == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("postgres dsn is required"))
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	return &Store{pool: pool, source: source, now: time.Now}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Name implements app.RowSource.
func (s *Store) Name() string {
	return "postgres"
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the tables if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return apperror.New(apperror.CodeSnapshotStoreError, apperror.WithContext("create schema"), apperror.WithCause(err))
	}
	return nil
}

// SaveSnapshot writes rows as a new snapshot and returns its id.
func (s *Store) SaveSnapshot(ctx context.Context, rows []domain.PoolTokenRow) (string, error) {
	id := uuid.New()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pool_snapshots (id, source, row_count, taken_at)
			VALUES ($1, $2, $3, $4)
		`, id.String(), s.source, len(rows), s.now().UTC()); err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, r := range rows {
			batch.Queue(`
				INSERT INTO pool_rows (
					snapshot_id, position, name, market_symbol, address, leverage,
					tvl, my_holdings, one_day_volume, min_wait_time, max_wait_time, pool_status,
					short_symbol, short_tvl, short_next_tcr_price, short_balancer_price, short_effective_gain,
					long_symbol, long_tvl, long_next_tcr_price, long_balancer_price, long_effective_gain,
					short_pool_status, long_pool_status
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
				ON CONFLICT (snapshot_id, position) DO NOTHING
			`,
				id.String(), i, r.Name, r.MarketSymbol, r.Address, r.Leverage,
				r.TVL.String(), r.MyHoldings.String(), r.OneDayVolume.String(),
				r.MinWaitTime, r.MaxWaitTime, string(r.PoolStatus),
				r.ShortToken.Symbol, r.ShortToken.TVL.String(), r.ShortToken.NextTCRPrice.String(),
				r.ShortToken.BalancerPrice.String(), r.ShortToken.EffectiveGain.String(),
				r.LongToken.Symbol, r.LongToken.TVL.String(), r.LongToken.NextTCRPrice.String(),
				r.LongToken.BalancerPrice.String(), r.LongToken.EffectiveGain.String(),
				string(r.ShortToken.PoolStatus), string(r.LongToken.PoolStatus),
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return err
			}
		}
		return br.Close()
	})
	if err != nil {
		return "", apperror.New(apperror.CodeSnapshotStoreError, apperror.WithContext("save snapshot"), apperror.WithCause(err))
	}
	return id.String(), nil
}

// LatestSnapshot returns the id and time of the newest snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (uuid.UUID, time.Time, error) {
	var (
		raw   string
		taken time.Time
	)
	row := s.pool.QueryRow(ctx, `SELECT id::text, taken_at FROM pool_snapshots ORDER BY taken_at DESC LIMIT 1`)
	if err := row.Scan(&raw, &taken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, time.Time{}, apperror.New(apperror.CodePoolSnapshotEmpty)
		}
		return uuid.Nil, time.Time{}, apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, time.Time{}, apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}
	return id, taken, nil
}

// Rows implements app.RowSource by reading the latest snapshot.
func (s *Store) Rows(ctx context.Context) ([]domain.PoolTokenRow, error) {
	id, _, err := s.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT name, market_symbol, address, leverage,
			tvl::text, my_holdings::text, one_day_volume::text,
			min_wait_time, max_wait_time, pool_status,
			short_symbol, short_tvl::text, short_next_tcr_price::text, short_balancer_price::text, short_effective_gain::text,
			long_symbol, long_tvl::text, long_next_tcr_price::text, long_balancer_price::text, long_effective_gain::text,
			short_pool_status, long_pool_status
		FROM pool_rows
		WHERE snapshot_id = $1
		ORDER BY position
	`, id.String())
	if err != nil {
		return nil, apperror.New(apperror.CodeSnapshotStoreError, apperror.WithCause(err))
	}

	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, apperror.New(apperror.CodeSnapshotStoreError, apperror.WithContext(id.String()), apperror.WithCause(err))
	}
	return out, nil
}

func scanRow(row pgx.CollectableRow) (domain.PoolTokenRow, error) {
	var (
		r                       domain.PoolTokenRow
		status                  string
		shortStatus, longStatus string
		nums                    [11]string
	)
	err := row.Scan(
		&r.Name, &r.MarketSymbol, &r.Address, &r.Leverage,
		&nums[0], &nums[1], &nums[2],
		&r.MinWaitTime, &r.MaxWaitTime, &status,
		&r.ShortToken.Symbol, &nums[3], &nums[4], &nums[5], &nums[6],
		&r.LongToken.Symbol, &nums[7], &nums[8], &nums[9], &nums[10],
		&shortStatus, &longStatus,
	)
	if err != nil {
		return r, err
	}

	parsed := make([]decimal.Decimal, 11)
	for i := range parsed {
		d, err := decimal.NewFromString(nums[i])
		if err != nil {
			return r, fmt.Errorf("%s: numeric column %d: %w", r.Name, i, err)
		}
		parsed[i] = d
	}

	r.PoolStatus = domain.ParsePoolStatus(status)
	r.TVL, r.MyHoldings, r.OneDayVolume = parsed[0], parsed[1], parsed[2]
	r.ShortToken.TVL, r.ShortToken.NextTCRPrice, r.ShortToken.BalancerPrice, r.ShortToken.EffectiveGain =
		parsed[3], parsed[4], parsed[5], parsed[6]
	r.LongToken.TVL, r.LongToken.NextTCRPrice, r.LongToken.BalancerPrice, r.LongToken.EffectiveGain =
		parsed[7], parsed[8], parsed[9], parsed[10]
	r.ShortToken.Side, r.LongToken.Side = domain.SideShort, domain.SideLong
	r.ShortToken.PoolStatus = sideStatus(shortStatus, r.PoolStatus)
	r.LongToken.PoolStatus = sideStatus(longStatus, r.PoolStatus)
	return r, nil
}

// sideStatus parses a stored side status. Rows written before side statuses
// were stored have an empty column and inherit the pool's status.
func sideStatus(raw string, pool domain.PoolStatus) domain.PoolStatus {
	if raw == "" {
		return pool
	}
	return domain.ParsePoolStatus(raw)
}
