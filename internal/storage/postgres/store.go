package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"yieldScope/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store persists pool metadata and snapshots for the dashboard.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolMetadata) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		metadata, err := json.Marshal(pool)
		if err != nil {
			return fmt.Errorf("marshal pool %s: %w", pool.ID, err)
		}
		batch.Queue(`
			INSERT INTO farm_pools (
				pool_id, name, provider, staking_ticker, reward_ticker, metadata, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6::jsonb, now(), now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				name = EXCLUDED.name,
				provider = EXCLUDED.provider,
				staking_ticker = EXCLUDED.staking_ticker,
				reward_ticker = EXCLUDED.reward_ticker,
				metadata = EXCLUDED.metadata,
				updated_at = now()
		`,
			pool.ID,
			pool.Name,
			pool.Provider,
			pool.StakingTicker,
			pool.RewardTicker,
			string(metadata),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// InsertSnapshots stores snapshot records; a record already stored for the
// same pool, chain, block and account is replaced.
func (s *Store) InsertSnapshots(ctx context.Context, records []model.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		row, err := snapshotRow(record)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pool_id, chain_id, block_number, block_timestamp, account,
				apr, weekly_roi, pool_tvl_usd, snapshot, taken_at
			) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::jsonb, $10)
			ON CONFLICT (pool_id, chain_id, block_number, account)
			DO UPDATE SET
				block_timestamp = EXCLUDED.block_timestamp,
				apr = EXCLUDED.apr,
				weekly_roi = EXCLUDED.weekly_roi,
				pool_tvl_usd = EXCLUDED.pool_tvl_usd,
				snapshot = EXCLUDED.snapshot,
				taken_at = EXCLUDED.taken_at
		`, row...)
	}
	return s.sendBatch(ctx, batch, len(records))
}

// PutSnapshots lets the store act as a snapshot sink.
func (s *Store) PutSnapshots(ctx context.Context, records []model.SnapshotRecord) error {
	return s.InsertSnapshots(ctx, records)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func snapshotRow(record model.SnapshotRecord) ([]any, error) {
	body, err := json.Marshal(record.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", record.PoolID, err)
	}
	return []any{
		record.PoolID,
		int64(record.ChainID),
		int64(record.BlockNumber),
		int64(record.BlockTimestamp),
		record.Account,
		record.Snapshot.APR.String(),
		WeeklyROI(record.Snapshot).String(),
		PoolTVL(record.Snapshot).String(),
		string(body),
		record.TakenAt,
	}, nil
}

// WeeklyROI returns the weekly ROI percentage of a snapshot, or zero.
func WeeklyROI(snap model.PoolSnapshot) decimal.Decimal {
	for _, roi := range snap.ROIs {
		if roi.Label == model.ROIWeekly {
			return roi.Percent
		}
	}
	return decimal.Zero
}

// PoolTVL returns the USD value staked in the whole pool, or zero.
func PoolTVL(snap model.PoolSnapshot) decimal.Decimal {
	for _, v := range snap.Staking {
		if v.Label == model.StakingPoolTotal {
			return v.USD
		}
	}
	return decimal.Zero
}
