// Package collector reads pool state on an interval and emits snapshots.
package collector

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yieldScope/internal/chain"
	"yieldScope/internal/farm"
	"yieldScope/internal/model"
	"yieldScope/internal/observability"
	"yieldScope/internal/price"
	"yieldScope/internal/snapshot"
	"yieldScope/internal/storage"
)

// BlockSource pins a run to a block.
type BlockSource interface {
	Latest(ctx context.Context) (chain.BlockRef, error)
}

// PoolReader reads live pool state. *farm.Reader implements it.
type PoolReader interface {
	ReadStake(ctx context.Context, addrs farm.PoolAddresses, account *common.Address, block *big.Int) (farm.StakeReading, error)
	WeeklyReward(ctx context.Context, addrs farm.PoolAddresses, now uint64, block *big.Int) (decimal.Decimal, error)
}

// RunConfig holds runtime settings for the collector.
type RunConfig struct {
	Pools []Pool
	// Account is optional; without it per-account figures are zero.
	Account     *common.Address
	Concurrency int
	Interval    time.Duration
}

// Runner computes snapshots for every configured pool.
type Runner struct {
	cfg     RunConfig
	blocks  BlockSource
	reader  PoolReader
	prices  price.Lookup
	sink    storage.Sink
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner builds a Runner with its dependencies. metrics may be nil.
func NewRunner(cfg RunConfig, blocks BlockSource, reader PoolReader, prices price.Lookup, sink storage.Sink, metrics *observability.Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		blocks:  blocks,
		reader:  reader,
		prices:  prices,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Run repeats RunOnce every Interval until ctx is done. A zero interval runs once.
// Failed runs are logged and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	if _, err := r.RunOnce(ctx); err != nil {
		if r.cfg.Interval <= 0 || ctx.Err() != nil {
			return err
		}
		r.logger.Warn("run failed", zap.Error(err))
	}
	if r.cfg.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("run failed", zap.Error(err))
		}
	}
}

// RunOnce pins the latest block, snapshots every pool at it and writes the
// results to the sink. A pool that fails is logged and skipped; an error is
// returned only when no pool produced a snapshot or the sink fails.
func (r *Runner) RunOnce(ctx context.Context) ([]model.SnapshotRecord, error) {
	if r.blocks == nil {
		return nil, fmt.Errorf("block source is nil")
	}
	if r.reader == nil {
		return nil, fmt.Errorf("pool reader is nil")
	}
	if r.prices == nil {
		return nil, fmt.Errorf("price lookup is nil")
	}
	if len(r.cfg.Pools) == 0 {
		return nil, fmt.Errorf("at least one pool is required")
	}

	started := r.now()
	block, err := r.blocks.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("pin block: %w", err)
	}
	r.logger.Info("run started", zap.Uint64("block", block.Number), zap.Int("pools", len(r.cfg.Pools)))

	results := make([]*model.SnapshotRecord, len(r.cfg.Pools))
	failures := make([]error, len(r.cfg.Pools))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, pool := range r.cfg.Pools {
		i, pool := i, pool
		g.Go(func() error {
			record, err := r.snapshotPool(gctx, pool, block, started)
			if err != nil {
				failures[i] = err
				r.recordFailure(pool, err)
				return nil
			}
			results[i] = &record
			r.metrics.RecordSnapshot(pool.Meta.ID, record.Snapshot)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]model.SnapshotRecord, 0, len(results))
	for _, record := range results {
		if record != nil {
			records = append(records, *record)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no pool produced a snapshot: %w", errors.Join(failures...))
	}

	if r.sink != nil {
		if err := r.sink.PutSnapshots(ctx, records); err != nil {
			return records, fmt.Errorf("store snapshots: %w", err)
		}
	}

	elapsed := r.now().Sub(started)
	r.metrics.RecordRun(block.Number, elapsed)
	r.logger.Info("run complete",
		zap.Uint64("block", block.Number),
		zap.Int("snapshots", len(records)),
		zap.Int("failed", len(r.cfg.Pools)-len(records)),
		zap.Duration("elapsed", elapsed),
	)
	return records, nil
}

func (r *Runner) snapshotPool(ctx context.Context, pool Pool, block chain.BlockRef, takenAt time.Time) (model.SnapshotRecord, error) {
	blockNumber := block.BlockNumber()

	var (
		stake  farm.StakeReading
		weekly decimal.Decimal
		found  map[string]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stake, err = r.reader.ReadStake(gctx, pool.Addresses, r.cfg.Account, blockNumber)
		return err
	})
	g.Go(func() error {
		var err error
		weekly, err = r.reader.WeeklyReward(gctx, pool.Addresses, block.Timestamp, blockNumber)
		return err
	})
	g.Go(func() error {
		var err error
		found, err = r.prices.Prices(gctx, []string{pool.StakingPriceID, pool.RewardPriceID})
		if err != nil {
			return fmt.Errorf("price lookup: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.SnapshotRecord{}, err
	}

	prices, err := price.Require(found, pool.StakingPriceID, pool.RewardPriceID)
	if err != nil {
		return model.SnapshotRecord{}, snapshot.Invalid("token_price", err)
	}

	reading := model.PoolReading{
		StakedAmount:       stake.StakedAmount,
		EarnedReward:       stake.EarnedReward,
		TotalStaked:        stake.TotalStaked,
		WeeklyRewardAmount: weekly,
		StakingTokenPrice:  prices[0],
		RewardTokenPrice:   prices[1],
		RewardScale:        stake.RewardScale,
	}
	snap, err := snapshot.Compute(reading, pool.Meta)
	if err != nil {
		return model.SnapshotRecord{}, err
	}

	record := model.SnapshotRecord{
		PoolID:         pool.Meta.ID,
		ChainID:        block.ChainID,
		BlockNumber:    block.Number,
		BlockTimestamp: block.Timestamp,
		TakenAt:        takenAt.UTC(),
		Snapshot:       snap,
	}
	if r.cfg.Account != nil {
		record.Account = r.cfg.Account.Hex()
	}
	return record, nil
}

func (r *Runner) recordFailure(pool Pool, err error) {
	status := observability.StatusError
	if errors.Is(err, snapshot.ErrValidation) {
		status = observability.StatusInvalid
	}
	r.metrics.RecordFailure(pool.Meta.ID, status)
	r.logger.Warn("pool snapshot failed",
		zap.String("pool", pool.Meta.ID),
		zap.String("status", status),
		zap.Error(err),
	)
}

func (r *Runner) concurrency() int {
	if r.cfg.Concurrency <= 0 {
		return 1
	}
	return r.cfg.Concurrency
}
