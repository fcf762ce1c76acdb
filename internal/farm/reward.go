package farm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// WeeklyReward derives the pool-wide weekly reward from rewardRate, in whole
// reward tokens. It is zero once periodFinish is at or before now.
func (r *Reader) WeeklyReward(ctx context.Context, addrs PoolAddresses, now uint64, block *big.Int) (decimal.Decimal, error) {
	if r.caller == nil {
		return decimal.Zero, fmt.Errorf("chain caller is nil")
	}
	poolABI, err := StakingPoolABI()
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse staking pool abi: %w", err)
	}
	rewardDecimals, err := r.TokenDecimals(ctx, addrs.RewardToken)
	if err != nil {
		return decimal.Zero, err
	}

	var periodFinish, rewardRate *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		periodFinish, err = r.readUint(gctx, addrs.StakingPool, poolABI, "periodFinish", block)
		return err
	})
	g.Go(func() error {
		var err error
		rewardRate, err = r.readUint(gctx, addrs.StakingPool, poolABI, "rewardRate", block)
		return err
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, fmt.Errorf("weekly reward %s: %w", addrs.StakingPool.Hex(), err)
	}

	return WeeklyRewardAmount(rewardRate, rewardDecimals, periodFinish, now), nil
}

// WeeklyRewardAmount converts a per-second reward rate into a weekly amount
// rounded to whole tokens.
func WeeklyRewardAmount(rewardRate *big.Int, rewardDecimals uint8, periodFinish *big.Int, now uint64) decimal.Decimal {
	if periodFinish == nil || periodFinish.Cmp(new(big.Int).SetUint64(now)) <= 0 {
		return decimal.Zero
	}
	return ToDecimal(rewardRate, rewardDecimals).Mul(decimal.NewFromInt(SecondsPerWeek)).Round(0)
}
