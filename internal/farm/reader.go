// Package farm reads staking-pool state from chain and converts it to token units.
package farm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yieldScope/internal/model"
	"yieldScope/internal/retry"
)

// SecondsPerWeek is the reward window used for weekly reward figures.
const SecondsPerWeek = 604800

// PoolAddresses locates the contracts behind one farming pool.
type PoolAddresses struct {
	StakingPool  common.Address
	StakingToken common.Address
	// RewardToken is optional; DefaultDecimals applies when it is zero.
	RewardToken common.Address
	// ScalingToken is optional and exposes a rebasing factor for the reward token.
	ScalingToken    common.Address
	ScalingMethod   string
	ScalingDecimals uint8
}

// StakeReading holds the token-scaled stake figures of a pool.
type StakeReading struct {
	StakedAmount decimal.Decimal
	EarnedReward decimal.Decimal
	TotalStaked  decimal.Decimal
	RewardScale  decimal.Decimal
}

// Reader issues contract reads for pools.
type Reader struct {
	caller Caller
	tokens *TokenMetaCache
	policy retry.Policy
	logger *zap.Logger
}

// NewReader builds a Reader. tokens may be shared between readers.
func NewReader(caller Caller, tokens *TokenMetaCache, policy retry.Policy, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = NewTokenMetaCache()
	}
	return &Reader{
		caller: caller,
		tokens: tokens,
		policy: policy,
		logger: logger,
	}
}

// TokenDecimals returns the token's decimals, reading them once per address.
// The zero address resolves to DefaultDecimals.
func (r *Reader) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if token == (common.Address{}) {
		return DefaultDecimals, nil
	}
	if meta, ok := r.tokens.Get(token); ok {
		return meta.Decimals, nil
	}

	var meta model.TokenMeta
	err := r.withRetry(ctx, "decimals", token, func(ctx context.Context) error {
		var err error
		meta, err = FetchTokenMeta(ctx, r.caller, token)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("token meta %s: %w", token.Hex(), err)
	}
	r.tokens.Set(token, meta)
	return meta.Decimals, nil
}

// ReadStake reads the caller's stake, earned rewards, the pool total and the
// optional reward scale at block. A nil account skips the per-account reads.
func (r *Reader) ReadStake(ctx context.Context, addrs PoolAddresses, account *common.Address, block *big.Int) (StakeReading, error) {
	if r.caller == nil {
		return StakeReading{}, fmt.Errorf("chain caller is nil")
	}
	poolABI, err := StakingPoolABI()
	if err != nil {
		return StakeReading{}, fmt.Errorf("parse staking pool abi: %w", err)
	}
	tokenABI, err := ERC20ABI()
	if err != nil {
		return StakeReading{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	stakingDecimals, err := r.TokenDecimals(ctx, addrs.StakingToken)
	if err != nil {
		return StakeReading{}, err
	}
	rewardDecimals, err := r.TokenDecimals(ctx, addrs.RewardToken)
	if err != nil {
		return StakeReading{}, err
	}

	reading := StakeReading{
		StakedAmount: decimal.Zero,
		EarnedReward: decimal.Zero,
		TotalStaked:  decimal.Zero,
		RewardScale:  decimal.Zero,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, err := r.readUint(gctx, addrs.StakingToken, tokenABI, "balanceOf", block, addrs.StakingPool)
		if err != nil {
			return fmt.Errorf("total staked: %w", err)
		}
		reading.TotalStaked = ToDecimal(raw, stakingDecimals)
		return nil
	})

	if account != nil {
		owner := *account
		g.Go(func() error {
			raw, err := r.readUint(gctx, addrs.StakingPool, poolABI, "balanceOf", block, owner)
			if err != nil {
				return fmt.Errorf("staked amount: %w", err)
			}
			reading.StakedAmount = ToDecimal(raw, stakingDecimals)
			return nil
		})
		g.Go(func() error {
			raw, err := r.readUint(gctx, addrs.StakingPool, poolABI, "earned", block, owner)
			if err != nil {
				return fmt.Errorf("earned reward: %w", err)
			}
			reading.EarnedReward = ToDecimal(raw, rewardDecimals)
			return nil
		})
	}

	if addrs.ScalingToken != (common.Address{}) {
		g.Go(func() error {
			scale, err := r.ReadScale(gctx, addrs, block)
			if err != nil {
				return err
			}
			reading.RewardScale = scale
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return StakeReading{}, err
	}
	return reading, nil
}

// ReadScale reads the rebasing factor exposed by the scaling token.
func (r *Reader) ReadScale(ctx context.Context, addrs PoolAddresses, block *big.Int) (decimal.Decimal, error) {
	getter, err := UintGetterABI(addrs.ScalingMethod)
	if err != nil {
		return decimal.Zero, err
	}
	raw, err := r.readUint(ctx, addrs.ScalingToken, getter, addrs.ScalingMethod, block)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reward scale: %w", err)
	}
	decimals := addrs.ScalingDecimals
	if decimals == 0 {
		decimals = DefaultDecimals
	}
	return ToDecimal(raw, decimals), nil
}

func (r *Reader) readUint(ctx context.Context, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) (*big.Int, error) {
	var value *big.Int
	err := r.withRetry(ctx, method, to, func(ctx context.Context) error {
		var err error
		value, err = callUint(ctx, r.caller, to, parsed, method, block, args...)
		return err
	})
	return value, err
}

func (r *Reader) withRetry(ctx context.Context, method string, to common.Address, fn func(context.Context) error) error {
	return retry.Do(ctx, r.policy, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil {
			r.logger.Warn("contract read failed", zap.String("method", method), zap.String("contract", to.Hex()), zap.Error(err))
		}
		return err
	})
}
