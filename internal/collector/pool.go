package collector

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"yieldScope/internal/config"
	"yieldScope/internal/farm"
	"yieldScope/internal/model"
)

// Pool is a configured pool resolved into contract addresses and metadata.
type Pool struct {
	Meta           model.PoolMetadata
	Addresses      farm.PoolAddresses
	StakingPriceID string
	RewardPriceID  string
}

// BuildPools validates pool configs. Pool ids must be unique.
func BuildPools(cfgs []config.PoolConfig) ([]Pool, error) {
	pools := make([]Pool, 0, len(cfgs))
	seen := make(map[string]struct{}, len(cfgs))
	for _, cfg := range cfgs {
		pool, err := BuildPool(cfg)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[pool.Meta.ID]; ok {
			return nil, fmt.Errorf("duplicate pool id: %s", pool.Meta.ID)
		}
		seen[pool.Meta.ID] = struct{}{}
		pools = append(pools, pool)
	}
	return pools, nil
}

// BuildPool converts one pool config.
func BuildPool(cfg config.PoolConfig) (Pool, error) {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		return Pool{}, fmt.Errorf("pool id is required")
	}
	stakingPriceID := strings.TrimSpace(cfg.StakingPriceID)
	rewardPriceID := strings.TrimSpace(cfg.RewardPriceID)
	if stakingPriceID == "" || rewardPriceID == "" {
		return Pool{}, fmt.Errorf("pool %s: staking and reward price ids are required", id)
	}

	stakingPool, err := ParseAddress(cfg.StakingPool, true)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %s staking_pool: %w", id, err)
	}
	stakingToken, err := ParseAddress(cfg.StakingToken, true)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %s staking_token: %w", id, err)
	}
	rewardToken, err := ParseAddress(cfg.RewardToken, false)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %s reward_token: %w", id, err)
	}
	scalingToken, err := ParseAddress(cfg.ScalingToken, false)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %s scaling_token: %w", id, err)
	}
	if scalingToken != (common.Address{}) && cfg.ScalingMethod == "" {
		return Pool{}, fmt.Errorf("pool %s: scaling_method is required with scaling_token", id)
	}

	risk, err := buildRisk(cfg.Risk)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %s risk: %w", id, err)
	}

	links := make([]model.Link, 0, len(cfg.Links))
	for _, link := range cfg.Links {
		links = append(links, model.Link{Title: link.Title, URL: link.URL})
	}

	name := cfg.Name
	if name == "" {
		name = id
	}

	return Pool{
		Meta: model.PoolMetadata{
			ID:            id,
			Name:          name,
			Provider:      cfg.Provider,
			StakingTicker: cfg.StakingTicker,
			RewardTicker:  cfg.RewardTicker,
			PoolRewards:   append([]string(nil), cfg.PoolRewards...),
			Risk:          risk,
			Links:         links,
		},
		Addresses: farm.PoolAddresses{
			StakingPool:     stakingPool,
			StakingToken:    stakingToken,
			RewardToken:     rewardToken,
			ScalingToken:    scalingToken,
			ScalingMethod:   cfg.ScalingMethod,
			ScalingDecimals: cfg.ScalingDecimals,
		},
		StakingPriceID: stakingPriceID,
		RewardPriceID:  rewardPriceID,
	}, nil
}

// ParseAddress converts a hex address. An empty input yields the zero
// address unless required is set.
func ParseAddress(input string, required bool) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		if required {
			return common.Address{}, fmt.Errorf("address is required")
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

func buildRisk(cfg *config.RiskConfig) (*model.Risk, error) {
	if cfg == nil {
		return nil, nil
	}
	smartContract, err := model.ParseRiskLevel(cfg.SmartContract)
	if err != nil {
		return nil, fmt.Errorf("smart_contract: %w", err)
	}
	impermanentLoss, err := model.ParseRiskLevel(cfg.ImpermanentLoss)
	if err != nil {
		return nil, fmt.Errorf("impermanent_loss: %w", err)
	}
	return &model.Risk{SmartContract: smartContract, ImpermanentLoss: impermanentLoss}, nil
}
