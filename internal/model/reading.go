package model

import "github.com/shopspring/decimal"

// PoolReading holds resolved, token-scaled readings for one pool.
type PoolReading struct {
	StakedAmount       decimal.Decimal `json:"staked_amount"`
	EarnedReward       decimal.Decimal `json:"earned_reward"`
	TotalStaked        decimal.Decimal `json:"total_staked"`
	WeeklyRewardAmount decimal.Decimal `json:"weekly_reward_amount"`
	StakingTokenPrice  decimal.Decimal `json:"staking_token_price"`
	RewardTokenPrice   decimal.Decimal `json:"reward_token_price"`

	// RewardScale is a rebasing multiplier for the reward token.
	// Zero means unset.
	RewardScale decimal.Decimal `json:"reward_scale"`
}
