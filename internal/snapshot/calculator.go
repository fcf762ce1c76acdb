// Package snapshot turns resolved pool readings into display-ready snapshots.
package snapshot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"yieldScope/internal/model"
)

const (
	weeksPerYear = 52
	daysPerWeek  = 7
	hoursPerDay  = 24
)

var hundred = decimal.NewFromInt(100)

// Rates are the derived return figures for a reading, all in percent.
type Rates struct {
	RewardPerToken decimal.Decimal
	Weekly         decimal.Decimal
	Daily          decimal.Decimal
	Hourly         decimal.Decimal
	APR            decimal.Decimal
}

// Validate rejects readings that can only come from corrupt upstream data.
func Validate(reading model.PoolReading) error {
	if reading.StakedAmount.IsNegative() {
		return &ValidationError{Field: "staked_amount", Reason: fmt.Sprintf("negative value %s", reading.StakedAmount)}
	}
	if reading.StakingTokenPrice.IsNegative() {
		return &ValidationError{Field: "staking_token_price", Reason: fmt.Sprintf("negative value %s", reading.StakingTokenPrice)}
	}
	if reading.RewardTokenPrice.IsNegative() {
		return &ValidationError{Field: "reward_token_price", Reason: fmt.Sprintf("negative value %s", reading.RewardTokenPrice)}
	}
	return nil
}

// ComputeRates derives reward-per-token and ROI figures. Zero denominators yield zero.
func ComputeRates(reading model.PoolReading) Rates {
	weekly := applyScale(reading.WeeklyRewardAmount, reading.RewardScale)

	rewardPerToken := decimal.Zero
	if !reading.TotalStaked.IsZero() {
		rewardPerToken = weekly.Div(reading.TotalStaked)
	}

	weeklyROI := decimal.Zero
	if !reading.StakingTokenPrice.IsZero() {
		weeklyROI = rewardPerToken.Mul(reading.RewardTokenPrice).Div(reading.StakingTokenPrice).Mul(hundred)
	}

	daily := weeklyROI.Div(decimal.NewFromInt(daysPerWeek))
	return Rates{
		RewardPerToken: rewardPerToken,
		Weekly:         weeklyROI,
		Daily:          daily,
		Hourly:         daily.Div(decimal.NewFromInt(hoursPerDay)),
		APR:            weeklyROI.Mul(decimal.NewFromInt(weeksPerYear)),
	}
}

// Compute builds the snapshot for one pool. It has no side effects and
// returns a ValidationError for negative staked amounts or prices.
func Compute(reading model.PoolReading, meta model.PoolMetadata) (model.PoolSnapshot, error) {
	if err := Validate(reading); err != nil {
		return model.PoolSnapshot{}, err
	}

	rates := ComputeRates(reading)
	earned := applyScale(reading.EarnedReward, reading.RewardScale)

	stakingPrice := reading.StakingTokenPrice
	rewardPrice := reading.RewardTokenPrice

	poolTotal := reading.TotalStaked.Mul(stakingPrice)
	callerTotal := reading.StakedAmount.Mul(stakingPrice)
	earnedUSD := earned.Mul(rewardPrice)

	return model.PoolSnapshot{
		Name:        meta.Name,
		Provider:    meta.Provider,
		PoolRewards: cloneStrings(meta.PoolRewards),
		APR:         rates.APR,
		APRText:     FormatFixed(rates.APR),
		Prices: []model.Valuation{
			valuation(meta.StakingTicker, stakingPrice),
			valuation(meta.RewardTicker, rewardPrice),
		},
		Staking: []model.Valuation{
			valuation(model.StakingPoolTotal, poolTotal),
			valuation(model.StakingCallerTotal, callerTotal),
		},
		Rewards: []model.Valuation{
			valuation(fmt.Sprintf("%s %s", FormatFixed(earned), meta.RewardTicker), earnedUSD),
		},
		ROIs: []model.ROI{
			roi(model.ROIHourly, rates.Hourly),
			roi(model.ROIDaily, rates.Daily),
			roi(model.ROIWeekly, rates.Weekly),
		},
		Risk:  cloneRisk(meta.Risk),
		Links: cloneLinks(meta.Links),
	}, nil
}

func applyScale(value, scale decimal.Decimal) decimal.Decimal {
	if scale.IsZero() {
		return value
	}
	return value.Mul(scale)
}

func valuation(label string, usd decimal.Decimal) model.Valuation {
	return model.Valuation{Label: label, USD: usd, Value: FormatUSD(usd)}
}

func roi(label string, percent decimal.Decimal) model.ROI {
	return model.ROI{Label: label, Percent: percent, Value: FormatPercent(percent)}
}

func cloneStrings(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func cloneLinks(links []model.Link) []model.Link {
	if links == nil {
		return nil
	}
	out := make([]model.Link, len(links))
	copy(out, links)
	return out
}

func cloneRisk(risk *model.Risk) *model.Risk {
	if risk == nil {
		return nil
	}
	cp := *risk
	return &cp
}
