package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"yieldScope/internal/collector"
	"yieldScope/internal/config"
	"yieldScope/internal/model"
	"yieldScope/internal/snapshot"
)

func runCompute(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	meta, err := computeMetadata(cmd.Flags(), cfg)
	if err != nil {
		return err
	}
	reading, err := readingFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	snap, err := snapshot.Compute(reading, meta)
	if err != nil {
		return err
	}
	logger.Debug("snapshot computed", zap.String("pool", meta.ID), zap.String("apr", snap.APR.String()))

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

func computeMetadata(flags *pflag.FlagSet, cfg config.Config) (model.PoolMetadata, error) {
	poolID, _ := flags.GetString("pool")
	if poolID != "" {
		selected, err := cfg.SelectPools([]string{poolID})
		if err != nil {
			return model.PoolMetadata{}, err
		}
		pool, err := collector.BuildPool(selected[0])
		if err != nil {
			return model.PoolMetadata{}, err
		}
		return pool.Meta, nil
	}

	name, _ := flags.GetString("name")
	provider, _ := flags.GetString("provider")
	stakingTicker, _ := flags.GetString("staking-ticker")
	rewardTicker, _ := flags.GetString("reward-ticker")
	return model.PoolMetadata{
		Name:          name,
		Provider:      provider,
		StakingTicker: stakingTicker,
		RewardTicker:  rewardTicker,
	}, nil
}

func readingFromFlags(flags *pflag.FlagSet) (model.PoolReading, error) {
	var reading model.PoolReading
	fields := []struct {
		flag string
		dst  *decimal.Decimal
	}{
		{"staked", &reading.StakedAmount},
		{"earned", &reading.EarnedReward},
		{"total-staked", &reading.TotalStaked},
		{"weekly-reward", &reading.WeeklyRewardAmount},
		{"staking-price", &reading.StakingTokenPrice},
		{"reward-price", &reading.RewardTokenPrice},
		{"reward-scale", &reading.RewardScale},
	}
	for _, field := range fields {
		raw, err := flags.GetString(field.flag)
		if err != nil {
			return model.PoolReading{}, err
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return model.PoolReading{}, fmt.Errorf("%s: %w", field.flag, err)
		}
		*field.dst = value
	}
	return reading, nil
}
