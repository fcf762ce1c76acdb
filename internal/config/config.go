package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	Account      string
	Pools        []PoolConfig
	PoolIDs      []string
	Prices       map[string]string
	PriceURL     string
	PriceAPIKey  string
	PriceTimeout time.Duration
	Out          string
	PGDSN        string
	Concurrency  int
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	MetricsAddr  string
	LogLevel     string
}

// PoolConfig declares one farming pool.
type PoolConfig struct {
	ID              string       `mapstructure:"id"`
	Name            string       `mapstructure:"name"`
	Provider        string       `mapstructure:"provider"`
	StakingPool     string       `mapstructure:"staking_pool"`
	StakingToken    string       `mapstructure:"staking_token"`
	RewardToken     string       `mapstructure:"reward_token"`
	ScalingToken    string       `mapstructure:"scaling_token"`
	ScalingMethod   string       `mapstructure:"scaling_method"`
	ScalingDecimals uint8        `mapstructure:"scaling_decimals"`
	StakingTicker   string       `mapstructure:"staking_ticker"`
	RewardTicker    string       `mapstructure:"reward_ticker"`
	StakingPriceID  string       `mapstructure:"staking_price_id"`
	RewardPriceID   string       `mapstructure:"reward_price_id"`
	PoolRewards     []string     `mapstructure:"pool_rewards"`
	Risk            *RiskConfig  `mapstructure:"risk"`
	Links           []LinkConfig `mapstructure:"links"`
}

// RiskConfig holds risk labels as written in the config file.
type RiskConfig struct {
	SmartContract   string `mapstructure:"smart_contract"`
	ImpermanentLoss string `mapstructure:"impermanent_loss"`
}

// LinkConfig is a titled reference URL.
type LinkConfig struct {
	Title string `mapstructure:"title"`
	URL   string `mapstructure:"url"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YIELDSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("price-url", "https://api.coingecko.com/api/v3")
	v.SetDefault("price-timeout", 10*time.Second)
	v.SetDefault("out", "")
	v.SetDefault("concurrency", 4)
	v.SetDefault("interval", time.Duration(0))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var pools []PoolConfig
	if err := v.UnmarshalKey("pools", &pools); err != nil {
		return Config{}, fmt.Errorf("decode pools: %w", err)
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		Account:      v.GetString("account"),
		Pools:        pools,
		PoolIDs:      getStringSlice(v, "pool"),
		Prices:       getStringMap(v, "prices"),
		PriceURL:     v.GetString("price-url"),
		PriceAPIKey:  v.GetString("price-api-key"),
		PriceTimeout: v.GetDuration("price-timeout"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		Concurrency:  v.GetInt("concurrency"),
		Interval:     v.GetDuration("interval"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		MetricsAddr:  v.GetString("metrics-addr"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// SelectPools returns the pools whose ids are listed, or all pools when ids is empty.
func (c Config) SelectPools(ids []string) ([]PoolConfig, error) {
	if len(ids) == 0 {
		return c.Pools, nil
	}
	byID := make(map[string]PoolConfig, len(c.Pools))
	for _, pool := range c.Pools {
		byID[pool.ID] = pool
	}
	out := make([]PoolConfig, 0, len(ids))
	for _, id := range ids {
		pool, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown pool id: %s", id)
		}
		out = append(out, pool)
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
