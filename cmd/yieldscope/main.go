package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "yieldscope",
		Short:        "Yield farming pool snapshots",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read configured pools on chain and emit snapshots",
		RunE:  runSnapshot,
	}

	snapshotCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	snapshotCmd.Flags().String("account", "", "account whose stake is reported (optional)")
	snapshotCmd.Flags().StringSlice("pool", nil, "pool ids to snapshot (comma-separated), default all")
	snapshotCmd.Flags().String("prices", "", "static USD prices (comma-separated id=price), checked before the price API")
	snapshotCmd.Flags().String("price-url", "", "CoinGecko-compatible API base URL")
	snapshotCmd.Flags().String("price-api-key", "", "price API key")
	snapshotCmd.Flags().Duration("price-timeout", 10*time.Second, "price API request timeout")
	snapshotCmd.Flags().String("out", "", "output JSONL path, stdout when neither out nor pg-dsn is set")
	snapshotCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	snapshotCmd.Flags().Int("concurrency", 4, "pools read in parallel")
	snapshotCmd.Flags().Duration("interval", 0, "repeat every interval, 0 means run once")
	snapshotCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	snapshotCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	snapshotCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	snapshotCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(snapshotCmd)

	computeCmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a snapshot from readings given on the command line",
		RunE:  runCompute,
	}

	computeCmd.Flags().String("pool", "", "configured pool id to take metadata from")
	computeCmd.Flags().String("name", "", "pool name when no pool id is given")
	computeCmd.Flags().String("provider", "", "pool provider when no pool id is given")
	computeCmd.Flags().String("staking-ticker", "", "staking token ticker when no pool id is given")
	computeCmd.Flags().String("reward-ticker", "", "reward token ticker when no pool id is given")
	computeCmd.Flags().String("staked", "0", "caller's staked amount")
	computeCmd.Flags().String("earned", "0", "caller's earned reward")
	computeCmd.Flags().String("total-staked", "0", "total staked in the pool")
	computeCmd.Flags().String("weekly-reward", "0", "pool-wide weekly reward")
	computeCmd.Flags().String("staking-price", "0", "staking token USD price")
	computeCmd.Flags().String("reward-price", "0", "reward token USD price")
	computeCmd.Flags().String("reward-scale", "0", "reward token rebasing multiplier, 0 means unset")
	computeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(computeCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "Validate and list configured pools",
		RunE:  runPools,
	}

	poolsCmd.Flags().String("pg-dsn", "", "Postgres DSN, when set the pool metadata is upserted")
	poolsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
