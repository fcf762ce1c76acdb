package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/collector"
	"yieldScope/internal/config"
)

func runPools(cmd *cobra.Command, _ []string) error {
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

	pools, err := collector.BuildPools(cfg.Pools)
	if err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg.PGDSN, pools)
		if err != nil {
			return err
		}
		store.Close()
		logger.Info("pools upserted", zap.Int("pools", len(pools)), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(poolMetadata(pools))
}
