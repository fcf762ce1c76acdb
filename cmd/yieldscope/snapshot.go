package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/chain"
	"yieldScope/internal/collector"
	"yieldScope/internal/config"
	"yieldScope/internal/farm"
	"yieldScope/internal/model"
	"yieldScope/internal/observability"
	"yieldScope/internal/price"
	"yieldScope/internal/retry"
	"yieldScope/internal/storage"
	"yieldScope/internal/storage/postgres"
)

func runSnapshot(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	selected, err := cfg.SelectPools(cfg.PoolIDs)
	if err != nil {
		return err
	}
	pools, err := collector.BuildPools(selected)
	if err != nil {
		return err
	}
	if len(pools) == 0 {
		return fmt.Errorf("no pools configured")
	}

	var account *common.Address
	if cfg.Account != "" {
		addr, err := collector.ParseAddress(cfg.Account, true)
		if err != nil {
			return fmt.Errorf("account: %w", err)
		}
		account = &addr
	}

	static, err := parseStaticPrices(cfg.Prices)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	policy := retry.Policy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff}
	reader := farm.NewReader(chainClient, farm.NewTokenMetaCache(), policy, logger)
	lookup := price.Chain{
		static,
		price.NewCoinGecko(price.CoinGeckoConfig{
			BaseURL: cfg.PriceURL,
			APIKey:  cfg.PriceAPIKey,
			Timeout: cfg.PriceTimeout,
			Retry:   policy,
		}, logger),
	}

	sinks := storage.Multi{}
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := openStore(ctx, cfg.PGDSN, pools)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, storage.NewWriterSink(os.Stdout))
	}

	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		metrics = observability.NewMetrics("")
		shutdown := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer shutdown()
	}

	runner := collector.NewRunner(collector.RunConfig{
		Pools:       pools,
		Account:     account,
		Concurrency: cfg.Concurrency,
		Interval:    cfg.Interval,
	}, chainClient, reader, lookup, sinks, metrics, logger)

	logger.Info("snapshot start",
		zap.String("rpc", cfg.RPCURL),
		zap.Int("pools", len(pools)),
		zap.Bool("account", account != nil),
		zap.Int("static_prices", len(static)),
		zap.String("price_url", cfg.PriceURL),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Duration("interval", cfg.Interval),
		zap.Int("concurrency", cfg.Concurrency),
	)

	return runner.Run(ctx)
}

func openStore(ctx context.Context, dsn string, pools []collector.Pool) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.UpsertPools(ctx, poolMetadata(pools)); err != nil {
		store.Close()
		return nil, fmt.Errorf("upsert pools: %w", err)
	}
	return store, nil
}

func poolMetadata(pools []collector.Pool) []model.PoolMetadata {
	out := make([]model.PoolMetadata, 0, len(pools))
	for _, pool := range pools {
		out = append(out, pool.Meta)
	}
	return out
}

func parseStaticPrices(raw map[string]string) (price.Static, error) {
	static := make(price.Static, len(raw))
	for id, value := range raw {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", id, err)
		}
		static[id] = parsed
	}
	return static, nil
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
