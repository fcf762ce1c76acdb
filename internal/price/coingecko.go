package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"yieldScope/internal/retry"
)

const (
	// DefaultCoinGeckoURL is the public CoinGecko API base.
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	apiKeyHeader        = "x-cg-demo-api-key"
	vsCurrency          = "usd"
)

// CoinGeckoConfig configures the CoinGecko client.
type CoinGeckoConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retry   retry.Policy
}

// CoinGecko looks prices up through the /simple/price endpoint.
type CoinGecko struct {
	cfg    CoinGeckoConfig
	client *http.Client
	logger *zap.Logger
}

func NewCoinGecko(cfg CoinGeckoConfig, logger *zap.Logger) *CoinGecko {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCoinGeckoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoinGecko{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Prices fetches USD prices for ids in one request. Unknown ids are omitted.
func (c *CoinGecko) Prices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	var body map[string]map[string]decimal.Decimal
	err := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		var err error
		body, err = c.fetch(ctx, ids)
		if err != nil {
			c.logger.Warn("price lookup failed", zap.Strings("ids", ids), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("coingecko prices: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		quotes, ok := body[id]
		if !ok {
			continue
		}
		if value, ok := quotes[vsCurrency]; ok {
			out[id] = value
		}
	}
	return out, nil
}

func (c *CoinGecko) fetch(ctx context.Context, ids []string) (map[string]map[string]decimal.Decimal, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", vsCurrency)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/simple/price?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body, nil
}
