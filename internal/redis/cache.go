package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"towdispatch/internal/domain"
)

// RateCache caches per-company rate configurations in Redis. Rate
// catalogs change at back-office pace, so a short TTL keeps quotes
// fresh without a PostgreSQL round trip on every price computation.
type RateCache struct {
	client *redis.Client
}

// NewRateCache creates a new RateCache.
func NewRateCache(client *redis.Client) *RateCache {
	return &RateCache{client: client}
}

// RateConfigTTL bounds how long a cached rate catalog is served.
const RateConfigTTL = 5 * time.Minute

func rateKey(companyID string) string {
	return fmt.Sprintf("rates:%s", companyID)
}

// GetRateConfig returns the cached config for a company, or nil on a
// cache miss.
func (c *RateCache) GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error) {
	data, err := c.client.Get(ctx, rateKey(companyID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cfg domain.RateConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetRateConfig stores a company's config with the standard TTL.
func (c *RateCache) SetRateConfig(ctx context.Context, cfg *domain.RateConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rateKey(cfg.CompanyID), data, RateConfigTTL).Err()
}

// InvalidateRateConfig drops a company's cached config.
func (c *RateCache) InvalidateRateConfig(ctx context.Context, companyID string) error {
	return c.client.Del(ctx, rateKey(companyID)).Err()
}
