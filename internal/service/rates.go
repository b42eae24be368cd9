package service

import (
	"context"

	"towdispatch/internal/domain"
	"towdispatch/internal/redis"
	"towdispatch/internal/repository"
)

// RateService fronts the rate provider with a Redis cache. Cache
// failures fall open to the provider so a Redis outage never blocks
// quoting.
type RateService struct {
	provider repository.RateProvider
	cache    redis.RateCacheInterface
}

// NewRateService creates a new RateService.
func NewRateService(provider repository.RateProvider, cache redis.RateCacheInterface) *RateService {
	return &RateService{provider: provider, cache: cache}
}

// GetRateConfig returns a company's rate configuration, cached.
func (s *RateService) GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error) {
	if s.cache != nil {
		if cfg, err := s.cache.GetRateConfig(ctx, companyID); err == nil && cfg != nil {
			return cfg, nil
		}
	}

	cfg, err := s.provider.GetRateConfig(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetRateConfig(ctx, cfg)
	}

	return cfg, nil
}

// Invalidate drops a company's cached rate configuration, for use when
// the back office edits the catalog.
func (s *RateService) Invalidate(ctx context.Context, companyID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateRateConfig(ctx, companyID)
}
