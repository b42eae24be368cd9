package redis

import (
	"context"
	"time"

	"towdispatch/internal/domain"
)

// RateCacheInterface defines the interface for rate-config caching.
type RateCacheInterface interface {
	GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error)
	SetRateConfig(ctx context.Context, cfg *domain.RateConfig) error
	InvalidateRateConfig(ctx context.Context, companyID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBatchLock(ctx context.Context, jobID string, ttl time.Duration) (bool, error)
	ReleaseBatchLock(ctx context.Context, jobID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RateCacheInterface = (*RateCache)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
