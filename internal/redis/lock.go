package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireBatchLock attempts to acquire the evidence-batch lock for the
// given job, so two devices cannot interleave batch uploads for the
// same job. Returns true if the lock was acquired, false if already
// held.
func (s *LockStore) AcquireBatchLock(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:evidence-batch:%s", jobID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseBatchLock releases the evidence-batch lock for the given job.
func (s *LockStore) ReleaseBatchLock(ctx context.Context, jobID string) error {
	key := fmt.Sprintf("lock:evidence-batch:%s", jobID)

	return s.client.Del(ctx, key).Err()
}
