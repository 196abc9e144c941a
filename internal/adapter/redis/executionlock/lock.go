// package executionlock guards executions with a Redis SETNX lock so at
// most one sandbox is in flight per execution id across processes
package executionlock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
)

const lockKeyPrefix = "execution:lock:"

var _ secondary.ExecutionLock = (*ExecutionLock)(nil)

// ExecutionLock implements the ExecutionLock interface with Redis
type ExecutionLock struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewExecutionLock creates a new Redis execution lock
func NewExecutionLock(redisClient *redis.Client, logger primary.Logger) *ExecutionLock {
	return &ExecutionLock{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Acquire takes the in-flight lock for an execution id. The TTL bounds
// how long a crashed holder can block replays.
func (l *ExecutionLock) Acquire(ctx context.Context, executionID uuid.UUID, ttl time.Duration) (bool, error) {
	key := lockKeyPrefix + executionID.String()
	acquired, err := l.redisClient.SetNX(ctx, key, time.Now().UnixNano(), ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire execution lock", "executionId", executionID, "error", err)
		return false, fmt.Errorf("failed to acquire execution lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lock for an execution id
func (l *ExecutionLock) Release(ctx context.Context, executionID uuid.UUID) error {
	key := lockKeyPrefix + executionID.String()
	if err := l.redisClient.Del(ctx, key).Err(); err != nil {
		l.logger.Error("Failed to release execution lock", "executionId", executionID, "error", err)
		return fmt.Errorf("failed to release execution lock: %w", err)
	}
	return nil
}
