package secondary

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExecutionLock guards against two in-flight sandboxes for one execution
// id across processes.
type ExecutionLock interface {
	// Acquire takes the in-flight lock for an execution id. Returns false
	// when another call already holds it.
	Acquire(ctx context.Context, executionID uuid.UUID, ttl time.Duration) (bool, error)

	// Release frees the lock for an execution id
	Release(ctx context.Context, executionID uuid.UUID) error
}
