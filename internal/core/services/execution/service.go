package execution

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/domain"
)

type IExecutionService interface {
	// Execute runs a submission inside an isolated sandbox and persists
	// the outcome under the request's execution id. Calls that replay an
	// execution id already in a terminal state return the cached outcome
	// without provisioning a second sandbox.
	Execute(ctx context.Context, req domain.ExecutionRequest) (*domain.ExecutionOutcome, error)

	// GetOutcome returns the persisted outcome for an execution id
	GetOutcome(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionOutcome, error)
}
