package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/domain"
)

type ExecutionResultRepository interface {
	// GetOrCreate returns the result row for an execution id, creating a
	// pending row when none exists. The second return value reports
	// whether the row was created by this call.
	GetOrCreate(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionResult, bool, error)

	// Get retrieves a result by execution id; errs.ExecutionNotFound when missing
	Get(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionResult, error)

	// Update applies a patch to a non-terminal row. Updating a row that
	// already reached a terminal status returns errs.InvalidStateTransition.
	Update(ctx context.Context, executionID uuid.UUID, patch domain.ExecutionPatch) error
}

type ContainerRecordRepository interface {
	// SaveContainer persists a new sandbox container record
	SaveContainer(ctx context.Context, record *domain.SandboxContainer) error

	// UpdateContainerStatus advances a container record's lifecycle state
	UpdateContainerStatus(ctx context.Context, containerID string, status domain.ContainerStatus) error
}
