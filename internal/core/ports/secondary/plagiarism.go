package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/domain"
)

type PlagiarismRepository interface {
	// ReplaceResult persists a detection result, superseding any prior
	// result for the same submission along with its similar-submission rows.
	ReplaceResult(ctx context.Context, result *domain.PlagiarismResult) error

	// GetResult retrieves the current detection result for a submission
	GetResult(ctx context.Context, submissionID uuid.UUID) (*domain.PlagiarismResult, error)
}
