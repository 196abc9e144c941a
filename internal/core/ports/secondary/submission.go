package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/domain"
)

type SubmissionRepository interface {
	// GetSubmission retrieves a submission by ID
	GetSubmission(ctx context.Context, id uuid.UUID) (*domain.CodeSubmission, error)

	// ListSiblingSubmissions retrieves all submissions for the same
	// question and language, excluding the given submission.
	ListSiblingSubmissions(ctx context.Context, questionID uuid.UUID, lang domain.Language, excludeID uuid.UUID) ([]*domain.CodeSubmission, error)

	// UpdatePlagiarismScore writes a detection score back onto the submission
	UpdatePlagiarismScore(ctx context.Context, id uuid.UUID, score float64) error
}
