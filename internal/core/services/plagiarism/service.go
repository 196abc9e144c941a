package plagiarism

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/domain"
)

type IPlagiarismService interface {
	// Detect compares a submission against its sibling submissions for the
	// same question and language. Re-running detection supersedes the
	// prior persisted result for that submission.
	Detect(ctx context.Context, submissionID uuid.UUID) (*domain.PlagiarismReport, error)

	// GetReport returns the persisted detection result for a submission;
	// errs.DetectionNotFound when no run has been recorded.
	GetReport(ctx context.Context, submissionID uuid.UUID) (*domain.PlagiarismReport, error)
}
