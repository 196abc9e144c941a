package plagiarism

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
)

// similarityThreshold is the strict lower bound for reporting a sibling.
// A pair scoring exactly the threshold is not reported.
const similarityThreshold = 70.0

var _ IPlagiarismService = (*PlagiarismService)(nil)

// PlagiarismService implements pairwise similarity detection over the
// corpus of sibling submissions for a question.
type PlagiarismService struct {
	submissions secondary.SubmissionRepository
	results     secondary.PlagiarismRepository
	logger      primary.Logger
}

// NewPlagiarismService creates a new plagiarism service
func NewPlagiarismService(
	submissions secondary.SubmissionRepository,
	results secondary.PlagiarismRepository,
	logger primary.Logger,
) *PlagiarismService {
	return &PlagiarismService{
		submissions: submissions,
		results:     results,
		logger:      logger,
	}
}

// Detect scans every sibling submission, records those whose similarity
// exceeds the threshold, and persists the run. A sibling that cannot be
// compared is skipped, not propagated.
func (s *PlagiarismService) Detect(ctx context.Context, submissionID uuid.UUID) (*domain.PlagiarismReport, error) {
	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}

	siblings, err := s.submissions.ListSiblingSubmissions(ctx, submission.QuestionID, submission.Language, submission.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling submissions: %w", err)
	}

	s.logger.Info("Running plagiarism detection",
		"submissionId", submissionID,
		"questionId", submission.QuestionID,
		"siblings", len(siblings))

	result := domain.NewPlagiarismResult(submission.ID)
	report := &domain.PlagiarismReport{
		CodeSubmissionID:   submission.ID,
		SimilarSubmissions: []domain.SimilarSubmissionItem{},
	}

	for _, sibling := range siblings {
		if sibling.Code == "" {
			s.logger.Warn("Skipping sibling with empty stored code", "siblingId", sibling.ID)
			continue
		}

		score := Similarity(submission.Code, sibling.Code)
		if score <= similarityThreshold {
			continue
		}

		similar := &domain.SimilarSubmission{
			ID:                 uuid.New(),
			PlagiarismResultID: result.ID,
			CandidateID:        sibling.CandidateID,
			SimilarityScore:    score,
			MatchingLines:      MatchingLines(submission.Code, sibling.Code),
			CreatedAt:          time.Now(),
		}
		result.SimilarSubmissions = append(result.SimilarSubmissions, similar)
		report.SimilarSubmissions = append(report.SimilarSubmissions, domain.SimilarSubmissionItem{
			CandidateID:     similar.CandidateID,
			SimilarityScore: similar.SimilarityScore,
			MatchingLines:   similar.MatchingLines,
		})

		if score > result.PlagiarismScore {
			result.PlagiarismScore = score
		}
	}
	report.PlagiarismScore = result.PlagiarismScore

	if err := s.results.ReplaceResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist plagiarism result: %w", err)
	}
	if err := s.submissions.UpdatePlagiarismScore(ctx, submission.ID, result.PlagiarismScore); err != nil {
		return nil, fmt.Errorf("failed to update submission plagiarism score: %w", err)
	}

	s.logger.Info("Plagiarism detection finished",
		"submissionId", submissionID,
		"plagiarismScore", result.PlagiarismScore,
		"similarSubmissions", len(result.SimilarSubmissions))

	return report, nil
}

// GetReport projects the persisted detection result for a submission.
func (s *PlagiarismService) GetReport(ctx context.Context, submissionID uuid.UUID) (*domain.PlagiarismReport, error) {
	result, err := s.results.GetResult(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errs.DetectionNotFound
	}

	report := &domain.PlagiarismReport{
		CodeSubmissionID:   result.CodeSubmissionID,
		PlagiarismScore:    result.PlagiarismScore,
		SimilarSubmissions: make([]domain.SimilarSubmissionItem, 0, len(result.SimilarSubmissions)),
	}
	for _, similar := range result.SimilarSubmissions {
		report.SimilarSubmissions = append(report.SimilarSubmissions, domain.SimilarSubmissionItem{
			CandidateID:     similar.CandidateID,
			SimilarityScore: similar.SimilarityScore,
			MatchingLines:   similar.MatchingLines,
		})
	}
	return report, nil
}
