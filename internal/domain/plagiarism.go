package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlagiarismResult is the persisted outcome of one detection run for a
// submission. Re-running detection replaces the prior result.
type PlagiarismResult struct {
	ID               uuid.UUID `db:"id"`
	CodeSubmissionID uuid.UUID `db:"code_submission_id"`
	PlagiarismScore  float64   `db:"plagiarism_score"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`

	SimilarSubmissions []*SimilarSubmission
}

// SimilarSubmission records one sibling submission whose similarity
// crossed the reporting threshold.
type SimilarSubmission struct {
	ID                 uuid.UUID `db:"id"`
	PlagiarismResultID uuid.UUID `db:"plagiarism_result_id"`
	CandidateID        uuid.UUID `db:"candidate_id"`
	SimilarityScore    float64   `db:"similarity_score"`
	MatchingLines      []int     `db:"matching_lines"`
	CreatedAt          time.Time `db:"created_at"`
}

// NewPlagiarismResult creates an empty result for a submission
func NewPlagiarismResult(submissionID uuid.UUID) *PlagiarismResult {
	now := time.Now()
	return &PlagiarismResult{
		ID:               uuid.New(),
		CodeSubmissionID: submissionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// PlagiarismReport is the caller-facing projection of a detection run.
type PlagiarismReport struct {
	CodeSubmissionID   uuid.UUID               `json:"codeSubmissionId"`
	PlagiarismScore    float64                 `json:"plagiarismScore"`
	SimilarSubmissions []SimilarSubmissionItem `json:"similarSubmissions"`
}

// SimilarSubmissionItem is one entry of a PlagiarismReport.
type SimilarSubmissionItem struct {
	CandidateID     uuid.UUID `json:"candidateId"`
	SimilarityScore float64   `json:"similarityScore"`
	MatchingLines   []int     `json:"matchingLines"`
}
