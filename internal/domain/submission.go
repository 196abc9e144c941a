package domain

import (
	"time"

	"github.com/google/uuid"
)

// CodeSubmission represents a candidate's persisted answer to a coding
// question. The execution core reads these for plagiarism scans and writes
// back the plagiarism score; everything else about them is owned by the
// assessment layer.
type CodeSubmission struct {
	ID              uuid.UUID `db:"id"`
	CandidateID     uuid.UUID `db:"candidate_id"`
	QuestionID      uuid.UUID `db:"question_id"`
	Code            string    `db:"code_content"`
	Language        Language  `db:"language"`
	PlagiarismScore *float64  `db:"plagiarism_score"`
	SubmittedAt     time.Time `db:"submitted_at"`
}

// NewCodeSubmission creates a new submission
func NewCodeSubmission(candidateID, questionID uuid.UUID, code string, lang Language) *CodeSubmission {
	return &CodeSubmission{
		ID:          uuid.New(),
		CandidateID: candidateID,
		QuestionID:  questionID,
		Code:        code,
		Language:    lang,
		SubmittedAt: time.Now(),
	}
}
