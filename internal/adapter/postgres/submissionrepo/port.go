// package submissionrepo reads the assessment layer's code submissions
// for plagiarism scans
package submissionrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
	querybuilder "gitlab.com/bluapt.net/internal/utils"
)

var _ secondary.SubmissionRepository = (*SubmissionRepository)(nil)

// SubmissionRepository implements the SubmissionRepository interface with
// PostgreSQL
type SubmissionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewSubmissionRepository creates a new PostgreSQL submission repository
func NewSubmissionRepository(db *sqlx.DB, logger primary.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// GetSubmission retrieves a submission by ID
func (r *SubmissionRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*domain.CodeSubmission, error) {
	query := `
		SELECT id, candidate_id, question_id, code_content, language, plagiarism_score, submitted_at
		FROM code_submissions
		WHERE id = $1
	`

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.SubmissionNotFound
		}
		r.logger.Error("Failed to get submission", "submissionId", id, "error", err)
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

// ListSiblingSubmissions retrieves all other submissions for the same
// question and language
func (r *SubmissionRepository) ListSiblingSubmissions(ctx context.Context, questionID uuid.UUID, lang domain.Language, excludeID uuid.UUID) ([]*domain.CodeSubmission, error) {
	query, args := querybuilder.NewQueryBuilder("").
		Select("id", "candidate_id", "question_id", "code_content", "language", "plagiarism_score", "submitted_at").
		From("code_submissions").
		Where("question_id = ?", questionID).
		And("language = ?", lang).
		And("id <> ?", excludeID).
		OrderBy("submitted_at", true).
		Build()
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list sibling submissions", "questionId", questionID, "error", err)
		return nil, fmt.Errorf("failed to list sibling submissions: %w", err)
	}
	defer rows.Close()

	var siblings []*domain.CodeSubmission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		siblings = append(siblings, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return siblings, nil
}

// UpdatePlagiarismScore writes a detection score back onto the submission
func (r *SubmissionRepository) UpdatePlagiarismScore(ctx context.Context, id uuid.UUID, score float64) error {
	var data querybuilder.UpdateData
	data.Set("plagiarism_score", score)
	query, args := querybuilder.NewQueryBuilder("").
		Update("code_submissions", data).
		Where("id = ?", id).
		Build()
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update plagiarism score", "submissionId", id, "error", err)
		return fmt.Errorf("failed to update plagiarism score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return errs.SubmissionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*domain.CodeSubmission, error) {
	var submission domain.CodeSubmission
	var score sql.NullFloat64

	err := row.Scan(
		&submission.ID,
		&submission.CandidateID,
		&submission.QuestionID,
		&submission.Code,
		&submission.Language,
		&score,
		&submission.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		submission.PlagiarismScore = &score.Float64
	}
	return &submission, nil
}
