// package plagiarismrepo persists plagiarism detection runs
package plagiarismrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
)

var _ secondary.PlagiarismRepository = (*PlagiarismRepository)(nil)

// PlagiarismRepository implements the PlagiarismRepository interface with
// PostgreSQL
type PlagiarismRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewPlagiarismRepository creates a new PostgreSQL plagiarism repository
func NewPlagiarismRepository(db *sqlx.DB, logger primary.Logger) *PlagiarismRepository {
	return &PlagiarismRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceResult persists a detection run, superseding the prior result for
// the same submission. The delete cascades to similar_submissions, so the
// swap is atomic inside one transaction.
func (r *PlagiarismRepository) ReplaceResult(ctx context.Context, result *domain.PlagiarismResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM plagiarism_results WHERE code_submission_id = $1`,
		result.CodeSubmissionID); err != nil {
		r.logger.Error("Failed to delete prior plagiarism result", "submissionId", result.CodeSubmissionID, "error", err)
		return fmt.Errorf("failed to delete prior plagiarism result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO plagiarism_results (id, code_submission_id, plagiarism_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		result.ID,
		result.CodeSubmissionID,
		result.PlagiarismScore,
		result.CreatedAt,
		result.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to insert plagiarism result", "submissionId", result.CodeSubmissionID, "error", err)
		return fmt.Errorf("failed to insert plagiarism result: %w", err)
	}

	for _, similar := range result.SimilarSubmissions {
		linesJSON, err := json.Marshal(similar.MatchingLines)
		if err != nil {
			return fmt.Errorf("failed to marshal matching lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO similar_submissions (id, plagiarism_result_id, candidate_id, similarity_score, matching_lines, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			similar.ID,
			similar.PlagiarismResultID,
			similar.CandidateID,
			similar.SimilarityScore,
			linesJSON,
			similar.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to insert similar submission", "submissionId", result.CodeSubmissionID, "error", err)
			return fmt.Errorf("failed to insert similar submission: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plagiarism result: %w", err)
	}
	return nil
}

// GetResult retrieves the current detection result for a submission, or
// nil when no run has been recorded.
func (r *PlagiarismRepository) GetResult(ctx context.Context, submissionID uuid.UUID) (*domain.PlagiarismResult, error) {
	var result domain.PlagiarismResult
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code_submission_id, plagiarism_score, created_at, updated_at
		FROM plagiarism_results
		WHERE code_submission_id = $1`,
		submissionID,
	).Scan(&result.ID, &result.CodeSubmissionID, &result.PlagiarismScore, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get plagiarism result", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get plagiarism result: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, plagiarism_result_id, candidate_id, similarity_score, matching_lines, created_at
		FROM similar_submissions
		WHERE plagiarism_result_id = $1
		ORDER BY similarity_score DESC`,
		result.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list similar submissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var similar domain.SimilarSubmission
		var linesJSON []byte
		if err := rows.Scan(
			&similar.ID,
			&similar.PlagiarismResultID,
			&similar.CandidateID,
			&similar.SimilarityScore,
			&linesJSON,
			&similar.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan similar submission: %w", err)
		}
		if err := json.Unmarshal(linesJSON, &similar.MatchingLines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal matching lines: %w", err)
		}
		result.SimilarSubmissions = append(result.SimilarSubmissions, &similar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate similar submissions: %w", err)
	}
	return &result, nil
}
