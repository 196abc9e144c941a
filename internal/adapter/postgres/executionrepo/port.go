// package executionrepo contains the PostgreSQL implementation of the
// execution result store
package executionrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
	querybuilder "gitlab.com/bluapt.net/internal/utils"
)

var _ secondary.ExecutionResultRepository = (*ExecutionRepository)(nil)

// ExecutionRepository implements the ExecutionResultRepository interface
// with PostgreSQL
type ExecutionRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewExecutionRepository creates a new PostgreSQL execution repository
func NewExecutionRepository(db *sqlx.DB, logger primary.Logger) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger,
	}
}

// GetOrCreate inserts a pending row for the execution id unless one
// already exists, then returns the current row. The unique constraint on
// execution_id makes concurrent first calls converge on a single row.
func (r *ExecutionRepository) GetOrCreate(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionResult, bool, error) {
	row := domain.NewExecutionResult(executionID)

	insert, args := querybuilder.NewQueryBuilder("").
		Insert("id", "execution_id", "status", "stdout", "stderr", "created_at", "updated_at").
		Into("execution_results").
		Values(row.ID, row.ExecutionID, row.Status, row.Stdout, row.Stderr, row.CreatedAt, row.UpdatedAt).
		OnConflict("execution_id").
		DoNothing().
		Build()
	insert = sqlx.Rebind(sqlx.DOLLAR, insert)

	res, err := r.db.ExecContext(ctx, insert, args...)
	if err != nil {
		r.logger.Error("Failed to insert execution result", "executionId", executionID, "error", err)
		return nil, false, fmt.Errorf("failed to insert execution result: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read insert result: %w", err)
	}

	current, err := r.Get(ctx, executionID)
	if err != nil {
		return nil, false, err
	}
	return current, inserted > 0, nil
}

// Get retrieves a result row by execution id
func (r *ExecutionRepository) Get(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionResult, error) {
	query := `
		SELECT id, execution_id, status, stdout, stderr, execution_time_ms, memory_usage_kb, created_at, updated_at
		FROM execution_results
		WHERE execution_id = $1
	`

	var result domain.ExecutionResult
	var executionTimeMs sql.NullFloat64
	var memoryUsageKB sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, executionID).Scan(
		&result.ID,
		&result.ExecutionID,
		&result.Status,
		&result.Stdout,
		&result.Stderr,
		&executionTimeMs,
		&memoryUsageKB,
		&result.CreatedAt,
		&result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ExecutionNotFound
		}
		r.logger.Error("Failed to get execution result", "executionId", executionID, "error", err)
		return nil, fmt.Errorf("failed to get execution result: %w", err)
	}

	if executionTimeMs.Valid {
		result.ExecutionTimeMs = &executionTimeMs.Float64
	}
	if memoryUsageKB.Valid {
		result.MemoryUsageKB = &memoryUsageKB.Int64
	}
	return &result, nil
}

// Update applies a patch to a non-terminal row. The status guard lives in
// the WHERE clause so a terminal row can never be overwritten, even by a
// racing writer.
func (r *ExecutionRepository) Update(ctx context.Context, executionID uuid.UUID, patch domain.ExecutionPatch) error {
	var data querybuilder.UpdateData
	data.Set("updated_at", time.Now())
	if patch.Status != nil {
		data.Set("status", *patch.Status)
	}
	if patch.Stdout != nil {
		data.Set("stdout", *patch.Stdout)
	}
	if patch.Stderr != nil {
		data.Set("stderr", *patch.Stderr)
	}
	if patch.ExecutionTimeMs != nil {
		data.Set("execution_time_ms", *patch.ExecutionTimeMs)
	}
	if patch.MemoryUsageKB != nil {
		data.Set("memory_usage_kb", *patch.MemoryUsageKB)
	}

	query, args := querybuilder.NewQueryBuilder("").
		Update("execution_results", data).
		Where("execution_id = ?", executionID).
		And("status NOT IN ('completed', 'failed', 'timeout')").
		Build()
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update execution result", "executionId", executionID, "error", err)
		return fmt.Errorf("failed to update execution result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// No row updated: either the id is unknown or the row is terminal.
	if _, err := r.Get(ctx, executionID); err != nil {
		return err
	}
	return errs.InvalidStateTransition
}
