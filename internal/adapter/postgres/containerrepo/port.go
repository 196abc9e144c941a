// package containerrepo persists sandbox container lifecycle records
package containerrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
)

var _ secondary.ContainerRecordRepository = (*ContainerRepository)(nil)

// ContainerRepository implements the ContainerRecordRepository interface
// with PostgreSQL
type ContainerRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewContainerRepository creates a new PostgreSQL container record repository
func NewContainerRepository(db *sqlx.DB, logger primary.Logger) *ContainerRepository {
	return &ContainerRepository{
		db:     db,
		logger: logger,
	}
}

// SaveContainer persists a new container record
func (r *ContainerRepository) SaveContainer(ctx context.Context, record *domain.SandboxContainer) error {
	query := `
		INSERT INTO sandbox_containers (id, container_id, execution_id, language, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.ContainerID,
		record.ExecutionID,
		record.Language,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save container record", "containerId", record.ContainerID, "error", err)
		return fmt.Errorf("failed to save container record: %w", err)
	}
	return nil
}

// UpdateContainerStatus advances a container record's lifecycle state
func (r *ContainerRepository) UpdateContainerStatus(ctx context.Context, containerID string, status domain.ContainerStatus) error {
	query := `
		UPDATE sandbox_containers
		SET status = $2, updated_at = $3
		WHERE container_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, containerID, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update container record", "containerId", containerID, "error", err)
		return fmt.Errorf("failed to update container record: %w", err)
	}
	return nil
}
