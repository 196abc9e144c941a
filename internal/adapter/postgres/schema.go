// package postgres holds the shared schema bootstrap for the execution core
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS execution_results (
		id UUID PRIMARY KEY,
		execution_id UUID NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		stdout TEXT NOT NULL DEFAULT '',
		stderr TEXT NOT NULL DEFAULT '',
		execution_time_ms NUMERIC(10,2),
		memory_usage_kb BIGINT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sandbox_containers (
		id UUID PRIMARY KEY,
		container_id VARCHAR(64) NOT NULL,
		execution_id UUID NOT NULL,
		language VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sandbox_containers_container_id ON sandbox_containers (container_id)`,
	`CREATE TABLE IF NOT EXISTS code_submissions (
		id UUID PRIMARY KEY,
		candidate_id UUID NOT NULL,
		question_id UUID NOT NULL,
		code_content TEXT NOT NULL,
		language VARCHAR(50) NOT NULL,
		plagiarism_score NUMERIC(5,2),
		submitted_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_code_submissions_question_language ON code_submissions (question_id, language)`,
	`CREATE TABLE IF NOT EXISTS plagiarism_results (
		id UUID PRIMARY KEY,
		code_submission_id UUID NOT NULL UNIQUE,
		plagiarism_score NUMERIC(5,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS similar_submissions (
		id UUID PRIMARY KEY,
		plagiarism_result_id UUID NOT NULL REFERENCES plagiarism_results (id) ON DELETE CASCADE,
		candidate_id UUID NOT NULL,
		similarity_score NUMERIC(5,2) NOT NULL,
		matching_lines JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the execution core tables when they do not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
