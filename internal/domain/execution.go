package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the lifecycle state of an execution
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusTimeout   ExecutionStatus = "timeout"
)

// Terminal reports whether the status permits no further mutation.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusTimeout:
		return true
	default:
		return false
	}
}

// ExecutionResult is the durable record of one sandboxed execution,
// keyed by a caller-supplied idempotent execution id.
type ExecutionResult struct {
	ID              uuid.UUID       `db:"id"`
	ExecutionID     uuid.UUID       `db:"execution_id"`
	Status          ExecutionStatus `db:"status"`
	Stdout          string          `db:"stdout"`
	Stderr          string          `db:"stderr"`
	ExecutionTimeMs *float64        `db:"execution_time_ms"`
	MemoryUsageKB   *int64          `db:"memory_usage_kb"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// NewExecutionResult creates a pending result for an execution id
func NewExecutionResult(executionID uuid.UUID) *ExecutionResult {
	now := time.Now()
	return &ExecutionResult{
		ID:          uuid.New(),
		ExecutionID: executionID,
		Status:      ExecutionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Outcome projects the persisted row into the caller-facing outcome.
func (r *ExecutionResult) Outcome() *ExecutionOutcome {
	out := &ExecutionOutcome{
		ExecutionID: r.ExecutionID,
		Status:      r.Status,
		Stdout:      r.Stdout,
		Stderr:      r.Stderr,
	}
	if r.ExecutionTimeMs != nil {
		out.ExecutionTimeMs = *r.ExecutionTimeMs
	}
	if r.MemoryUsageKB != nil {
		out.MemoryUsageKB = *r.MemoryUsageKB
	}
	return out
}

// ExecutionPatch is a partial update applied to a non-terminal result row.
type ExecutionPatch struct {
	Status          *ExecutionStatus
	Stdout          *string
	Stderr          *string
	ExecutionTimeMs *float64
	MemoryUsageKB   *int64
}

// ExecutionOutcome is what callers of the sandbox runner receive.
type ExecutionOutcome struct {
	ExecutionID     uuid.UUID       `json:"executionId"`
	Status          ExecutionStatus `json:"status"`
	Stdout          string          `json:"stdout"`
	Stderr          string          `json:"stderr"`
	ExecutionTimeMs float64         `json:"executionTimeMs"`
	MemoryUsageKB   int64           `json:"memoryUsageKb"`
}

// ExecutionRequest is the transient input to the sandbox runner. Code is
// never retained once the run completes.
type ExecutionRequest struct {
	ExecutionID uuid.UUID
	Code        string
	Language    Language
	Stdin       string
	Timeout     time.Duration
}

// ContainerStatus represents the lifecycle state of a sandbox container
type ContainerStatus string

const (
	ContainerStatusCreated ContainerStatus = "created"
	ContainerStatusRunning ContainerStatus = "running"
	ContainerStatusExited  ContainerStatus = "exited"
	ContainerStatusRemoved ContainerStatus = "removed"
)

// SandboxContainer tracks one container used for an execution. A row must
// always reach "removed" before the execution call returns.
type SandboxContainer struct {
	ID          uuid.UUID       `db:"id"`
	ContainerID string          `db:"container_id"`
	ExecutionID uuid.UUID       `db:"execution_id"`
	Language    Language        `db:"language"`
	Status      ContainerStatus `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// NewSandboxContainer creates a container record in the created state
func NewSandboxContainer(containerID string, executionID uuid.UUID, lang Language) *SandboxContainer {
	now := time.Now()
	return &SandboxContainer{
		ID:          uuid.New(),
		ContainerID: containerID,
		ExecutionID: executionID,
		Language:    lang,
		Status:      ContainerStatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
