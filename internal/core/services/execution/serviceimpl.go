package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/config"
	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
)

var _ IExecutionService = (*ExecutionService)(nil)

// ExecutionService implements the sandbox runner. The execution result
// row is the only state shared across call boundaries; the container and
// its workspace belong exclusively to the single in-flight call that
// holds the execution lock.
type ExecutionService struct {
	results    secondary.ExecutionResultRepository
	containers secondary.ContainerRecordRepository
	runtime    secondary.ContainerRuntime
	locks      secondary.ExecutionLock
	logger     primary.Logger
	cfg        *config.SandboxConfig
}

// NewExecutionService creates a new execution service
func NewExecutionService(
	results secondary.ExecutionResultRepository,
	containers secondary.ContainerRecordRepository,
	runtime secondary.ContainerRuntime,
	locks secondary.ExecutionLock,
	logger primary.Logger,
	cfg *config.SandboxConfig,
) *ExecutionService {
	return &ExecutionService{
		results:    results,
		containers: containers,
		runtime:    runtime,
		locks:      locks,
		logger:     logger,
		cfg:        cfg,
	}
}

// Execute runs a submission inside an isolated container and records the
// status transitions pending -> running -> completed/failed/timeout.
func (s *ExecutionService) Execute(ctx context.Context, req domain.ExecutionRequest) (*domain.ExecutionOutcome, error) {
	executionID := req.ExecutionID
	if executionID == uuid.Nil {
		executionID = uuid.New()
	}

	result, created, err := s.results.GetOrCreate(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create execution result: %w", err)
	}
	if result.Status.Terminal() {
		s.logger.Debug("Replaying terminal execution", "executionId", executionID, "status", result.Status)
		return result.Outcome(), nil
	}
	if created {
		s.logger.Info("Execution accepted", "executionId", executionID, "language", req.Language)
	}

	profile, err := domain.ProfileFor(req.Language)
	if err != nil {
		return s.reject(ctx, executionID, err)
	}
	if len(req.Code) > s.cfg.MaxCodeBytes {
		return s.reject(ctx, executionID,
			fmt.Errorf("%w: code size %d exceeds limit of %d bytes", errs.InvalidInput, len(req.Code), s.cfg.MaxCodeBytes))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = profile.DefaultTimeout
	}

	acquired, err := s.locks.Acquire(ctx, executionID, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire execution lock: %w", err)
	}
	if !acquired {
		// Another call owns the sandbox for this id; observe its outcome.
		return s.awaitOutcome(ctx, executionID)
	}
	defer func() {
		if err := s.locks.Release(context.Background(), executionID); err != nil {
			s.logger.Warn("Failed to release execution lock", "executionId", executionID, "error", err)
		}
	}()

	// The previous holder may have finished between the get-or-create and
	// the lock acquisition.
	result, err = s.results.Get(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read execution result: %w", err)
	}
	if result.Status.Terminal() {
		return result.Outcome(), nil
	}

	running := domain.ExecutionStatusRunning
	if err := s.results.Update(ctx, executionID, domain.ExecutionPatch{Status: &running}); err != nil {
		return nil, fmt.Errorf("failed to mark execution running: %w", err)
	}

	report := s.runSandbox(ctx, executionID, req.Code, req.Stdin, req.Language, profile, timeout)

	patch := domain.ExecutionPatch{
		Status:          &report.Status,
		Stdout:          &report.Stdout,
		Stderr:          &report.Stderr,
		ExecutionTimeMs: &report.ExecutionTimeMs,
		MemoryUsageKB:   &report.MemoryUsageKB,
	}
	if err := s.results.Update(ctx, executionID, patch); err != nil {
		return nil, fmt.Errorf("failed to persist execution outcome: %w", err)
	}

	s.logger.Info("Execution finished",
		"executionId", executionID,
		"status", report.Status,
		"executionTimeMs", report.ExecutionTimeMs)

	return &domain.ExecutionOutcome{
		ExecutionID:     executionID,
		Status:          report.Status,
		Stdout:          report.Stdout,
		Stderr:          report.Stderr,
		ExecutionTimeMs: report.ExecutionTimeMs,
		MemoryUsageKB:   report.MemoryUsageKB,
	}, nil
}

// GetOutcome retrieves the persisted outcome for an execution id
func (s *ExecutionService) GetOutcome(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionOutcome, error) {
	result, err := s.results.Get(ctx, executionID)
	if err != nil {
		return nil, err
	}
	return result.Outcome(), nil
}

// reject records a validation failure on the result row before any
// environment is provisioned and surfaces the typed cause to the caller.
func (s *ExecutionService) reject(ctx context.Context, executionID uuid.UUID, cause error) (*domain.ExecutionOutcome, error) {
	failed := domain.ExecutionStatusFailed
	diagnostic := cause.Error()
	if err := s.results.Update(ctx, executionID, domain.ExecutionPatch{Status: &failed, Stderr: &diagnostic}); err != nil {
		s.logger.Error("Failed to record rejected execution", "executionId", executionID, "error", err)
	}
	return &domain.ExecutionOutcome{
		ExecutionID: executionID,
		Status:      failed,
		Stderr:      diagnostic,
	}, cause
}

// awaitOutcome polls the result store until the in-flight holder for this
// execution id reaches a terminal state.
func (s *ExecutionService) awaitOutcome(ctx context.Context, executionID uuid.UUID) (*domain.ExecutionOutcome, error) {
	s.logger.Debug("Awaiting in-flight execution", "executionId", executionID)

	ticker := time.NewTicker(s.cfg.AwaitPollInterval)
	defer ticker.Stop()

	for {
		result, err := s.results.Get(ctx, executionID)
		if err != nil && !errors.Is(err, errs.ExecutionNotFound) {
			return nil, fmt.Errorf("failed to poll execution result: %w", err)
		}
		if err == nil && result.Status.Terminal() {
			return result.Outcome(), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
