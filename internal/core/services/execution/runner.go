package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
)

const (
	sourceFilePrefix = "program"
	stdinFileName    = "input.txt"
)

type sandboxReport struct {
	Status          domain.ExecutionStatus
	Stdout          string
	Stderr          string
	ExecutionTimeMs float64
	MemoryUsageKB   int64
}

func failedReport(err error) *sandboxReport {
	return &sandboxReport{
		Status: domain.ExecutionStatusFailed,
		Stderr: err.Error(),
	}
}

// runSandbox materializes the code into a scratch directory, runs it in a
// container and collects output and resource usage. The scratch directory
// and the container are removed on every exit path; a sandbox container
// record always reaches the removed state before this returns.
func (s *ExecutionService) runSandbox(
	ctx context.Context,
	executionID uuid.UUID,
	code string,
	stdin string,
	lang domain.Language,
	profile domain.LanguageProfile,
	timeout time.Duration,
) *sandboxReport {
	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "sandbox-")
	if err != nil {
		return failedReport(fmt.Errorf("%w: %v", errs.ProvisioningFailure, err))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			s.logger.Warn("Failed to remove sandbox workspace", "workDir", workDir, "error", err)
		}
	}()

	sourceName := sourceFilePrefix + "." + profile.SourceExtension
	if err := os.WriteFile(filepath.Join(workDir, sourceName), []byte(code), 0o644); err != nil {
		return failedReport(fmt.Errorf("%w: %v", errs.ProvisioningFailure, err))
	}

	command := profile.RunCommand
	if stdin != "" {
		if err := os.WriteFile(filepath.Join(workDir, stdinFileName), []byte(stdin), 0o644); err != nil {
			return failedReport(fmt.Errorf("%w: %v", errs.ProvisioningFailure, err))
		}
		command = fmt.Sprintf("%s < /code/%s", command, stdinFileName)
	}

	containerID, err := s.runtime.CreateContainer(ctx, secondary.ContainerSpec{
		Image:            profile.Image,
		Command:          []string{"sh", "-c", command},
		HostDir:          workDir,
		MemoryLimitBytes: profile.MemoryLimitBytes,
	})
	if err != nil {
		return failedReport(fmt.Errorf("%w: %v", errs.ProvisioningFailure, err))
	}

	record := domain.NewSandboxContainer(containerID, executionID, lang)
	if err := s.containers.SaveContainer(ctx, record); err != nil {
		s.logger.Warn("Failed to record sandbox container", "containerId", containerID, "error", err)
	}

	defer func() {
		// Removal must happen regardless of how the run ended. Cleanup
		// uses a fresh context so a caller deadline cannot leak a container.
		cleanupCtx := context.Background()
		if err := s.runtime.RemoveContainer(cleanupCtx, containerID); err != nil {
			s.logger.Error("Failed to remove sandbox container", "containerId", containerID, "error", err)
		}
		if err := s.containers.UpdateContainerStatus(cleanupCtx, containerID, domain.ContainerStatusRemoved); err != nil {
			s.logger.Warn("Failed to update container record", "containerId", containerID, "error", err)
		}
	}()

	started := time.Now()
	if err := s.runtime.StartContainer(ctx, containerID); err != nil {
		return failedReport(fmt.Errorf("%w: %v", errs.ProvisioningFailure, err))
	}
	s.updateContainerStatus(ctx, containerID, domain.ContainerStatusRunning)

	status := domain.ExecutionStatusCompleted
	waitErr := s.runtime.WaitContainer(ctx, containerID, timeout)
	switch {
	case errors.Is(waitErr, errs.SandboxTimeout):
		status = domain.ExecutionStatusTimeout
		if err := s.runtime.StopContainer(context.Background(), containerID); err != nil {
			s.logger.Error("Failed to stop timed-out container", "containerId", containerID, "error", err)
		}
	case waitErr != nil:
		status = domain.ExecutionStatusFailed
	}
	elapsed := time.Since(started)

	// Collection happens on a background context so partial output
	// survives a caller deadline that fired during the wait.
	collectCtx := context.Background()
	stdout, stderr, logErr := s.runtime.ContainerLogs(collectCtx, containerID)
	if logErr != nil {
		s.logger.Warn("Failed to collect container logs", "containerId", containerID, "error", logErr)
	}
	if status == domain.ExecutionStatusFailed && stderr == "" && waitErr != nil {
		stderr = waitErr.Error()
	}

	memoryKB, memErr := s.runtime.ContainerMemoryUsageKB(collectCtx, containerID)
	if memErr != nil {
		s.logger.Debug("Failed to collect container memory stats", "containerId", containerID, "error", memErr)
	}

	s.updateContainerStatus(collectCtx, containerID, domain.ContainerStatusExited)

	return &sandboxReport{
		Status:          status,
		Stdout:          stdout,
		Stderr:          stderr,
		ExecutionTimeMs: float64(elapsed.Milliseconds()),
		MemoryUsageKB:   memoryKB,
	}
}

func (s *ExecutionService) updateContainerStatus(ctx context.Context, containerID string, status domain.ContainerStatus) {
	if err := s.containers.UpdateContainerStatus(ctx, containerID, status); err != nil {
		s.logger.Warn("Failed to update container record", "containerId", containerID, "status", status, "error", err)
	}
}
