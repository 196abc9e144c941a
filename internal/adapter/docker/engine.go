// package docker provides the container engine implementation of the
// ContainerRuntime port.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/static/errs"
)

// pidsLimit caps processes per sandbox to stop fork bombs
const pidsLimit = int64(64)

var _ secondary.ContainerRuntime = (*Engine)(nil)

// Engine implements the ContainerRuntime port with the Docker SDK. The
// client is created once at process start and injected here; Close is
// called at process stop.
type Engine struct {
	cli    *client.Client
	logger primary.Logger
}

// NewEngine creates a container engine from the environment's Docker endpoint
func NewEngine(logger primary.Logger) (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Engine{cli: cli, logger: logger}, nil
}

// Close releases the underlying client
func (e *Engine) Close() error {
	return e.cli.Close()
}

// CreateContainer provisions a hardened container: no network, capped
// memory with swap disabled, dropped capabilities, and the workspace
// mounted read-only at /code.
func (e *Engine) CreateContainer(ctx context.Context, spec secondary.ContainerSpec) (string, error) {
	pids := pidsLimit
	resp, err := e.cli.ContainerCreate(ctx, &container.Config{
		Image:           spec.Image,
		Cmd:             spec.Command,
		WorkingDir:      "/code",
		NetworkDisabled: true,
		Tty:             false,
	}, &container.HostConfig{
		Binds: []string{spec.HostDir + ":/code:ro"},
		Resources: container.Resources{
			Memory:     spec.MemoryLimitBytes,
			MemorySwap: spec.MemoryLimitBytes,
			PidsLimit:  &pids,
		},
		NetworkMode: "none",
		CapDrop:     []string{"ALL"},
		SecurityOpt: []string{"no-new-privileges"},
	}, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	e.logger.Debug("Sandbox container created", "containerId", resp.ID, "image", spec.Image)
	return resp.ID, nil
}

// StartContainer starts a created container
func (e *Engine) StartContainer(ctx context.Context, containerID string) error {
	if err := e.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// WaitContainer blocks until the container exits on its own or the
// wall-clock timeout elapses, returning errs.SandboxTimeout on expiry.
func (e *Engine) WaitContainer(ctx context.Context, containerID string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	statusCh, errCh := e.cli.ContainerWait(waitCtx, containerID, container.WaitConditionNotRunning)
	select {
	case <-statusCh:
		return nil
	case err := <-errCh:
		if errors.Is(err, context.DeadlineExceeded) || waitCtx.Err() == context.DeadlineExceeded {
			return errs.SandboxTimeout
		}
		return fmt.Errorf("failed to wait for container: %w", err)
	}
}

// StopContainer force-terminates a container without a grace period
func (e *Engine) StopContainer(ctx context.Context, containerID string) error {
	immediate := 0
	if err := e.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &immediate}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// ContainerLogs returns the demultiplexed stdout and stderr streams
func (e *Engine) ContainerLogs(ctx context.Context, containerID string) (string, string, error) {
	reader, err := e.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to read container logs: %w", err)
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return "", "", fmt.Errorf("failed to demultiplex container logs: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

// ContainerMemoryUsageKB reads the container's memory accounting
func (e *Engine) ContainerMemoryUsageKB(ctx context.Context, containerID string) (int64, error) {
	stats, err := e.cli.ContainerStatsOneShot(ctx, containerID)
	if err != nil {
		return 0, fmt.Errorf("failed to read container stats: %w", err)
	}
	defer stats.Body.Close()

	var payload struct {
		MemoryStats struct {
			Usage    int64 `json:"usage"`
			MaxUsage int64 `json:"max_usage"`
		} `json:"memory_stats"`
	}
	if err := json.NewDecoder(stats.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode container stats: %w", err)
	}

	usage := payload.MemoryStats.MaxUsage
	if usage == 0 {
		usage = payload.MemoryStats.Usage
	}
	return usage / 1024, nil
}

// RemoveContainer removes the container and its filesystem
func (e *Engine) RemoveContainer(ctx context.Context, containerID string) error {
	if err := e.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// EnsureImage pulls an image when it is not already present locally
func (e *Engine) EnsureImage(ctx context.Context, img string) error {
	if _, _, err := e.cli.ImageInspectWithRaw(ctx, img); err == nil {
		return nil
	}

	e.logger.Info("Pulling sandbox image", "image", img)
	reader, err := e.cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", img, err)
	}
	defer reader.Close()

	// The pull only completes once the reader is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to finish pulling image %s: %w", img, err)
	}

	e.logger.Info("Sandbox image ready", "image", img)
	return nil
}
