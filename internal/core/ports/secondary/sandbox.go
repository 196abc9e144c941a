package secondary

import (
	"context"
	"time"
)

// ContainerSpec describes the isolated environment requested for one run.
// The runtime is expected to disable networking, cap memory, and mount
// HostDir read-only at /code regardless of the submitted program.
type ContainerSpec struct {
	Image            string
	Command          []string
	HostDir          string
	MemoryLimitBytes int64
}

// ContainerRuntime is the environment-provisioning port. Implementations
// own the container engine client; the execution service owns the
// lifecycle ordering and the cleanup guarantee built on top of it.
type ContainerRuntime interface {
	// CreateContainer provisions a container and returns its engine id
	CreateContainer(ctx context.Context, spec ContainerSpec) (string, error)

	// StartContainer starts a created container
	StartContainer(ctx context.Context, containerID string) error

	// WaitContainer blocks until the container exits or the timeout
	// elapses, returning errs.SandboxTimeout on expiry.
	WaitContainer(ctx context.Context, containerID string, timeout time.Duration) error

	// StopContainer force-terminates a running container
	StopContainer(ctx context.Context, containerID string) error

	// ContainerLogs returns captured stdout and stderr
	ContainerLogs(ctx context.Context, containerID string) (string, string, error)

	// ContainerMemoryUsageKB returns the container's peak memory usage
	ContainerMemoryUsageKB(ctx context.Context, containerID string) (int64, error)

	// RemoveContainer removes the container and its filesystem
	RemoveContainer(ctx context.Context, containerID string) error

	// EnsureImage pulls the image when it is not present locally
	EnsureImage(ctx context.Context, image string) error
}
