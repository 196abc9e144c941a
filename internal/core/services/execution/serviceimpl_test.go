package execution_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/bluapt.net/internal/config"
	"gitlab.com/bluapt.net/internal/core/ports/secondary"
	"gitlab.com/bluapt.net/internal/core/services/execution"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

// memResults mirrors the terminal-state guard of the persistent store.
type memResults struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.ExecutionResult
}

func newMemResults() *memResults {
	return &memResults{rows: map[uuid.UUID]*domain.ExecutionResult{}}
}

func (m *memResults) GetOrCreate(_ context.Context, executionID uuid.UUID) (*domain.ExecutionResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[executionID]; ok {
		cp := *row
		return &cp, false, nil
	}
	row := domain.NewExecutionResult(executionID)
	m.rows[executionID] = row
	cp := *row
	return &cp, true, nil
}

func (m *memResults) Get(_ context.Context, executionID uuid.UUID) (*domain.ExecutionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[executionID]
	if !ok {
		return nil, errs.ExecutionNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memResults) Update(_ context.Context, executionID uuid.UUID, patch domain.ExecutionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[executionID]
	if !ok {
		return errs.ExecutionNotFound
	}
	if row.Status.Terminal() {
		return errs.InvalidStateTransition
	}
	if patch.Status != nil {
		row.Status = *patch.Status
	}
	if patch.Stdout != nil {
		row.Stdout = *patch.Stdout
	}
	if patch.Stderr != nil {
		row.Stderr = *patch.Stderr
	}
	if patch.ExecutionTimeMs != nil {
		row.ExecutionTimeMs = patch.ExecutionTimeMs
	}
	if patch.MemoryUsageKB != nil {
		row.MemoryUsageKB = patch.MemoryUsageKB
	}
	row.UpdatedAt = time.Now()
	return nil
}

type memContainers struct {
	mu       sync.Mutex
	saved    []*domain.SandboxContainer
	statuses map[string][]domain.ContainerStatus
}

func newMemContainers() *memContainers {
	return &memContainers{statuses: map[string][]domain.ContainerStatus{}}
}

func (m *memContainers) SaveContainer(_ context.Context, record *domain.SandboxContainer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, record)
	return nil
}

func (m *memContainers) UpdateContainerStatus(_ context.Context, containerID string, status domain.ContainerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[containerID] = append(m.statuses[containerID], status)
	return nil
}

// scriptedRuntime drives the sandbox through canned responses and records
// every lifecycle call.
type scriptedRuntime struct {
	mu sync.Mutex

	createErr error
	startErr  error
	waitErr   error
	stdout    string
	stderr    string
	memoryKB  int64

	createdSpec secondary.ContainerSpec
	created     []string
	started     []string
	stopped     []string
	removed     []string
	hostDirSeen string
	sourceSeen  string
	stdinSeen   string
}

func (r *scriptedRuntime) CreateContainer(_ context.Context, spec secondary.ContainerSpec) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.createdSpec = spec
	r.hostDirSeen = spec.HostDir
	entries, err := os.ReadDir(spec.HostDir)
	if err == nil {
		for _, e := range entries {
			body, _ := os.ReadFile(spec.HostDir + "/" + e.Name())
			if e.Name() == "input.txt" {
				r.stdinSeen = string(body)
			} else {
				r.sourceSeen = string(body)
			}
		}
	}
	id := uuid.NewString()
	r.created = append(r.created, id)
	return id, nil
}

func (r *scriptedRuntime) StartContainer(_ context.Context, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, containerID)
	return nil
}

func (r *scriptedRuntime) WaitContainer(_ context.Context, containerID string, timeout time.Duration) error {
	return r.waitErr
}

func (r *scriptedRuntime) StopContainer(_ context.Context, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, containerID)
	return nil
}

func (r *scriptedRuntime) ContainerLogs(_ context.Context, containerID string) (string, string, error) {
	return r.stdout, r.stderr, nil
}

func (r *scriptedRuntime) ContainerMemoryUsageKB(_ context.Context, containerID string) (int64, error) {
	return r.memoryKB, nil
}

func (r *scriptedRuntime) RemoveContainer(_ context.Context, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, containerID)
	return nil
}

func (r *scriptedRuntime) EnsureImage(_ context.Context, image string) error { return nil }

type memLock struct {
	mu       sync.Mutex
	held     map[uuid.UUID]bool
	denyAll  bool
	released []uuid.UUID
}

func newMemLock() *memLock { return &memLock{held: map[uuid.UUID]bool{}} }

func (l *memLock) Acquire(_ context.Context, executionID uuid.UUID, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyAll || l.held[executionID] {
		return false, nil
	}
	l.held[executionID] = true
	return true, nil
}

func (l *memLock) Release(_ context.Context, executionID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, executionID)
	l.released = append(l.released, executionID)
	return nil
}

func testConfig(t *testing.T) *config.SandboxConfig {
	return &config.SandboxConfig{
		MaxCodeBytes:      1024,
		WorkDir:           t.TempDir(),
		LockTTL:           time.Minute,
		AwaitPollInterval: 5 * time.Millisecond,
	}
}

type fixture struct {
	svc        *execution.ExecutionService
	results    *memResults
	containers *memContainers
	runtime    *scriptedRuntime
	locks      *memLock
}

func newFixture(t *testing.T, runtime *scriptedRuntime) *fixture {
	results := newMemResults()
	containers := newMemContainers()
	locks := newMemLock()
	return &fixture{
		svc:        execution.NewExecutionService(results, containers, runtime, locks, nopLogger{}, testConfig(t)),
		results:    results,
		containers: containers,
		runtime:    runtime,
		locks:      locks,
	}
}

func TestExecuteCompletedRun(t *testing.T) {
	runtime := &scriptedRuntime{stdout: "6\n", memoryKB: 2048}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "print(1 + 2 + 3)",
		Language:    domain.LanguagePython,
	})
	require.NoError(t, err)

	assert.Equal(t, executionID, outcome.ExecutionID)
	assert.Equal(t, domain.ExecutionStatusCompleted, outcome.Status)
	assert.Equal(t, "6\n", outcome.Stdout)
	assert.Equal(t, int64(2048), outcome.MemoryUsageKB)

	// the source file reached the mounted workspace before container start
	assert.Equal(t, "print(1 + 2 + 3)", runtime.sourceSeen)
	assert.Equal(t, "python:3.9-slim", runtime.createdSpec.Image)
	assert.Equal(t, []string{"sh", "-c", "python /code/program.py"}, runtime.createdSpec.Command)
	assert.Equal(t, int64(128*1024*1024), runtime.createdSpec.MemoryLimitBytes)

	// persisted row is terminal and matches the outcome
	row, err := f.results.Get(context.Background(), executionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, row.Status)
	assert.Equal(t, "6\n", row.Stdout)
	require.NotNil(t, row.ExecutionTimeMs)

	requireCleanedUp(t, f, runtime)
	assert.Contains(t, f.locks.released, executionID)
}

func TestExecuteFeedsStdinThroughWorkspaceFile(t *testing.T) {
	runtime := &scriptedRuntime{stdout: "ok"}
	f := newFixture(t, runtime)

	_, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: uuid.New(),
		Code:        "data = input()",
		Language:    domain.LanguagePython,
		Stdin:       "3 4\n",
	})
	require.NoError(t, err)

	assert.Equal(t, "3 4\n", runtime.stdinSeen)
	require.Len(t, runtime.createdSpec.Command, 3)
	assert.True(t, strings.HasSuffix(runtime.createdSpec.Command[2], "< /code/input.txt"))
}

func TestExecuteTimeout(t *testing.T) {
	runtime := &scriptedRuntime{waitErr: errs.SandboxTimeout, stdout: "partial"}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "while True: pass",
		Language:    domain.LanguagePython,
		Timeout:     50 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionStatusTimeout, outcome.Status)
	assert.Equal(t, "partial", outcome.Stdout)

	// the runaway container was force-stopped, then removed
	require.Len(t, runtime.stopped, 1)
	requireCleanedUp(t, f, runtime)

	row, err := f.results.Get(context.Background(), executionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusTimeout, row.Status)
}

func TestExecuteWaitFailure(t *testing.T) {
	runtime := &scriptedRuntime{waitErr: errors.New("container exited abnormally")}
	f := newFixture(t, runtime)

	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: uuid.New(),
		Code:        "raise SystemExit(1)",
		Language:    domain.LanguagePython,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Stderr, "container exited abnormally")
	requireCleanedUp(t, f, runtime)
}

func TestExecuteStartFailureStillRemovesContainer(t *testing.T) {
	runtime := &scriptedRuntime{startErr: errors.New("oci runtime error")}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "print(1)",
		Language:    domain.LanguagePython,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionStatusFailed, outcome.Status)
	requireCleanedUp(t, f, runtime)
}

func TestExecuteCreateFailure(t *testing.T) {
	runtime := &scriptedRuntime{createErr: errors.New("image not found")}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "print(1)",
		Language:    domain.LanguagePython,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Stderr, "image not found")
	assert.Empty(t, runtime.created)
	assert.Empty(t, runtime.removed)
}

func TestExecuteReplaysTerminalOutcome(t *testing.T) {
	runtime := &scriptedRuntime{stdout: "42"}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	req := domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "print(42)",
		Language:    domain.LanguagePython,
	}

	first, err := f.svc.Execute(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, first.Status)

	second, err := f.svc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Stdout, second.Stdout)
	// no second sandbox was provisioned
	assert.Len(t, runtime.created, 1)
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	runtime := &scriptedRuntime{}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "puts 'hi'",
		Language:    domain.Language("ruby"),
	})
	require.ErrorIs(t, err, errs.UnsupportedLanguage)

	assert.Equal(t, domain.ExecutionStatusFailed, outcome.Status)
	assert.Empty(t, runtime.created)

	row, getErr := f.results.Get(context.Background(), executionID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.ExecutionStatusFailed, row.Status)
	assert.NotEmpty(t, row.Stderr)
}

func TestExecuteOversizedCode(t *testing.T) {
	runtime := &scriptedRuntime{}
	f := newFixture(t, runtime)

	_, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: uuid.New(),
		Code:        strings.Repeat("a", 2048),
		Language:    domain.LanguagePython,
	})
	require.ErrorIs(t, err, errs.InvalidInput)
	assert.Empty(t, runtime.created)
}

func TestExecuteGeneratesIDWhenAbsent(t *testing.T) {
	runtime := &scriptedRuntime{stdout: "hi"}
	f := newFixture(t, runtime)

	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		Code:     "print('hi')",
		Language: domain.LanguagePython,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, outcome.ExecutionID)
}

func TestExecuteWaitsForLockHolder(t *testing.T) {
	runtime := &scriptedRuntime{}
	f := newFixture(t, runtime)
	f.locks.denyAll = true

	executionID := uuid.New()

	// simulate the lock holder finishing while this call is waiting
	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _, _ = f.results.GetOrCreate(context.Background(), executionID)
		done := domain.ExecutionStatusCompleted
		stdout := "from the other holder"
		_ = f.results.Update(context.Background(), executionID, domain.ExecutionPatch{Status: &done, Stdout: &stdout})
	}()

	outcome, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "print('hi')",
		Language:    domain.LanguagePython,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExecutionStatusCompleted, outcome.Status)
	assert.Equal(t, "from the other holder", outcome.Stdout)
	// this call never provisioned a sandbox of its own
	assert.Empty(t, runtime.created)
}

func TestExecuteLockWaitHonorsContext(t *testing.T) {
	f := newFixture(t, &scriptedRuntime{})
	f.locks.denyAll = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := f.svc.Execute(ctx, domain.ExecutionRequest{
		ExecutionID: uuid.New(),
		Code:        "print('hi')",
		Language:    domain.LanguagePython,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetOutcome(t *testing.T) {
	runtime := &scriptedRuntime{stdout: "out"}
	f := newFixture(t, runtime)

	executionID := uuid.New()
	_, err := f.svc.Execute(context.Background(), domain.ExecutionRequest{
		ExecutionID: executionID,
		Code:        "print('out')",
		Language:    domain.LanguagePython,
	})
	require.NoError(t, err)

	outcome, err := f.svc.GetOutcome(context.Background(), executionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, outcome.Status)
	assert.Equal(t, "out", outcome.Stdout)

	_, err = f.svc.GetOutcome(context.Background(), uuid.New())
	require.ErrorIs(t, err, errs.ExecutionNotFound)
}

// requireCleanedUp asserts the container and its workspace are gone and
// the container record reached the removed state.
func requireCleanedUp(t *testing.T, f *fixture, runtime *scriptedRuntime) {
	t.Helper()

	require.Len(t, runtime.created, 1)
	containerID := runtime.created[0]
	require.Equal(t, []string{containerID}, runtime.removed)

	_, err := os.Stat(runtime.hostDirSeen)
	assert.True(t, os.IsNotExist(err), "sandbox workspace should be removed")

	statuses := f.containers.statuses[containerID]
	require.NotEmpty(t, statuses)
	assert.Equal(t, domain.ContainerStatusRemoved, statuses[len(statuses)-1])

	require.Len(t, f.containers.saved, 1)
	assert.Equal(t, containerID, f.containers.saved[0].ContainerID)
}
