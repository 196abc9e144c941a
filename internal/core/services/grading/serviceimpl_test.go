package grading_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/bluapt.net/internal/core/services/grading"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/static/errs"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

// scriptedExecutor replays a canned outcome per stdin value, standing in
// for the sandbox runner.
type scriptedExecutor struct {
	byStdin map[string]*domain.ExecutionOutcome
	errs    map[string]error
	seenIDs []uuid.UUID
}

func (f *scriptedExecutor) Execute(_ context.Context, req domain.ExecutionRequest) (*domain.ExecutionOutcome, error) {
	f.seenIDs = append(f.seenIDs, req.ExecutionID)
	if err, ok := f.errs[req.Stdin]; ok {
		return nil, err
	}
	out := f.byStdin[req.Stdin]
	out.ExecutionID = req.ExecutionID
	return out, nil
}

func (f *scriptedExecutor) GetOutcome(_ context.Context, executionID uuid.UUID) (*domain.ExecutionOutcome, error) {
	return nil, errs.ExecutionNotFound
}

func completed(stdout string) *domain.ExecutionOutcome {
	return &domain.ExecutionOutcome{Status: domain.ExecutionStatusCompleted, Stdout: stdout}
}

func TestGradeTalliesPassedCases(t *testing.T) {
	executor := &scriptedExecutor{byStdin: map[string]*domain.ExecutionOutcome{
		"1 2": completed("3\n"),
		"4 5": completed("9\n"),
		"6 7": completed("12\n"), // wrong answer
	}}
	svc := grading.NewGradingService(executor, nopLogger{})

	cases := []*domain.TestCase{
		{ID: uuid.New(), Input: "1 2", ExpectedOutput: "3"},
		{ID: uuid.New(), Input: "4 5", ExpectedOutput: "9"},
		{ID: uuid.New(), Input: "6 7", ExpectedOutput: "13", IsHidden: true},
	}

	report, err := svc.Grade(context.Background(), "code", domain.LanguagePython, cases)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.PerCase, 3)

	assert.True(t, report.PerCase[0].Passed)
	assert.True(t, report.PerCase[1].Passed)
	assert.False(t, report.PerCase[2].Passed)
	assert.Equal(t, "12\n", report.PerCase[2].Actual)
	assert.Equal(t, "13", report.PerCase[2].Expected)
	assert.True(t, report.PerCase[2].IsHidden)
}

func TestGradeUsesFreshExecutionPerCase(t *testing.T) {
	executor := &scriptedExecutor{byStdin: map[string]*domain.ExecutionOutcome{
		"a": completed("1"),
		"b": completed("2"),
	}}
	svc := grading.NewGradingService(executor, nopLogger{})

	_, err := svc.Grade(context.Background(), "code", domain.LanguagePython, []*domain.TestCase{
		{ID: uuid.New(), Input: "a", ExpectedOutput: "1"},
		{ID: uuid.New(), Input: "b", ExpectedOutput: "2"},
	})
	require.NoError(t, err)

	require.Len(t, executor.seenIDs, 2)
	assert.NotEqual(t, executor.seenIDs[0], executor.seenIDs[1])
	assert.NotEqual(t, uuid.Nil, executor.seenIDs[0])
}

func TestGradeFailedCaseDoesNotAbortRun(t *testing.T) {
	executor := &scriptedExecutor{
		byStdin: map[string]*domain.ExecutionOutcome{
			"ok": completed("fine"),
			"timeout": {
				Status: domain.ExecutionStatusTimeout,
				Stdout: "partial",
			},
		},
		errs: map[string]error{"boom": errs.ProvisioningFailure},
	}
	svc := grading.NewGradingService(executor, nopLogger{})

	report, err := svc.Grade(context.Background(), "code", domain.LanguageJavaScript, []*domain.TestCase{
		{ID: uuid.New(), Input: "boom", ExpectedOutput: "x"},
		{ID: uuid.New(), Input: "timeout", ExpectedOutput: "partial"},
		{ID: uuid.New(), Input: "ok", ExpectedOutput: "fine"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Passed)
	assert.False(t, report.PerCase[0].Passed)
	// a non-completed run never passes, even with matching output
	assert.False(t, report.PerCase[1].Passed)
	assert.True(t, report.PerCase[2].Passed)
}

func TestGradeEmptyCaseList(t *testing.T) {
	svc := grading.NewGradingService(&scriptedExecutor{}, nopLogger{})
	report, err := svc.Grade(context.Background(), "code", domain.LanguagePython, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.PerCase)
}

func TestNormalizeOutput(t *testing.T) {
	assert.Equal(t, "a\nb", grading.NormalizeOutput("a\r\nb\r\n"))
	assert.Equal(t, "a\nb", grading.NormalizeOutput("a  \nb\t\n\n"))
	assert.Equal(t, "", grading.NormalizeOutput("\n\n"))
	assert.Equal(t, "a\n\nb", grading.NormalizeOutput("a\n\nb"))
	// internal leading whitespace is significant
	assert.NotEqual(t, grading.NormalizeOutput("  a"), grading.NormalizeOutput("a"))
}
