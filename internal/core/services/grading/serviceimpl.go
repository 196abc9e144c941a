package grading

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/services/execution"
	"gitlab.com/bluapt.net/internal/domain"
)

var _ IGradingService = (*GradingService)(nil)

// GradingService implements test-case grading on top of the sandbox runner
type GradingService struct {
	executions execution.IExecutionService
	logger     primary.Logger
}

// NewGradingService creates a new grading service
func NewGradingService(executions execution.IExecutionService, logger primary.Logger) *GradingService {
	return &GradingService{
		executions: executions,
		logger:     logger,
	}
}

// Grade runs the code once per test case with the case input on stdin and
// compares normalized output for exact equality.
func (s *GradingService) Grade(ctx context.Context, code string, lang domain.Language, cases []*domain.TestCase) (*domain.GradingReport, error) {
	report := &domain.GradingReport{
		Total:   len(cases),
		PerCase: make([]domain.TestCaseResult, 0, len(cases)),
	}

	for _, tc := range cases {
		outcome, err := s.executions.Execute(ctx, domain.ExecutionRequest{
			ExecutionID: uuid.New(),
			Code:        code,
			Language:    lang,
			Stdin:       tc.Input,
		})

		caseResult := domain.TestCaseResult{
			Input:    tc.Input,
			Expected: tc.ExpectedOutput,
			IsHidden: tc.IsHidden,
		}

		switch {
		case err != nil:
			s.logger.Warn("Test case execution failed", "testCaseId", tc.ID, "error", err)
			if outcome != nil {
				caseResult.Actual = outcome.Stderr
			}
		case outcome.Status != domain.ExecutionStatusCompleted:
			s.logger.Debug("Test case did not complete", "testCaseId", tc.ID, "status", outcome.Status)
			caseResult.Actual = outcome.Stdout
		default:
			caseResult.Actual = outcome.Stdout
			caseResult.Passed = NormalizeOutput(outcome.Stdout) == NormalizeOutput(tc.ExpectedOutput)
		}

		if caseResult.Passed {
			report.Passed++
		}
		report.PerCase = append(report.PerCase, caseResult)
	}

	return report, nil
}

// NormalizeOutput prepares program output for exact comparison: CRLF
// becomes LF, trailing whitespace is stripped from every line, and
// trailing newlines are dropped. No semantic or numeric comparison.
func NormalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
