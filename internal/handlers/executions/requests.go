package executions

import "gitlab.com/bluapt.net/internal/domain"

// ExecuteRequest represents a request to run code in the sandbox
type ExecuteRequest struct {
	ExecutionID    string            `json:"executionId,omitempty"`
	Code           string            `json:"code"`
	Language       string            `json:"language"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
	TestCases      []TestCaseRequest `json:"testCases,omitempty"`
}

// TestCaseRequest represents one test case attached to a request
type TestCaseRequest struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

// GradeRequest represents a request to grade code against test cases
type GradeRequest struct {
	Code      string            `json:"code"`
	Language  string            `json:"language"`
	TestCases []TestCaseRequest `json:"testCases"`
}

// ExecuteResponse represents the outcome of an execution request
type ExecuteResponse struct {
	Outcome *domain.ExecutionOutcome `json:"outcome"`
	Grading *domain.GradingReport    `json:"grading,omitempty"`
}

func toTestCases(reqs []TestCaseRequest) []*domain.TestCase {
	cases := make([]*domain.TestCase, 0, len(reqs))
	for _, tc := range reqs {
		cases = append(cases, &domain.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			IsHidden:       tc.IsHidden,
		})
	}
	return cases
}
