package domain

// TestCaseResult records the outcome of grading a single test case.
// Input and Expected for hidden cases must be stripped before any
// candidate-facing response; that contract belongs to the caller.
type TestCaseResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
	IsHidden bool   `json:"isHidden"`
}

// GradingReport is the result of running a submission against its
// question's test cases.
type GradingReport struct {
	Passed  int              `json:"passed"`
	Total   int              `json:"total"`
	PerCase []TestCaseResult `json:"perCase"`
}
