package grading

import (
	"context"

	"gitlab.com/bluapt.net/internal/domain"
)

type IGradingService interface {
	// Grade runs a submission against a set of test cases, one sandboxed
	// execution per case, and tallies passes. Cases are independent; a
	// crash or timeout on one case fails that case only.
	Grade(ctx context.Context, code string, lang domain.Language, cases []*domain.TestCase) (*domain.GradingReport, error)
}
