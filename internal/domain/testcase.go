package domain

import "github.com/google/uuid"

// TestCase represents a test case for code execution. Owned by the
// question; the grading adapter consumes but never mutates it.
type TestCase struct {
	ID             uuid.UUID
	Input          string
	ExpectedOutput string
	IsHidden       bool
}
