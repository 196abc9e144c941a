package errs

import "errors"

var (
	UnsupportedLanguage    = errors.New("unsupported language")
	InvalidInput           = errors.New("invalid input")
	ProvisioningFailure    = errors.New("failed to provision sandbox")
	SandboxTimeout         = errors.New("sandbox wall-clock limit exceeded")
	InvalidStateTransition = errors.New("execution result is already terminal")
	ExecutionNotFound      = errors.New("execution result not found")
	SubmissionNotFound     = errors.New("code submission not found")
	DetectionNotFound      = errors.New("no plagiarism detection recorded for submission")
)
