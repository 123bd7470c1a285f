package contract

import "errors"

var (
	ErrValidation            = errors.New("validation failed")
	ErrIncompleteApplication = errors.New("application is incomplete")
	ErrUnknownTool           = errors.New("unknown tool")
	ErrModelInvoke           = errors.New("model invoke failed")
	ErrSchemaViolation       = errors.New("model response violates schema")
	ErrLoopLimit             = errors.New("tool loop limit exceeded")
	ErrAccountExists         = errors.New("account already created for session")
)
