package agent

import "errors"

// Sentinel errors for pipeline operations.
var (
	// ErrEmptyQuestion indicates the question was blank.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoQuery indicates the SQL agent produced no usable query.
	ErrNoQuery = errors.New("no SQL query found in response")

	// ErrExecutionFailed indicates an agent call failed.
	ErrExecutionFailed = errors.New("execution failed")
)
