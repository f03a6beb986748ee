package pipeline

import "errors"

var (
	// ErrMalformedBatch is returned when a batch payload is structurally
	// invalid (missing ids or a non-array asset list). No partial report is
	// produced in this case.
	ErrMalformedBatch = errors.New("malformed batch payload")

	// ErrTriggerDispatch is returned when the downstream workflow trigger
	// could not be signaled. It is fatal for the enclosing record.
	ErrTriggerDispatch = errors.New("workflow trigger dispatch failed")
)
