package engine

import (
	"errors"
	"fmt"
)

// PreconditionError reports an operation that was rejected before any write.
//
// Precondition violations are "nothing to do" outcomes: the caller supplied
// ids or data the engine refuses to operate on. They are distinct from
// internal failures (store unreachable, constraint violation mid-merge),
// which surface as ordinary wrapped errors.
type PreconditionError struct {
	// Code identifies the violation category.
	Code PreconditionCode

	// Message is a human-readable description.
	Message string
}

// PreconditionCode categorizes precondition violations.
type PreconditionCode string

const (
	// ErrCodeSelfMerge indicates primary and secondary are the same block.
	ErrCodeSelfMerge PreconditionCode = "SELF_MERGE"

	// ErrCodeMissingBlock indicates one or both blocks do not exist.
	ErrCodeMissingBlock PreconditionCode = "MISSING_BLOCK"

	// ErrCodeCrossNote indicates the blocks belong to different notes.
	ErrCodeCrossNote PreconditionCode = "CROSS_NOTE"

	// ErrCodeNullOrderKey indicates an ordered child with no order key.
	ErrCodeNullOrderKey PreconditionCode = "NULL_ORDER_KEY"
)

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsPrecondition returns true if the error is a precondition violation.
// Uses errors.As to handle wrapped errors.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func newPreconditionError(code PreconditionCode, format string, args ...any) *PreconditionError {
	return &PreconditionError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
