package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes bridge errors.
type ErrorCode string

const (
	// ErrCodeUnknownView indicates a patch references a view that does not exist.
	ErrCodeUnknownView ErrorCode = "UNKNOWN_VIEW"

	// ErrCodeKindMismatch indicates an Update would change an existing node's kind.
	ErrCodeKindMismatch ErrorCode = "KIND_MISMATCH"

	// ErrCodeCycleDetected indicates a Subview would make a view its own ancestor.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeInvalidReference indicates a reparent onto or of a missing view.
	ErrCodeInvalidReference ErrorCode = "INVALID_REFERENCE"

	// ErrCodeViewRetired indicates an Update for a removed view whose
	// identifier has not been confirmed free.
	ErrCodeViewRetired ErrorCode = "VIEW_RETIRED"

	// ErrCodeOutOfOrderPhase indicates an event violates its device's phase order.
	ErrCodeOutOfOrderPhase ErrorCode = "OUT_OF_ORDER_PHASE"

	// ErrCodeHandlerAbsent indicates no handler is registered for an event.
	ErrCodeHandlerAbsent ErrorCode = "HANDLER_ABSENT"

	// ErrCodeUnknownTag indicates a discriminant not recognized at decode time.
	ErrCodeUnknownTag ErrorCode = "UNKNOWN_TAG"

	// ErrCodeMalformed indicates truncated or inconsistent encoded input.
	ErrCodeMalformed ErrorCode = "MALFORMED"
)

// Error is a bridge error with a taxonomy code.
type Error struct {
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// View identifies the offending view, when there is one.
	View ViewID
}

func (e *Error) Error() string {
	if !e.View.IsNil() {
		return fmt.Sprintf("%s: %s (view=%s)", e.Code, e.Message, e.View)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates an Error for view with a formatted message.
func Errorf(code ErrorCode, view ViewID, format string, args ...any) *Error {
	return &Error{Code: code, View: view, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of the first *Error in err's chain.
// Returns "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// CodeError returns a target for errors.Is that matches any *Error with
// the given code.
func CodeError(code ErrorCode) error {
	return codeTarget(code)
}

type codeTarget ErrorCode

func (c codeTarget) Error() string { return string(c) }

// Is matches a CodeError target of the same code.
func (e *Error) Is(target error) bool {
	c, ok := target.(codeTarget)
	return ok && ErrorCode(c) == e.Code
}

// IsCode reports whether any error in err's tree carries the given code.
// Joined errors are searched in full.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && errors.Is(err, CodeError(code))
}
