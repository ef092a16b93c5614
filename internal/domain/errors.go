package domain

import (
	"errors"
	"fmt"
)

// ValidationCode identifies why an input was rejected before any network call.
type ValidationCode string

const (
	CodeEmptyUserName          ValidationCode = "EmptyUserName"
	CodeInvalidChallengeKey    ValidationCode = "InvalidChallengeKey"
	CodeInvalidReplayProof     ValidationCode = "InvalidReplayProof"
	CodeNonMonotonicReplay     ValidationCode = "NonMonotonicReplay"
	CodeInvalidMoveToken       ValidationCode = "InvalidMoveToken"
	CodeReplayExceedsFinalTime ValidationCode = "ReplayExceedsFinalTime"
	CodeMissingAttemptToken    ValidationCode = "MissingAttemptToken"
)

type ValidationError struct {
	Code   ValidationCode
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func NewValidationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// AsValidationError unwraps err into a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// HasValidationCode reports whether err is a ValidationError with the given code.
func HasValidationCode(err error, code ValidationCode) bool {
	vErr, ok := AsValidationError(err)
	return ok && vErr.Code == code
}

// ErrConfigurationRequired is returned when an operation needs the registry
// but no URL or API key was supplied.
var ErrConfigurationRequired = errors.New("registry url and api key are required")
