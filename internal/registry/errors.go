package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
)

// Rejection reasons reported by the registry for daily submissions.
const (
	ReasonReplayMismatch       = "replay_mismatch"
	ReasonStaleAttemptToken    = "stale_attempt_token"
	ReasonChallengeDayMismatch = "challenge_day_mismatch"
	ReasonAttemptsExhausted    = "attempts_exhausted"
	ReasonNoActiveAttempt      = "no_active_attempt"
)

var knownReasons = []string{
	ReasonReplayMismatch,
	ReasonStaleAttemptToken,
	ReasonChallengeDayMismatch,
	ReasonAttemptsExhausted,
	ReasonNoActiveAttempt,
}

// Error is a failed registry call. StatusCode is zero when the request never
// produced a response (dial failure, timeout, cancelled context).
type Error struct {
	Op         string
	StatusCode int
	Reason     string
	Message    string
	Hint       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("registry %s: %v", e.Op, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("registry %s rejected with status %d (%s): %s", e.Op, e.StatusCode, e.Reason, e.Message)
	default:
		return fmt.Sprintf("registry %s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time before a response arrived.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, fasthttp.ErrTimeout) ||
		errors.Is(e.Err, fasthttp.ErrDialTimeout) ||
		errors.Is(e.Err, context.DeadlineExceeded)
}

// Transport reports whether the failure happened before any HTTP status was read.
func (e *Error) Transport() bool {
	return e.StatusCode == 0
}

func AsError(err error) (*Error, bool) {
	var rErr *Error
	if errors.As(err, &rErr) {
		return rErr, true
	}
	return nil, false
}

// errorBody covers both PostgREST errors (code/message/details/hint) and
// edge function errors (error/reason/hint).
type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
	Hint    string          `json:"hint"`
	Error   string          `json:"error"`
	Reason  string          `json:"reason"`
}

func parseError(op string, status int, body []byte) *Error {
	rErr := &Error{Op: op, StatusCode: status}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		rErr.Message = strings.TrimSpace(string(body))
		if rErr.Message == "" {
			rErr.Message = fasthttp.StatusMessage(status)
		}
		return rErr
	}

	rErr.Message = firstNonEmpty(parsed.Message, parsed.Error, fasthttp.StatusMessage(status))
	rErr.Hint = parsed.Hint
	rErr.Reason = firstNonEmpty(parsed.Reason, matchReason(parsed.Message), matchReason(parsed.Error), parsed.Code)
	return rErr
}

// matchReason finds a known reason inside a free-form message, as raised by
// database functions.
func matchReason(msg string) string {
	for _, reason := range knownReasons {
		if strings.Contains(msg, reason) {
			return reason
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
