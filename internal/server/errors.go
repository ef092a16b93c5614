package server

import (
	"context"
	"errors"
	"strconv"

	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/registry"

	"connectrpc.com/connect"
)

const (
	headerValidationCode = "Leaderboard-Validation-Code"
	headerRegistryReason = "Leaderboard-Registry-Reason"
	headerRegistryHint   = "Leaderboard-Registry-Hint"
	headerRegistryStatus = "Leaderboard-Registry-Status"
)

// toConnectError maps the error taxonomy onto connect codes. Registry
// rejections keep their reason and hint as response metadata.
func toConnectError(err error) *connect.Error {
	if vErr, ok := domain.AsValidationError(err); ok {
		cErr := connect.NewError(connect.CodeInvalidArgument, err)
		cErr.Meta().Set(headerValidationCode, string(vErr.Code))
		return cErr
	}

	if errors.Is(err, domain.ErrConfigurationRequired) {
		return connect.NewError(connect.CodeFailedPrecondition, err)
	}

	if rErr, ok := registry.AsError(err); ok {
		var cErr *connect.Error
		switch {
		case rErr.Timeout():
			cErr = connect.NewError(connect.CodeDeadlineExceeded, err)
		case rErr.Transport(), rErr.StatusCode >= 500:
			cErr = connect.NewError(connect.CodeUnavailable, err)
		default:
			cErr = connect.NewError(connect.CodeAborted, err)
		}
		if rErr.StatusCode != 0 {
			cErr.Meta().Set(headerRegistryStatus, strconv.Itoa(rErr.StatusCode))
		}
		if rErr.Reason != "" {
			cErr.Meta().Set(headerRegistryReason, rErr.Reason)
		}
		if rErr.Hint != "" {
			cErr.Meta().Set(headerRegistryHint, rErr.Hint)
		}
		return cErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
