package realtime

import (
	"context"
	"errors"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// Error taxonomy codes surfaced in `error` events.
const (
	CodeNotAuthorized    = "not_authorized"
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeValidation       = "validation_failure"
	CodeTransient        = "transient_io_failure"
)

// ErrPermissionDenied marks a role-matrix violation.
var ErrPermissionDenied = errors.New("permission denied")

type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func errValidation(msg string) error { return validationError{msg: msg} }

// permissionError carries a user-facing reason alongside the sentinel.
type permissionError struct {
	msg string
}

func (e permissionError) Error() string { return e.msg }

func (e permissionError) Is(target error) bool { return target == ErrPermissionDenied }

func errPermission(msg string) error { return permissionError{msg: msg} }

// mapError converts any handler error into the payload sent back to the
// requesting connection. Errors are never broadcast.
func mapError(err error) models.ErrorPayload {
	var vErr validationError
	switch {
	case errors.As(err, &vErr):
		return models.ErrorPayload{Code: CodeValidation, Message: vErr.msg}
	case errors.Is(err, ErrPermissionDenied):
		return models.ErrorPayload{Code: CodePermissionDenied, Message: err.Error()}
	case errors.Is(err, repositories.ErrNotAuthorized):
		return models.ErrorPayload{Code: CodeNotAuthorized, Message: err.Error()}
	case errors.Is(err, repositories.ErrAlreadyMember):
		return models.ErrorPayload{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrGroupNotFound),
		errors.Is(err, repositories.ErrNotMember):
		return models.ErrorPayload{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrorPayload{Code: CodeTransient, Message: "storage timeout"}
	default:
		return models.ErrorPayload{Code: CodeTransient, Message: err.Error()}
	}
}
