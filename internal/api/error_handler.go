package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Code is
// a stable machine-readable identifier; Error is the human-readable text.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps known
// domain errors to deterministic HTTP statuses, logs unexpected errors
// without leaking details to the client, and renders a consistent JSON
// envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Error: msg, Code: code})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, frameworkErrorCode(he.Code), fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrMalformedID):
		return http.StatusBadRequest, "MALFORMED_ID", "malformed identifier"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "user not found"
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "PROJECT_NOT_FOUND", "project not found"
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", "task not found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrAccountNotConfirmed):
		return http.StatusForbidden, "ACCOUNT_NOT_CONFIRMED", "account not confirmed"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusForbidden, "INVALID_TOKEN", "invalid token"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "access forbidden"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "USER_EXISTS", "user already registered"
	case errors.Is(err, domain.ErrCreatorCollaborator):
		return http.StatusConflict, "CREATOR_CANNOT_COLLABORATE", "the creator cannot be a collaborator"
	case errors.Is(err, domain.ErrAlreadyCollaborator):
		return http.StatusConflict, "ALREADY_COLLABORATOR", "user is already a collaborator"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "VERSION_CONFLICT", "the record was modified concurrently"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
}

// frameworkErrorCode derives a stable code for errors raised by the framework
// itself, so the envelope always carries a machine-readable identifier.
func frameworkErrorCode(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return "INVALID_PAYLOAD"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status >= http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	default:
		return "REQUEST_FAILED"
	}
}
