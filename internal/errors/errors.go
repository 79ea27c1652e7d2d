// Package errors builds gofulmen error envelopes for megacheck and maps them
// onto HTTP responses.
package errors

import (
	"context"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"

	"github.com/meganame/megacheck/internal/server/middleware"
)

// Envelope codes.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout            = "TIMEOUT"
)

var codeStatus = map[string]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeValidation:         http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeExternalService:    http.StatusBadGateway,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeConfigInvalid:      http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
}

// HTTPStatusFromCode resolves the HTTP status for an envelope code. Unknown
// codes are server errors.
func HTTPStatusFromCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HTTPStatusFromEnvelope resolves the HTTP status for an envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// newEnvelope sets a default severity from the code: upstream failures are
// medium, other server errors high, client errors unset.
func newEnvelope(code, message string) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(code, message)

	severity := errors.SeverityHigh
	switch {
	case code == CodeExternalService || code == CodeServiceUnavailable || code == CodeTimeout:
		severity = errors.SeverityMedium
	case HTTPStatusFromCode(code) < http.StatusInternalServerError:
		return env
	}
	if withSeverity, err := env.WithSeverity(severity); err == nil {
		env = withSeverity
	}
	return env
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeMethodNotAllowed, message)
}

func NewValidationError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeValidation, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeInternal, message)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeServiceUnavailable, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeConfigInvalid, message)
}

// Wrap helpers keep err in the envelope context for logging and take the
// correlation ID from the request context.

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInvalidInput, err, message)
}

func WrapValidationError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeValidation, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInternal, err, message)
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeExternalService, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, err, message)
}

const wrappedErrorKey = "wrapped_error"

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	id := correlationID(ctx)
	return withCause(newEnvelope(code, message).WithCorrelationID(id).WithTraceID(id), err)
}

func withCause(env *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if err == nil {
		return env
	}
	if updated, ctxErr := env.WithContext(map[string]interface{}{wrappedErrorKey: err.Error()}); ctxErr == nil {
		return updated
	}
	return env
}

// correlationID returns the request ID from ctx or a fresh UUID.
func correlationID(ctx context.Context) string {
	if ctx != nil {
		if id := middleware.GetRequestID(ctx); id != "" {
			return id
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := newEnvelope(CodeInternal, "unexpected nil error")
		if critical, sevErr := env.WithSeverity(errors.SeverityCritical); sevErr == nil {
			env = critical
		}
		return env
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}
	return withCause(newEnvelope(CodeInternal, "unexpected error"), err)
}
