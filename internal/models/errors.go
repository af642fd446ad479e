package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried by AppError.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeSamePassword       = "SAME_PASSWORD"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeSigning            = "SIGNING_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnavailable        = "UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is the domain error every layer returns. Status is the HTTP status
// the top-level error handler responds with.
type AppError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  int      `json:"-"`
	Errors  []string `json:"errors,omitempty"`
	Err     error    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a 400 error for malformed or missing input.
func NewValidationError(message string, details ...string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest, Errors: details}
}

// NewSamePasswordError returns a 400 error for a password change that reuses the current password.
func NewSamePasswordError() *AppError {
	return &AppError{
		Code:    CodeSamePassword,
		Message: "New password must be different from the old password",
		Status:  http.StatusBadRequest,
	}
}

// NewInvalidCredentialsError returns the single 401 used for every failed login
// or password check, so callers cannot tell which half was wrong.
func NewInvalidCredentialsError() *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: "Invalid credentials", Status: http.StatusUnauthorized}
}

// NewUnauthenticatedError returns a 401 for missing, expired or revoked tokens.
func NewUnauthenticatedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized request"
	}
	return &AppError{Code: CodeUnauthenticated, Message: message, Status: http.StatusUnauthorized}
}

// NewForbiddenError returns a 403 for authenticated callers acting on resources they do not own.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden}
}

// NewNotFoundError returns a 404 naming the missing resource.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     fmt.Errorf("%s %v", resource, id),
	}
}

// NewDuplicateIdentityError returns a 409 for a username or email that is already taken.
func NewDuplicateIdentityError(message string) *AppError {
	if message == "" {
		message = "User with email or username already exists"
	}
	return &AppError{Code: CodeDuplicateIdentity, Message: message, Status: http.StatusConflict}
}

// NewUploadFailedError returns a 502 for failures of the media host.
func NewUploadFailedError(what string, err error) *AppError {
	return &AppError{
		Code:    CodeUploadFailed,
		Message: fmt.Sprintf("Failed to upload %s", what),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// NewSigningError returns a 500 when a token cannot be issued.
func NewSigningError(err error) *AppError {
	return &AppError{
		Code:    CodeSigning,
		Message: "Something went wrong while generating tokens",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewRateLimitedError returns a 429 when a caller exceeds a route's request budget.
func NewRateLimitedError() *AppError {
	return &AppError{Code: CodeRateLimited, Message: "Too many requests, please try again later", Status: http.StatusTooManyRequests}
}

// NewUnavailableError returns a 503 for a required dependency that is down.
func NewUnavailableError(message string) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Status: http.StatusServiceUnavailable}
}

// NewInternalError wraps an unexpected failure. The wrapped error is logged, never sent.
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// AsAppError unwraps err into an AppError when it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
