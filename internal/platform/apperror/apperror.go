package apperror

import (
	"errors"
	"fmt"
)

// Code classifies an application error.
type Code int

const (
	CodeNotFound Code = iota + 1000
	CodeDuplicateUsername
	CodeValidation
	CodeInvalidInput
	CodeForbidden
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodeDuplicateUsername:
		return "duplicate_username"
	case CodeValidation:
		return "validation_error"
	case CodeInvalidInput:
		return "invalid_input"
	case CodeForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// AppError is an expected, recoverable condition reported to the caller.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can compare
// against the sentinels below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrDuplicateUsername = &AppError{Code: CodeDuplicateUsername, Message: "username already taken"}
	ErrValidation        = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidInput      = &AppError{Code: CodeInvalidInput, Message: "invalid input"}
	ErrForbidden         = &AppError{Code: CodeForbidden, Message: "forbidden"}
)

func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func DuplicateUsername(username string) *AppError {
	return &AppError{Code: CodeDuplicateUsername, Message: fmt.Sprintf("username %q already taken", username)}
}

func Validation(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Err: err}
}

func InvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
