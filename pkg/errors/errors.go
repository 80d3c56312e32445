package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input data")
	ErrInvalidSettings = errors.New("tracking settings must be a JSON object")
	ErrInvalidLocation = errors.New("latitude and longitude must be provided together")
)

// Codes carried by AppError. Handlers translate them into HTTP statuses.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

type AppError struct {
	Code    string
	Message string
	Err     error
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

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(message string, err error) *AppError {
	return NewAppError(CodeValidation, message, err)
}
