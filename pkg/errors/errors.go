package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrInvalidState ErrorCode = "INVALID_STATE"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrBackup     ErrorCode = "BACKUP"

	// External command errors. A command that exits non-zero, cannot be
	// started, or is cancelled ends the run.
	ErrCommandFailed ErrorCode = "COMMAND_FAILED"
	ErrCancelled     ErrorCode = "CANCELLED"

	// Link errors
	ErrLinkConflict ErrorCode = "LINK_CONFLICT"
	ErrLinkCreate   ErrorCode = "LINK_CREATE"
)

// Detail keys shared by packages that attach details to errors
const (
	DetailCommand  = "command"
	DetailExitCode = "exit_code"
	DetailPath     = "path"
)

// StowupError represents a structured error with code and details
type StowupError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *StowupError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *StowupError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *StowupError) Is(target error) bool {
	var targetErr *StowupError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new StowupError with the given code and message
func New(code ErrorCode, message string) *StowupError {
	return &StowupError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new StowupError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *StowupError {
	return &StowupError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a StowupError
func Wrap(err error, code ErrorCode, message string) *StowupError {
	if err == nil {
		return nil
	}
	return &StowupError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *StowupError {
	if err == nil {
		return nil
	}
	return &StowupError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *StowupError) WithDetail(key string, value interface{}) *StowupError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var stowupErr *StowupError
	if errors.As(err, &stowupErr) {
		return stowupErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a StowupError
func GetErrorCode(err error) ErrorCode {
	var stowupErr *StowupError
	if errors.As(err, &stowupErr) {
		return stowupErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a StowupError
func GetErrorDetails(err error) map[string]interface{} {
	var stowupErr *StowupError
	if errors.As(err, &stowupErr) {
		return stowupErr.Details
	}
	return nil
}

// FailedCommand returns the command line recorded on the outermost
// COMMAND_FAILED error in the chain, if any.
func FailedCommand(err error) (string, bool) {
	for err != nil {
		var stowupErr *StowupError
		if !errors.As(err, &stowupErr) {
			return "", false
		}
		if stowupErr.Code == ErrCommandFailed {
			cmd, ok := stowupErr.Details[DetailCommand].(string)
			return cmd, ok
		}
		err = stowupErr.Wrapped
	}
	return "", false
}

// ExitCode maps an error to a process exit status.
// Configuration and usage problems exit with 2, an interrupted run with 130,
// everything else with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetErrorCode(err) {
	case ErrConfigLoad, ErrConfigValid, ErrInvalidInput:
		return 2
	case ErrCancelled:
		return 130
	default:
		return 1
	}
}
