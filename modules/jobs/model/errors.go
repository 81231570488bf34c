package model

import "errors"

var (
	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrJobDeleted is returned when an operation targets a soft-deleted job
	ErrJobDeleted = errors.New("job is deleted")
)

// ErrorCode represents error codes
type ErrorCode string

const (
	CodeJobNotFound   ErrorCode = "JOB_NOT_FOUND"
	CodeJobDeleted    ErrorCode = "JOB_DELETED"
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrJobNotFound):
		return CodeJobNotFound
	case errors.Is(err, ErrJobDeleted):
		return CodeJobDeleted
	default:
		return CodeInternalError
	}
}
