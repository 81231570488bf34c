package model

import "errors"

var (
	// ErrMatchNotFound is returned when a match is not found
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchAlreadyProcessed enforces the at-most-once submission discipline
	ErrMatchAlreadyProcessed = errors.New("match already processed")

	// ErrScoreOutOfRange is returned when a computed score leaves [0,1]
	ErrScoreOutOfRange = errors.New("score out of range")
)

// ErrorCode represents error codes
type ErrorCode string

const (
	CodeMatchNotFound         ErrorCode = "MATCH_NOT_FOUND"
	CodeMatchAlreadyProcessed ErrorCode = "MATCH_ALREADY_PROCESSED"
	CodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return CodeMatchNotFound
	case errors.Is(err, ErrMatchAlreadyProcessed):
		return CodeMatchAlreadyProcessed
	default:
		return CodeInternalError
	}
}
