package model

import "errors"

var (
	// ErrLoginRequired aborts a batch so a human can log in
	ErrLoginRequired = errors.New("login required")

	// ErrSessionRecoveryFailed terminates a batch after a failed re-login
	ErrSessionRecoveryFailed = errors.New("session recovery failed")

	// ErrDailyQuotaReached stops submissions until the next calendar day
	ErrDailyQuotaReached = errors.New("daily submission quota reached")
)
