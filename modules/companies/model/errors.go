package model

import "errors"

var (
	// ErrCompanyNotFound is returned when a company is not found
	ErrCompanyNotFound = errors.New("company not found")

	// ErrCompanyNameRequired is returned when a company name is empty
	ErrCompanyNameRequired = errors.New("company name is required")
)
