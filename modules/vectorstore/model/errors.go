package model

import "errors"

var (
	// ErrInvalidDocumentType is returned when a document carries an unknown type
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrInvalidStrategy is returned for an unknown search strategy
	ErrInvalidStrategy = errors.New("invalid search strategy")

	// ErrEmptyQuery is returned when a search query has no text
	ErrEmptyQuery = errors.New("search query is empty")
)
