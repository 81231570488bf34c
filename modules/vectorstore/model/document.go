package model

import "time"

// DocumentType classifies a unit of text derived from a job posting
type DocumentType string

const (
	DocOverview          DocumentType = "overview"
	DocResponsibility    DocumentType = "responsibility"
	DocRequirement       DocumentType = "requirement"
	DocSkills            DocumentType = "skills"
	DocBasicRequirements DocumentType = "basic_requirements"
)

// Valid reports whether t is a known document type
func (t DocumentType) Valid() bool {
	switch t {
	case DocOverview, DocResponsibility, DocRequirement, DocSkills, DocBasicRequirements:
		return true
	}
	return false
}

// SearchStrategy selects how similarity and freshness are blended
type SearchStrategy string

const (
	StrategyHybrid     SearchStrategy = "hybrid"
	StrategyFreshFirst SearchStrategy = "fresh_first"
	StrategyBalanced   SearchStrategy = "balanced"
)

// Valid reports whether s is a known search strategy
func (s SearchStrategy) Valid() bool {
	switch s {
	case StrategyHybrid, StrategyFreshFirst, StrategyBalanced:
		return true
	}
	return false
}

// JobDocument is a unit of text stored in the vector store
type JobDocument struct {
	ID           string
	JobID        string
	DocumentType DocumentType
	Content      string
	Embedding    []float32
	Site         string
	CreatedAt    time.Time
}

// ScoredDocument is a retrieval result with its normalized score in [0,1]
type ScoredDocument struct {
	Document *JobDocument
	Score    float64
}

// SearchFilter restricts a similarity query by metadata
type SearchFilter struct {
	JobID        string
	Site         string
	CreatedAfter *time.Time
}
