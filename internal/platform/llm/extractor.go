package llm

import "context"

// JobStructure is the typed output contract of structured extraction
type JobStructure struct {
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Skills           []string `json:"skills"`
	Education        string   `json:"education"`
	Experience       string   `json:"experience"`
}

// Extractor turns a free-text job description into a JobStructure.
// Implementations may fail; callers are expected to fall back to
// heuristic splitting.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*JobStructure, error)
}
