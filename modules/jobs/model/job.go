package model

import "time"

// RawJob is a posting as extracted from a recruiting site, before
// structured processing
type RawJob struct {
	JobID       string
	Title       string
	Company     string
	Location    string
	SalaryRaw   string
	URL         string
	Site        string
	Description string
}

// Job represents a discovered job posting
type Job struct {
	ID                 string
	JobID              string
	Fingerprint        string
	Title              string
	Company            string
	Location           string
	SalaryRaw          string
	URL                string
	Site               string
	Description        string
	Responsibilities   []string
	Requirements       []string
	Skills             []string
	Education          string
	Experience         string
	ExtractionFallback bool
	RAGProcessed       bool
	DocRef             string
	IsDeleted          bool
	DeletedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StructuredFields carries the processor output applied to a job
type StructuredFields struct {
	Responsibilities []string
	Requirements     []string
	Skills           []string
	Education        string
	Experience       string
	Fallback         bool
}
