package model

import "time"

// Decision is the submit/skip outcome of the decision engine
type Decision string

const (
	DecisionSubmit         Decision = "submit"
	DecisionSkip           Decision = "skip"
	DecisionRejectedByGate Decision = "rejected_by_gate"
)

// Priority ranks submit-ready matches
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for submission (urgent first)
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// DimensionScores is the per-dimension breakdown of a match, all in [0,1]
type DimensionScores struct {
	Semantic   float64
	Skill      float64
	Experience float64
	Salary     float64
	Industry   float64
}

// ResumeMatch is a scored pairing of the resume with a job
type ResumeMatch struct {
	ID            string
	JobID         string
	OverallScore  float64
	Scores        DimensionScores
	MatchedSkills []string
	Decision      Decision
	Priority      Priority
	ShouldSubmit  bool
	Processed     bool
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}

// PendingMatch is an unprocessed match joined with the job fields the
// submitter needs
type PendingMatch struct {
	Match      *ResumeMatch
	JobTitle   string
	JobCompany string
	JobURL     string
	Site       string
}
