package model

import (
	"time"

	submodel "github.com/andreypavlenko/autoapply/modules/submitter/model"
)

// Stage names, in execution order
const (
	StageExtract = "extract"
	StageProcess = "process"
	StageMatch   = "match"
	StageDecide  = "decide"
	StageSubmit  = "submit"
)

// Stages lists the pipeline stages in order
var Stages = []string{StageExtract, StageProcess, StageMatch, StageDecide, StageSubmit}

// Exit codes returned to the caller
const (
	ExitOK      = 0 // all stages succeeded
	ExitPartial = 1 // stage failures, but the pipeline ran to completion
	ExitFatal   = 2 // fatal abort
)

// StageReport records one stage's outcome
type StageReport struct {
	Name      string        `json:"name"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Warnings  []string      `json:"warnings,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ExecutionReport is always returned to the caller, even on partial failure
type ExecutionReport struct {
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Duration     time.Duration `json:"duration"`
	Extracted    int           `json:"extracted"`
	DedupSkipped int           `json:"dedup_skipped"`
	Processed    int           `json:"processed"`
	FallbackUsed int           `json:"fallback_used"`
	Matched      int           `json:"matched"`
	GateRejected int           `json:"gate_rejected"`
	SubmitReady  int           `json:"submit_ready"`

	Submitted      int     `json:"submitted"`
	SubmitFailed   int     `json:"submit_failed"`
	AlreadyApplied int     `json:"already_applied"`
	Suspended      int     `json:"suspended"`
	ButtonNotFound int     `json:"button_not_found"`
	SuccessRate    float64 `json:"success_rate"`
	LoginRequired  bool    `json:"login_required"`

	Stages     []StageReport `json:"stages"`
	FirstError string        `json:"first_error,omitempty"`
	ExitCode   int           `json:"exit_code"`
}

// ApplySubmission folds the submitter's stats into the report
func (r *ExecutionReport) ApplySubmission(stats *submodel.SubmitStats) {
	r.Submitted = stats.Succeeded
	r.SubmitFailed = stats.Failed
	r.AlreadyApplied = stats.AlreadyApplied
	r.Suspended = stats.Suspended
	r.ButtonNotFound = stats.ButtonNotFound
	r.SuccessRate = stats.SuccessRate()
	r.LoginRequired = stats.LoginRequired
}
