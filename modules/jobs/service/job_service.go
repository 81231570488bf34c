package service

import (
	"context"
	"strings"

	"github.com/andreypavlenko/autoapply/internal/fingerprint"
	"github.com/andreypavlenko/autoapply/modules/jobs/model"
	"github.com/andreypavlenko/autoapply/modules/jobs/ports"
)

// JobService handles job store business logic
type JobService struct {
	repo ports.JobRepository
}

// NewJobService creates a new job service
func NewJobService(repo ports.JobRepository) *JobService {
	return &JobService{repo: repo}
}

// Fingerprint computes the dedup fingerprint of a raw job's visible fields
func (s *JobService) Fingerprint(raw *model.RawJob) string {
	return fingerprint.Compute(raw.Title, raw.Company, raw.SalaryRaw, raw.Location)
}

// IsKnown reports whether a job with the same visible fields already exists
func (s *JobService) IsKnown(ctx context.Context, title, company, salary, location string) (bool, error) {
	fp := fingerprint.Compute(title, company, salary, location)
	_, ok, err := s.repo.FindByFingerprint(ctx, fp)
	return ok, err
}

// InsertIfNew stores a raw job, deduplicating by fingerprint
func (s *JobService) InsertIfNew(ctx context.Context, raw *model.RawJob) (string, bool, error) {
	raw.Title = strings.TrimSpace(raw.Title)
	raw.Company = strings.TrimSpace(raw.Company)
	return s.repo.InsertIfNew(ctx, raw, s.Fingerprint(raw))
}

// GetByID retrieves a job by ID
func (s *JobService) GetByID(ctx context.Context, jobID string) (*model.Job, error) {
	return s.repo.GetByID(ctx, jobID)
}

// ListUnprocessed returns live jobs awaiting structured processing
func (s *JobService) ListUnprocessed(ctx context.Context, limit int) ([]*model.Job, error) {
	return s.repo.ListUnprocessed(ctx, limit)
}

// ListMatchCandidates returns processed live jobs with no match row yet
func (s *JobService) ListMatchCandidates(ctx context.Context, limit int) ([]*model.Job, error) {
	return s.repo.ListMatchCandidates(ctx, limit)
}

// MarkProcessed applies structured fields and flips rag_processed
func (s *JobService) MarkProcessed(ctx context.Context, jobID string, fields *model.StructuredFields, docRef string) error {
	return s.repo.MarkProcessed(ctx, jobID, fields, docRef)
}

// SoftDelete marks a job deleted and cascades to its matches
func (s *JobService) SoftDelete(ctx context.Context, jobID, reason string) error {
	return s.repo.SoftDelete(ctx, jobID, reason)
}
