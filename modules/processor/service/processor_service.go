package service

import (
	"context"
	"strings"
	"sync"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/llm"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	"github.com/andreypavlenko/autoapply/modules/processor/model"
	"github.com/andreypavlenko/autoapply/modules/processor/ports"
	vsmodel "github.com/andreypavlenko/autoapply/modules/vectorstore/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProcessorService turns raw job descriptions into typed structures and
// vector documents. Jobs are processed in batches over a bounded worker
// pool; a failed job never rolls back the rest of its batch.
type ProcessorService struct {
	jobs            ports.JobStore
	documents       ports.DocumentUpserter
	extractor       llm.Extractor
	cfg             config.ProcessConfig
	checkpointEvery int
	log             *logger.Logger
}

// NewProcessorService creates a new structured processor. checkpointEvery
// controls how often cumulative progress is checkpointed to the log.
func NewProcessorService(jobs ports.JobStore, documents ports.DocumentUpserter, extractor llm.Extractor, cfg config.ProcessConfig, checkpointEvery int, log *logger.Logger) *ProcessorService {
	return &ProcessorService{
		jobs:            jobs,
		documents:       documents,
		extractor:       extractor,
		cfg:             cfg,
		checkpointEvery: checkpointEvery,
		log:             log.WithStage("process"),
	}
}

// ProcessAll drains the unprocessed backlog batch by batch. Every
// processed job is persisted immediately, so each checkpoint line marks
// state a restarted run resumes from.
func (s *ProcessorService) ProcessAll(ctx context.Context) (*model.ProcessStats, error) {
	stats := &model.ProcessStats{}
	lastCheckpoint := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, err := s.jobs.ListUnprocessed(ctx, s.cfg.BatchSize)
		if err != nil {
			return stats, err
		}
		if len(batch) == 0 {
			return stats, nil
		}

		s.processBatch(ctx, batch, stats)

		if s.checkpointEvery > 0 && stats.Attempted-lastCheckpoint >= s.checkpointEvery {
			lastCheckpoint = stats.Attempted
			s.log.Info("checkpoint",
				zap.Int("attempted", stats.Attempted),
				zap.Int("processed", stats.Processed),
				zap.Int("failed", stats.Failed),
			)
		}
	}
}

// processBatch runs one batch over the worker pool. The batch does not
// complete until every job has succeeded or permanently failed.
func (s *ProcessorService) processBatch(ctx context.Context, batch []*jobmodel.Job, stats *model.ProcessStats) {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, job := range batch {
		job := job
		g.Go(func() error {
			docs, fallback, err := s.processJob(gctx, job)

			mu.Lock()
			defer mu.Unlock()
			stats.Attempted++
			if err != nil {
				stats.Failed++
				s.log.WithJobID(job.ID).Warn("job processing failed", zap.Error(err))
				return nil // per-job failures stay inside the batch
			}
			stats.Processed++
			stats.Documents += docs
			if fallback {
				stats.FallbackUsed++
			}
			return nil
		})
	}
	_ = g.Wait()
}

// processJob structures one job, upserts its documents, and marks it
// processed in a single transaction with the doc reference.
func (s *ProcessorService) processJob(ctx context.Context, job *jobmodel.Job) (docCount int, fallback bool, err error) {
	structure, err := s.extractor.Extract(ctx, job.Description)
	if err != nil {
		s.log.WithJobID(job.ID).Warn("structured extraction failed, using fallback", zap.Error(err))
		structure = fallbackExtract(job.Description)
		fallback = true
	}

	docs := buildDocuments(job, structure)
	refs, err := s.documents.UpsertDocuments(ctx, docs)
	if err != nil {
		return 0, fallback, err
	}

	fields := &jobmodel.StructuredFields{
		Responsibilities: structure.Responsibilities,
		Requirements:     structure.Requirements,
		Skills:           structure.Skills,
		Education:        structure.Education,
		Experience:       structure.Experience,
		Fallback:         fallback,
	}
	if err := s.jobs.MarkProcessed(ctx, job.ID, fields, strings.Join(refs, ",")); err != nil {
		return 0, fallback, err
	}
	return len(docs), fallback, nil
}

// buildDocuments derives up to five vector documents from a structured
// job: an overview (always), the responsibility and requirement lists
// and the skills (each only when non-empty), and, when education or
// experience is stated, the basic requirements.
func buildDocuments(job *jobmodel.Job, structure *llm.JobStructure) []*vsmodel.JobDocument {
	doc := func(t vsmodel.DocumentType, content string) *vsmodel.JobDocument {
		return &vsmodel.JobDocument{
			JobID:        job.ID,
			DocumentType: t,
			Content:      content,
			Site:         job.Site,
		}
	}

	docs := []*vsmodel.JobDocument{
		doc(vsmodel.DocOverview, strings.TrimSpace(job.Title+" "+job.Company)),
	}
	if len(structure.Responsibilities) > 0 {
		docs = append(docs, doc(vsmodel.DocResponsibility, strings.Join(structure.Responsibilities, "\n")))
	}
	if len(structure.Requirements) > 0 {
		docs = append(docs, doc(vsmodel.DocRequirement, strings.Join(structure.Requirements, "\n")))
	}
	if len(structure.Skills) > 0 {
		docs = append(docs, doc(vsmodel.DocSkills, strings.Join(structure.Skills, ", ")))
	}
	basic := strings.TrimSpace(strings.Join([]string{structure.Education, structure.Experience}, " "))
	if basic != "" {
		docs = append(docs, doc(vsmodel.DocBasicRequirements, basic))
	}
	return docs
}
