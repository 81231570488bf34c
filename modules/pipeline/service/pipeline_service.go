package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	"github.com/andreypavlenko/autoapply/internal/platform/mail"
	decisionmodel "github.com/andreypavlenko/autoapply/modules/decision/model"
	extractmodel "github.com/andreypavlenko/autoapply/modules/extractor/model"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/andreypavlenko/autoapply/modules/pipeline/model"
	procmodel "github.com/andreypavlenko/autoapply/modules/processor/model"
	submodel "github.com/andreypavlenko/autoapply/modules/submitter/model"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Extractor runs the extraction stage
type Extractor interface {
	Extract(ctx context.Context, keywords []string) (*extractmodel.ExtractStats, error)
}

// Processor runs the structured-processing stage
type Processor interface {
	ProcessAll(ctx context.Context) (*procmodel.ProcessStats, error)
}

// Matcher scores candidate jobs against the profile
type Matcher interface {
	MatchJobs(ctx context.Context, profile *matchmodel.ResumeProfile, jobs []*jobmodel.Job) ([]*matchmodel.ResumeMatch, error)
}

// Decider gates and persists matches and selects submit-ready ones
type Decider interface {
	DecideAndStore(ctx context.Context, profile *matchmodel.ResumeProfile, jobs []*jobmodel.Job, matches []*matchmodel.ResumeMatch) (decisionmodel.GateStats, error)
	SelectSubmitReady(ctx context.Context, k int) ([]*matchmodel.PendingMatch, error)
}

// Submitter executes the submission stage
type Submitter interface {
	Repair(ctx context.Context) error
	SubmitBatch(ctx context.Context, pending []*matchmodel.PendingMatch) (*submodel.SubmitStats, error)
}

// JobLister provides the match candidates of the match stage
type JobLister interface {
	ListMatchCandidates(ctx context.Context, limit int) ([]*jobmodel.Job, error)
}

// HealthChecker verifies one component's readiness
type HealthChecker func(ctx context.Context) error

// matchCandidateLimit bounds one run's match stage; the next run picks
// up whatever is left
const matchCandidateLimit = 1000

// PipelineService is the composition root: it chains the five stages,
// each fully persisted before the next reads, and always produces an
// execution report.
type PipelineService struct {
	extractor Extractor
	processor Processor
	matcher   Matcher
	decider   Decider
	submitter Submitter
	jobs      JobLister
	health    map[string]HealthChecker
	mailer    *mail.Client
	cfg       config.ControlConfig
	maxPerDay int
	log       *logger.Logger

	mu         sync.Mutex
	lastReport *model.ExecutionReport
	running    bool
}

// NewPipelineService creates the master controller
func NewPipelineService(
	extractor Extractor,
	processor Processor,
	matcher Matcher,
	decider Decider,
	submitter Submitter,
	jobs JobLister,
	health map[string]HealthChecker,
	mailer *mail.Client,
	cfg config.ControlConfig,
	maxPerDay int,
	log *logger.Logger,
) *PipelineService {
	return &PipelineService{
		extractor: extractor,
		processor: processor,
		matcher:   matcher,
		decider:   decider,
		submitter: submitter,
		jobs:      jobs,
		health:    health,
		mailer:    mailer,
		cfg:       cfg,
		maxPerDay: maxPerDay,
		log:       log,
	}
}

// Running reports whether a pipeline run is in flight
func (s *PipelineService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastReport returns the most recent execution report, if any
func (s *PipelineService) LastReport() *model.ExecutionReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// HealthCheck verifies every registered component
func (s *PipelineService) HealthCheck(ctx context.Context) map[string]string {
	out := make(map[string]string, len(s.health))
	for name, check := range s.health {
		if err := check(ctx); err != nil {
			out[name] = "down: " + err.Error()
		} else {
			out[name] = "up"
		}
	}
	return out
}

// RunFullPipeline executes Extract → Process → Match → Decide → Submit.
// An extractor failure aborts the run; a submitter failure still yields
// a usable report. Cancellation is honored between units of work and is
// terminal: completed units stay persisted.
func (s *PipelineService) RunFullPipeline(ctx context.Context, keywords []string, profile *matchmodel.ResumeProfile) *model.ExecutionReport {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return &model.ExecutionReport{FirstError: "pipeline already running", ExitCode: model.ExitFatal}
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	report := &model.ExecutionReport{StartedAt: time.Now().UTC()}

	// Repair the processed⇔terminal-log invariant before consuming state
	if err := s.submitter.Repair(ctx); err != nil {
		s.fail(report, model.StageSubmit, fmt.Errorf("startup repair: %w", err))
	}

	if !s.runExtract(ctx, keywords, report) {
		s.finish(report, model.ExitFatal)
		return report
	}
	s.runProcess(ctx, report)
	matches, jobs := s.runMatch(ctx, profile, report)
	s.runDecide(ctx, profile, jobs, matches, report)
	s.runSubmit(ctx, report)

	exit := model.ExitOK
	for _, stage := range report.Stages {
		if stage.Error != "" {
			exit = model.ExitPartial
			break
		}
	}
	s.finish(report, exit)
	return report
}

// RunStage executes a single stage for partial runs
func (s *PipelineService) RunStage(ctx context.Context, stage string, keywords []string, profile *matchmodel.ResumeProfile) (*model.ExecutionReport, error) {
	report := &model.ExecutionReport{StartedAt: time.Now().UTC()}

	switch stage {
	case model.StageExtract:
		s.runExtract(ctx, keywords, report)
	case model.StageProcess:
		s.runProcess(ctx, report)
	case model.StageMatch, model.StageDecide:
		matches, jobs := s.runMatch(ctx, profile, report)
		s.runDecide(ctx, profile, jobs, matches, report)
	case model.StageSubmit:
		if err := s.submitter.Repair(ctx); err != nil {
			return nil, err
		}
		s.runSubmit(ctx, report)
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	exit := model.ExitOK
	for _, sr := range report.Stages {
		if sr.Error != "" {
			exit = model.ExitPartial
		}
	}
	s.finish(report, exit)
	return report, nil
}

func (s *PipelineService) runExtract(ctx context.Context, keywords []string, report *model.ExecutionReport) bool {
	stage, done := s.beginStage(model.StageExtract)
	sctx, cancel := s.stageContext(ctx)
	defer cancel()

	stats, err := s.extractor.Extract(sctx, keywords)
	if stats != nil {
		report.Extracted = stats.Extracted
		report.DedupSkipped = stats.DedupSkipped
		stage.Attempted = stats.Extracted + stats.DedupSkipped + stats.Failed
		stage.Succeeded = stats.Extracted
		stage.Failed = stats.Failed
		stage.Skipped = stats.DedupSkipped
		stage.Warnings = stats.Warnings
	}
	if err != nil {
		s.captureStageError(model.StageExtract, err)
		stage.Error = err.Error()
		if report.FirstError == "" {
			report.FirstError = err.Error()
		}
	}
	done(report)
	return err == nil
}

func (s *PipelineService) runProcess(ctx context.Context, report *model.ExecutionReport) {
	stage, done := s.beginStage(model.StageProcess)
	sctx, cancel := s.stageContext(ctx)
	defer cancel()

	stats, err := s.processor.ProcessAll(sctx)
	if stats != nil {
		report.Processed = stats.Processed
		report.FallbackUsed = stats.FallbackUsed
		stage.Attempted = stats.Attempted
		stage.Succeeded = stats.Processed
		stage.Failed = stats.Failed
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.captureStageError(model.StageProcess, err)
		stage.Error = err.Error()
		if report.FirstError == "" {
			report.FirstError = err.Error()
		}
	}
	done(report)
}

func (s *PipelineService) runMatch(ctx context.Context, profile *matchmodel.ResumeProfile, report *model.ExecutionReport) ([]*matchmodel.ResumeMatch, []*jobmodel.Job) {
	stage, done := s.beginStage(model.StageMatch)
	sctx, cancel := s.stageContext(ctx)
	defer cancel()

	jobs, err := s.jobs.ListMatchCandidates(sctx, matchCandidateLimit)
	if err != nil {
		s.captureStageError(model.StageMatch, err)
		stage.Error = err.Error()
		if report.FirstError == "" {
			report.FirstError = err.Error()
		}
		done(report)
		return nil, nil
	}

	matches, err := s.matcher.MatchJobs(sctx, profile, jobs)
	stage.Attempted = len(jobs)
	stage.Succeeded = len(matches)
	report.Matched = len(matches)
	if err != nil {
		s.captureStageError(model.StageMatch, err)
		stage.Error = err.Error()
		if report.FirstError == "" {
			report.FirstError = err.Error()
		}
	}
	done(report)
	return matches, jobs
}

func (s *PipelineService) runDecide(ctx context.Context, profile *matchmodel.ResumeProfile, jobs []*jobmodel.Job, matches []*matchmodel.ResumeMatch, report *model.ExecutionReport) {
	stage, done := s.beginStage(model.StageDecide)
	sctx, cancel := s.stageContext(ctx)
	defer cancel()

	stats, err := s.decider.DecideAndStore(sctx, profile, jobs, matches)
	stage.Attempted = stats.Evaluated
	stage.Succeeded = stats.Evaluated - stats.Rejected
	stage.Skipped = stats.Rejected
	report.GateRejected = stats.Rejected
	if err != nil {
		s.captureStageError(model.StageDecide, err)
		stage.Error = err.Error()
		if report.FirstError == "" {
			report.FirstError = err.Error()
		}
	}
	done(report)
}

func (s *PipelineService) runSubmit(ctx context.Context, report *model.ExecutionReport) {
	stage, done := s.beginStage(model.StageSubmit)
	sctx, cancel := s.stageContext(ctx)
	defer cancel()

	pending, err := s.decider.SelectSubmitReady(sctx, s.maxPerDay)
	if err != nil {
		s.captureStageError(model.StageSubmit, err)
		stage.Error = err.Error()
		if report.FirstError == "" {
			report.FirstError = err.Error()
		}
		done(report)
		return
	}
	report.SubmitReady = len(pending)

	stats, err := s.submitter.SubmitBatch(sctx, pending)
	if stats != nil {
		report.ApplySubmission(stats)
		stage.Attempted = stats.Attempted
		stage.Succeeded = stats.Succeeded
		stage.Failed = stats.Failed
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, submodel.ErrLoginRequired) {
			stage.Error = string(submodel.StatusLoginRequired)
		} else {
			s.captureStageError(model.StageSubmit, err)
			stage.Error = err.Error()
		}
		if report.FirstError == "" {
			report.FirstError = stage.Error
		}
	}
	done(report)
}

func (s *PipelineService) beginStage(name string) (*model.StageReport, func(*model.ExecutionReport)) {
	s.log.WithStage(name).Info("stage started")
	stage := &model.StageReport{Name: name}
	start := time.Now()

	return stage, func(report *model.ExecutionReport) {
		stage.Duration = time.Since(start)
		report.Stages = append(report.Stages, *stage)
		s.log.WithStage(name).Info("stage finished",
			zap.Int("attempted", stage.Attempted),
			zap.Int("succeeded", stage.Succeeded),
			zap.Int("failed", stage.Failed),
			zap.Duration("duration", stage.Duration),
			zap.String("error", stage.Error),
		)
	}
}

func (s *PipelineService) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StageTimeout)
}

func (s *PipelineService) fail(report *model.ExecutionReport, stage string, err error) {
	s.captureStageError(stage, err)
	if report.FirstError == "" {
		report.FirstError = err.Error()
	}
}

func (s *PipelineService) captureStageError(stage string, err error) {
	s.log.WithStage(stage).Error("stage error", zap.Error(err))
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", stage)
		sentry.CaptureException(err)
	})
}

func (s *PipelineService) finish(report *model.ExecutionReport, exit int) {
	report.FinishedAt = time.Now().UTC()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)
	report.ExitCode = exit

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	s.log.Info("pipeline finished",
		zap.Int("exit_code", exit),
		zap.Int("extracted", report.Extracted),
		zap.Int("processed", report.Processed),
		zap.Int("matched", report.Matched),
		zap.Int("gate_rejected", report.GateRejected),
		zap.Int("submitted", report.Submitted),
		zap.Float64("success_rate", report.SuccessRate),
	)

	if s.mailer != nil {
		subject := fmt.Sprintf("autoapply run: %d submitted, exit %d", report.Submitted, exit)
		if err := s.mailer.Send(context.Background(), subject, renderReportHTML(report)); err != nil {
			s.log.Warn("report mail failed", zap.Error(err))
		}
	}
}

func renderReportHTML(r *model.ExecutionReport) string {
	return fmt.Sprintf(
		`<h2>Pipeline run %s</h2>
<ul>
<li>extracted: %d (dedup skipped: %d)</li>
<li>processed: %d (fallback: %d)</li>
<li>matched: %d, gate rejected: %d</li>
<li>submit-ready: %d, submitted: %d, failed: %d</li>
<li>already applied: %d, suspended: %d, button not found: %d</li>
<li>success rate: %.2f</li>
<li>duration: %s</li>
<li>first error: %s</li>
</ul>`,
		r.StartedAt.Format(time.RFC3339),
		r.Extracted, r.DedupSkipped,
		r.Processed, r.FallbackUsed,
		r.Matched, r.GateRejected,
		r.SubmitReady, r.Submitted, r.SubmitFailed,
		r.AlreadyApplied, r.Suspended, r.ButtonNotFound,
		r.SuccessRate,
		r.Duration.Round(time.Second),
		r.FirstError,
	)
}
