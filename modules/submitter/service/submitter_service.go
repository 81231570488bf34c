package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/browser"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/andreypavlenko/autoapply/modules/submitter/model"
	"github.com/andreypavlenko/autoapply/modules/submitter/ports"
	"go.uber.org/zap"
)

const keepAliveScript = `() => document.readyState`

// SubmitterService executes submissions one at a time in priority-then-
// score order, pacing requests and keeping the browser session alive
// between batches. A match is submitted at most once per its lifetime.
type SubmitterService struct {
	session        *browser.Session
	repo           ports.SubmissionRepository
	jobs           ports.JobSoftDeleter
	archiver       ports.SnapshotArchiver
	applySelectors map[string][]string // keyed by site tag
	cfg            config.SubmitConfig
	maxPerDay      int
	log            *logger.Logger
}

// NewSubmitterService creates a new submitter
func NewSubmitterService(
	session *browser.Session,
	repo ports.SubmissionRepository,
	jobs ports.JobSoftDeleter,
	archiver ports.SnapshotArchiver,
	applySelectors map[string][]string,
	cfg config.SubmitConfig,
	maxPerDay int,
	log *logger.Logger,
) *SubmitterService {
	return &SubmitterService{
		session:        session,
		repo:           repo,
		jobs:           jobs,
		archiver:       archiver,
		applySelectors: applySelectors,
		cfg:            cfg,
		maxPerDay:      maxPerDay,
		log:            log.WithStage("submit"),
	}
}

// Repair restores the processed⇔terminal-log invariant on startup
func (s *SubmitterService) Repair(ctx context.Context) error {
	repaired, err := s.repo.RepairInconsistencies(ctx)
	if err != nil {
		return err
	}
	if repaired > 0 {
		s.log.Warn("repaired matches with terminal logs left unprocessed", zap.Int("count", repaired))
	}
	return nil
}

// SubmitBatch walks the pending matches in order. The batch ends early
// on cancellation, daily quota, login requirement, or unrecoverable
// session loss; the in-flight match is left unprocessed in every case.
func (s *SubmitterService) SubmitBatch(ctx context.Context, pending []*matchmodel.PendingMatch) (*model.SubmitStats, error) {
	stats := &model.SubmitStats{}

	s.session.Acquire()
	defer s.session.Release()
	if len(pending) > 0 {
		if err := s.session.Ensure(ctx); err != nil {
			return stats, fmt.Errorf("browser session unavailable: %w", err)
		}
	}

	sinceRest := 0
	for _, pm := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		// The quota is re-read from the store before every attempt; other
		// writers share the same counter
		count, err := s.repo.CountSubmissionsToday(ctx)
		if err != nil {
			return stats, err
		}
		if count >= s.maxPerDay {
			s.log.Info("daily submission quota reached", zap.Int("count", count))
			return stats, nil
		}

		status := s.submitOne(ctx, pm, stats)
		if status == model.StatusLoginRequired {
			stats.LoginRequired = true
			return stats, model.ErrLoginRequired
		}

		sinceRest++
		if s.cfg.BatchRestEvery > 0 && sinceRest >= s.cfg.BatchRestEvery {
			sinceRest = 0
			if err := s.batchRest(ctx); err != nil {
				if errors.Is(err, model.ErrSessionRecoveryFailed) {
					stats.LoginRequired = true
					s.log.Warn("session recovery failed, terminating batch")
					return stats, nil
				}
				return stats, err
			}
		} else {
			s.pause(ctx, s.cfg.MinDelay, s.cfg.MaxDelay)
		}
	}
	return stats, nil
}

// submitOne runs the single-submission protocol for one match and
// records its terminal outcome
func (s *SubmitterService) submitOne(ctx context.Context, pm *matchmodel.PendingMatch, stats *model.SubmitStats) model.SubmissionStatus {
	stats.Attempted++
	driver := s.session.Driver()
	log := s.log.WithMatchID(pm.Match.ID).WithJobID(pm.Match.JobID)

	if err := browser.Retry(ctx, browser.DefaultRetryAttempts, func() error {
		return driver.Navigate(ctx, pm.JobURL)
	}); err != nil {
		log.Warn("job page unreachable", zap.Error(err))
		s.finalize(ctx, pm, &model.SubmissionLog{
			Status: model.StatusPageError,
			Reason: fmt.Sprintf("navigation failed: %v", err),
		}, stats)
		return model.StatusPageError
	}

	det := detect(driver, s.applySelectors[pm.Site])
	status := classify(det, s.cfg)
	log.Info("status detected",
		zap.String("status", string(status)),
		zap.String("button_text", det.ButtonText),
		zap.Int64("detection_ms", det.Latency.Milliseconds()),
	)

	entry := &model.SubmissionLog{
		Status:      status,
		PageTitle:   det.PageTitle,
		ButtonText:  det.ButtonText,
		ButtonClass: det.ButtonClass,
		PageSnippet: det.PageSource,
		DetectionMS: det.Latency.Milliseconds(),
	}

	switch status {
	case model.StatusJobSuspended:
		// The cascade removes the match; only the log remains
		entry.Reason = "position suspended by site"
		s.archive(ctx, pm.Match.JobID, entry, det)
		if err := s.jobs.SoftDelete(ctx, pm.Match.JobID, entry.Reason); err != nil {
			log.Error("soft delete failed", zap.Error(err))
		}
		s.appendLog(ctx, pm, entry)
		stats.Suspended++

	case model.StatusAlreadyApplied:
		entry.Reason = "application already on file"
		s.finalize(ctx, pm, entry, stats)

	case model.StatusJobExpired:
		entry.Reason = "position expired"
		s.archive(ctx, pm.Match.JobID, entry, det)
		s.finalize(ctx, pm, entry, stats)

	case model.StatusButtonNotFound:
		entry.Reason = "apply button not located"
		s.archive(ctx, pm.Match.JobID, entry, det)
		s.finalize(ctx, pm, entry, stats)

	case model.StatusLoginRequired:
		entry.Reason = "site requires login"
		s.appendLog(ctx, pm, entry)

	case model.StatusPending:
		return s.executeClick(ctx, pm, det, entry, stats)
	}
	return status
}

// executeClick performs (or, in dry-run, suppresses) the apply click.
// Click failure is a terminal outcome: the match is never re-attempted
// in a later batch.
func (s *SubmitterService) executeClick(ctx context.Context, pm *matchmodel.PendingMatch, det *model.Detection, entry *model.SubmissionLog, stats *model.SubmitStats) model.SubmissionStatus {
	log := s.log.WithMatchID(pm.Match.ID)

	if s.cfg.DryRun {
		entry.Status = model.StatusDryRun
		entry.Reason = "dry run, click suppressed"
		s.finalize(ctx, pm, entry, stats)
		return model.StatusDryRun
	}

	driver := s.session.Driver()
	button := s.findApplyButton(driver, pm.Site)
	if button == nil {
		entry.Status = model.StatusButtonNotFound
		entry.Reason = "apply button vanished before click"
		s.finalize(ctx, pm, entry, stats)
		return model.StatusButtonNotFound
	}

	strategy, err := browser.ClickWithStrategies(button)
	if err != nil {
		entry.Status = model.StatusPageError
		entry.Reason = fmt.Sprintf("apply click failed: %v", err)
		s.archive(ctx, pm.Match.JobID, entry, det)
		s.finalize(ctx, pm, entry, stats)
		return model.StatusPageError
	}

	if !s.verifyClick(driver, pm.Site, det) {
		entry.Status = model.StatusPageError
		entry.Reason = "click issued but no state change observed"
		s.archive(ctx, pm.Match.JobID, entry, det)
		s.finalize(ctx, pm, entry, stats)
		return model.StatusPageError
	}

	entry.Status = model.StatusSuccess
	entry.Reason = "applied via " + strategy + " click"
	s.finalize(ctx, pm, entry, stats)
	log.Info("application submitted", zap.String("strategy", strategy))
	return model.StatusSuccess
}

// verifyClick confirms success by observing a button state change or a
// page transition
func (s *SubmitterService) verifyClick(driver browser.Driver, site string, before *model.Detection) bool {
	after := detect(driver, s.applySelectors[site])
	if !after.ButtonFound {
		// Button gone usually means the page transitioned
		return true
	}
	if after.ButtonText != before.ButtonText || after.ButtonClass != before.ButtonClass {
		return true
	}
	return containsAny(after.ButtonText, s.cfg.AppliedIndicators)
}

func (s *SubmitterService) findApplyButton(driver browser.Driver, site string) browser.Element {
	for _, selector := range s.applySelectors[site] {
		els, err := driver.FindAll(selector)
		if err == nil && len(els) > 0 {
			return els[0]
		}
	}
	return nil
}

// finalize writes the terminal log and flips the processed flag in one
// transaction. A concurrent flip surfaces as already-processed and is
// logged, keeping the at-most-once guarantee.
func (s *SubmitterService) finalize(ctx context.Context, pm *matchmodel.PendingMatch, entry *model.SubmissionLog, stats *model.SubmitStats) {
	entry.MatchID = pm.Match.ID
	entry.JobID = pm.Match.JobID

	if err := s.repo.Finalize(ctx, entry); err != nil {
		if errors.Is(err, matchmodel.ErrMatchAlreadyProcessed) {
			s.log.WithMatchID(pm.Match.ID).Warn("match was already processed, outcome dropped",
				zap.String("status", string(entry.Status)))
			return
		}
		s.log.WithMatchID(pm.Match.ID).Error("failed to finalize submission", zap.Error(err))
		return
	}

	switch entry.Status {
	case model.StatusSuccess:
		stats.Succeeded++
	case model.StatusAlreadyApplied:
		stats.AlreadyApplied++
	case model.StatusJobExpired:
		stats.Expired++
	case model.StatusButtonNotFound:
		stats.ButtonNotFound++
	case model.StatusPageError:
		stats.Failed++
	case model.StatusDryRun:
		stats.DryRun++
	}
}

func (s *SubmitterService) appendLog(ctx context.Context, pm *matchmodel.PendingMatch, entry *model.SubmissionLog) {
	entry.MatchID = pm.Match.ID
	entry.JobID = pm.Match.JobID
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		s.log.WithMatchID(pm.Match.ID).Error("failed to append submission log", zap.Error(err))
	}
}

// archive stores the page snapshot of an anomalous attempt when an
// archiver is configured
func (s *SubmitterService) archive(ctx context.Context, jobID string, entry *model.SubmissionLog, det *model.Detection) {
	if s.archiver == nil || det.PageSource == "" {
		return
	}
	key, err := s.archiver.ArchiveSnapshot(ctx, jobID, string(entry.Status), det.PageSource)
	if err != nil {
		s.log.WithJobID(jobID).Warn("snapshot archival failed", zap.Error(err))
		return
	}
	entry.SnapshotKey = key
}

// batchRest sleeps the extended rest window, probing the session every
// keep-alive interval. A failed probe triggers one recovery attempt.
func (s *SubmitterService) batchRest(ctx context.Context) error {
	rest := s.cfg.BatchRestMin
	if spread := s.cfg.BatchRestMax - s.cfg.BatchRestMin; spread > 0 {
		rest += time.Duration(rand.Int63n(int64(spread)))
	}
	s.log.Info("batch rest", zap.Duration("duration", rest))

	deadline := time.Now().Add(rest)
	for time.Now().Before(deadline) {
		wait := s.cfg.KeepAliveInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if _, err := s.session.Driver().ExecuteScript(keepAliveScript); err != nil {
			s.log.Warn("keep-alive probe failed, attempting session recovery", zap.Error(err))
			if err := s.recoverSession(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// recoverSession closes and re-establishes the driver, then waits a
// bounded time for the human re-login to complete. One attempt only.
func (s *SubmitterService) recoverSession(ctx context.Context) error {
	if err := s.session.Reset(ctx); err != nil {
		return model.ErrSessionRecoveryFailed
	}
	s.log.Warn("browser session re-established, waiting for re-login",
		zap.Duration("timeout", s.cfg.ReloginTimeout))

	deadline := time.Now().Add(s.cfg.ReloginTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.KeepAliveInterval):
		}
		if _, err := s.session.Driver().ExecuteScript(keepAliveScript); err == nil {
			return nil
		}
	}
	return model.ErrSessionRecoveryFailed
}

func (s *SubmitterService) pause(ctx context.Context, min, max time.Duration) {
	delay := min
	if spread := max - min; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
