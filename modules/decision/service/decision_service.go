package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	"github.com/andreypavlenko/autoapply/modules/decision/model"
	"github.com/andreypavlenko/autoapply/modules/decision/ports"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	matchports "github.com/andreypavlenko/autoapply/modules/matcher/ports"
	"go.uber.org/zap"
)

// DecisionService gates matches on salary, assigns priorities, and
// enforces the daily submission quota.
type DecisionService struct {
	matches    matchports.MatchRepository
	reputation ports.ReputationLookup
	counter    ports.SubmissionCounter
	cfg        config.DecideConfig
	log        *logger.Logger

	mu     sync.Mutex
	window []bool // true = rejected, most recent last
	stats  model.GateStats
}

// NewDecisionService creates a new decision engine
func NewDecisionService(
	matches matchports.MatchRepository,
	reputation ports.ReputationLookup,
	counter ports.SubmissionCounter,
	cfg config.DecideConfig,
	log *logger.Logger,
) *DecisionService {
	return &DecisionService{
		matches:    matches,
		reputation: reputation,
		counter:    counter,
		cfg:        cfg,
		log:        log,
	}
}

// DecideAndStore annotates freshly scored matches with the gate outcome,
// priority, and submit flag, then persists them. Matcher output and
// decision are stored together so a match row is never half-decided.
func (s *DecisionService) DecideAndStore(ctx context.Context, profile *matchmodel.ResumeProfile, jobs []*jobmodel.Job, matches []*matchmodel.ResumeMatch) (model.GateStats, error) {
	jobByID := make(map[string]*jobmodel.Job, len(jobs))
	for _, job := range jobs {
		jobByID[job.ID] = job
	}

	submittedToday, err := s.counter.CountSubmissionsToday(ctx)
	if err != nil {
		return model.GateStats{}, err
	}
	budget := s.cfg.MaxSubmissionsPerDay - submittedToday

	stats := model.GateStats{ByBand: map[string]int{}}
	for _, match := range matches {
		job := jobByID[match.JobID]
		s.decide(ctx, profile, job, match, &budget)

		stats.Evaluated++
		if match.Decision == matchmodel.DecisionRejectedByGate {
			stats.Rejected++
		}
		if job != nil {
			stats.ByBand[s.band(job.Title)]++
		}
		s.recordOutcome(match.Decision == matchmodel.DecisionRejectedByGate)

		if err := s.matches.Insert(ctx, match); err != nil {
			return stats, err
		}
	}

	if stats.Evaluated > 0 {
		stats.RejectionRate = float64(stats.Rejected) / float64(stats.Evaluated)
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()

	s.log.WithStage("decide").Info("decision batch complete",
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("gate_rejected", stats.Rejected),
	)
	return stats, nil
}

func (s *DecisionService) decide(ctx context.Context, profile *matchmodel.ResumeProfile, job *jobmodel.Job, match *matchmodel.ResumeMatch, budget *int) {
	threshold := s.cfg.MinSalaryScore
	title := ""
	if job != nil {
		title = job.Title
		switch s.band(title) {
		case model.BandSenior:
			threshold = s.cfg.SeniorSalaryScore
		case model.BandEntry:
			threshold = s.cfg.EntrySalaryScore
		}
	}

	if match.Scores.Salary < threshold {
		match.Decision = matchmodel.DecisionRejectedByGate
		match.Priority = matchmodel.PriorityLow
		match.ShouldSubmit = false
		return
	}

	priorityScore := s.priorityScore(ctx, profile, job, match)
	match.Priority = priorityFromScore(priorityScore)

	submit := match.Priority.Rank() <= matchmodel.PriorityMedium.Rank()
	if submit && *budget <= 0 {
		// Daily quota exhausted: the match survives the gate but is not
		// emitted as submit-ready today
		submit = false
	}
	if submit {
		*budget--
		match.Decision = matchmodel.DecisionSubmit
	} else {
		match.Decision = matchmodel.DecisionSkip
	}
	match.ShouldSubmit = submit
}

// priorityScore blends the match score (dominant weight) with company
// reputation, salary attractiveness, location preference, a career
// growth hint and a competition proxy (neutral without a signal).
func (s *DecisionService) priorityScore(ctx context.Context, profile *matchmodel.ResumeProfile, job *jobmodel.Job, match *matchmodel.ResumeMatch) float64 {
	w := s.cfg.PriorityWeights

	var rep, location, growth float64 = 0.5, 0.5, 0.5
	if job != nil {
		rep = s.reputation.Reputation(ctx, job.Company)
		location = locationScore(profile, job.Location)
		growth = 0.5
		if s.band(job.Title) == model.BandSenior {
			growth = 1.0
		}
	}

	score := w["match_score"]*match.OverallScore +
		w["reputation"]*rep +
		w["salary"]*match.Scores.Salary +
		w["location"]*location +
		w["career_growth"]*growth +
		w["competition"]*0.5

	var total float64
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return match.OverallScore
	}
	return clamp01(score / total)
}

// SelectSubmitReady returns up to k submit-ready pending matches in
// (priority, score) order. Because the gate rejects a large share, the
// store is asked for k×multiplier raw rows, the multiplier derived from
// the running rejection rate.
func (s *DecisionService) SelectSubmitReady(ctx context.Context, k int) ([]*matchmodel.PendingMatch, error) {
	raw, err := s.matches.ListUnprocessed(ctx, k*s.multiplier(), 0)
	if err != nil {
		return nil, err
	}

	var ready []*matchmodel.PendingMatch
	for _, pm := range raw {
		if !pm.Match.ShouldSubmit {
			continue
		}
		if pm.Match.Scores.Salary < s.cfg.MinSalaryScore {
			continue
		}
		ready = append(ready, pm)
	}

	sort.SliceStable(ready, func(i, j int) bool {
		ri, rj := ready[i].Match.Priority.Rank(), ready[j].Match.Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return ready[i].Match.OverallScore > ready[j].Match.OverallScore
	})

	// The daily quota caps the batch regardless of what remains pending
	submittedToday, err := s.counter.CountSubmissionsToday(ctx)
	if err != nil {
		return nil, err
	}
	budget := s.cfg.MaxSubmissionsPerDay - submittedToday
	if budget < 0 {
		budget = 0
	}
	if k > budget {
		k = budget
	}
	if len(ready) > k {
		ready = ready[:k]
	}
	return ready, nil
}

// multiplier = max(2, ceil(1/(1-rejection_rate))+1) over the running window
func (s *DecisionService) multiplier() int {
	rate := s.rejectionRate()
	if rate >= 1 {
		rate = 0.99
	}
	// The small epsilon keeps float error from pushing an exact quotient
	// (e.g. 1/(1-0.9) = 10.000000000000002) up to the next integer
	m := int(math.Ceil(1/(1-rate)-1e-9)) + 1
	if m < 2 {
		m = 2
	}
	return m
}

func (s *DecisionService) rejectionRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.window) == 0 {
		return s.cfg.InitialRejectionRate
	}
	var rejected int
	for _, r := range s.window {
		if r {
			rejected++
		}
	}
	return float64(rejected) / float64(len(s.window))
}

func (s *DecisionService) recordOutcome(rejected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = append(s.window, rejected)
	if len(s.window) > s.cfg.RejectionWindow {
		s.window = s.window[len(s.window)-s.cfg.RejectionWindow:]
	}
}

// Stats returns the gate statistics of the last decision batch
func (s *DecisionService) Stats() model.GateStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *DecisionService) band(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range s.cfg.SeniorKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return model.BandSenior
		}
	}
	for _, kw := range s.cfg.EntryKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return model.BandEntry
		}
	}
	return model.BandDefault
}

func locationScore(profile *matchmodel.ResumeProfile, jobLocation string) float64 {
	if len(profile.PreferredLocations) == 0 {
		return 0.5
	}
	lower := strings.ToLower(jobLocation)
	for _, pref := range profile.PreferredLocations {
		if pref == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pref)) {
			return 1
		}
	}
	return 0
}

func priorityFromScore(score float64) matchmodel.Priority {
	switch {
	case score >= 0.85:
		return matchmodel.PriorityUrgent
	case score >= 0.70:
		return matchmodel.PriorityHigh
	case score >= 0.55:
		return matchmodel.PriorityMedium
	default:
		return matchmodel.PriorityLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
