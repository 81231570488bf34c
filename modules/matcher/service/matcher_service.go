package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	"github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/andreypavlenko/autoapply/modules/matcher/ports"
	"github.com/andreypavlenko/autoapply/modules/matcher/salary"
	"github.com/andreypavlenko/autoapply/modules/matcher/skills"
	vsmodel "github.com/andreypavlenko/autoapply/modules/vectorstore/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MatcherService scores jobs against a resume profile across the
// semantic, skill, experience, salary and industry dimensions.
type MatcherService struct {
	vectors ports.VectorSearcher
	cfg     config.MatchConfig
	log     *logger.Logger
}

// NewMatcherService creates a new matcher service
func NewMatcherService(vectors ports.VectorSearcher, cfg config.MatchConfig, log *logger.Logger) *MatcherService {
	return &MatcherService{vectors: vectors, cfg: cfg, log: log}
}

// MatchJobs scores every job concurrently and returns one unsaved match
// per job, in input order. Per-job scoring failures degrade the semantic
// dimension rather than failing the batch.
func (s *MatcherService) MatchJobs(ctx context.Context, profile *model.ResumeProfile, jobs []*jobmodel.Job) ([]*model.ResumeMatch, error) {
	matches := make([]*model.ResumeMatch, len(jobs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			match := s.ScoreJob(gctx, profile, job)
			mu.Lock()
			matches[i] = match
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// ScoreJob computes the full dimension breakdown for one job
func (s *MatcherService) ScoreJob(ctx context.Context, profile *model.ResumeProfile, job *jobmodel.Job) *model.ResumeMatch {
	skillRes := skills.Match(job.Skills, profile.AllSkills())

	scores := model.DimensionScores{
		Semantic:   s.semanticScore(ctx, profile, job),
		Skill:      s.skillScore(profile, skillRes),
		Experience: experienceScore(profile.TotalYears, job.Experience),
		Salary:     salaryScore(profile.SalaryExpectation, job.SalaryRaw),
		Industry:   0.5,
	}

	w := s.cfg.Weights
	overall := w.Semantic*scores.Semantic +
		w.Skill*scores.Skill +
		w.Experience*scores.Experience +
		w.Salary*scores.Salary +
		w.Industry*scores.Industry
	overall = clamp01(overall)

	return &model.ResumeMatch{
		JobID:         job.ID,
		OverallScore:  overall,
		Scores:        scores,
		MatchedSkills: skillRes.Matched,
	}
}

// semanticScore retrieves the job's own documents with the candidate
// query and aggregates cosine scores by document type. When the vector
// path yields nothing it falls back to weighted lexical overlap; TF-IDF
// is deliberately not used.
func (s *MatcherService) semanticScore(ctx context.Context, profile *model.ResumeProfile, job *jobmodel.Job) float64 {
	query := buildQuery(profile, s.cfg.TopSkills)
	if query == "" {
		return 0.5
	}

	docs, err := s.vectors.TimeAwareSearch(ctx, query, s.cfg.SearchK,
		vsmodel.SearchStrategy(s.cfg.SearchStrategy),
		&vsmodel.SearchFilter{JobID: job.ID},
	)
	if err != nil {
		s.log.WithJobID(job.ID).Warn("vector search failed, using lexical fallback", zap.Error(err))
		docs = nil
	}
	if len(docs) == 0 {
		return s.lexicalScore(query, job)
	}

	// Type-weighted mean of per-type mean scores
	sums := make(map[vsmodel.DocumentType]float64)
	counts := make(map[vsmodel.DocumentType]int)
	for _, d := range docs {
		sums[d.Document.DocumentType] += d.Score
		counts[d.Document.DocumentType]++
	}

	var weighted, weightTotal float64
	for docType, sum := range sums {
		weight := s.cfg.DocTypeWeights[string(docType)]
		if weight == 0 {
			continue
		}
		weighted += weight * (sum / float64(counts[docType]))
		weightTotal += weight
	}
	if weightTotal == 0 {
		return 0.5
	}
	return clamp01(weighted / weightTotal)
}

// lexicalScore is the vector-less fallback: token overlap between the
// candidate query and each document-type text, same type weights.
func (s *MatcherService) lexicalScore(query string, job *jobmodel.Job) float64 {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0.5
	}

	typeTexts := map[string]string{
		"overview":       job.Title + " " + job.Company,
		"responsibility": strings.Join(job.Responsibilities, " "),
		"requirement":    strings.Join(job.Requirements, " "),
		"skills":         strings.Join(job.Skills, " "),
	}

	var weighted, weightTotal float64
	for docType, text := range typeTexts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		weight := s.cfg.DocTypeWeights[docType]
		if weight == 0 {
			continue
		}
		weighted += weight * overlap(queryTokens, tokenize(text))
		weightTotal += weight
	}
	if weightTotal == 0 {
		return 0.5
	}
	return clamp01(weighted / weightTotal)
}

func (s *MatcherService) skillScore(profile *model.ResumeProfile, res skills.MatchResult) float64 {
	if len(profile.AllSkills()) == 0 && res.Required > 0 {
		return 0
	}
	return skills.Score(res, len(profile.AllSkills()))
}

func buildQuery(profile *model.ResumeProfile, topSkills int) string {
	parts := profile.TopSkills(topSkills)
	if profile.CurrentPosition != "" {
		parts = append(parts, profile.CurrentPosition)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

var yearsRe = regexp.MustCompile(`(\d+)`)

// experienceScore compares candidate years with the job's parsed
// requirement: min(1, have/need), or 1 when no requirement is stated.
func experienceScore(candidateYears float64, jobExperience string) float64 {
	m := yearsRe.FindStringSubmatch(jobExperience)
	if m == nil {
		return 1
	}
	need, err := strconv.ParseFloat(m[1], 64)
	if err != nil || need <= 0 {
		return 1
	}
	score := candidateYears / need
	if score > 1 {
		score = 1
	}
	return score
}

// salaryScore is the overlap ratio between the job's parsed range and
// the candidate's expected range; missing data is neutral.
func salaryScore(expected model.SalaryRange, salaryRaw string) float64 {
	jobRange, ok := salary.Parse(salaryRaw)
	if !ok || expected.IsZero() {
		return 0.5
	}

	ratio := salary.OverlapRatio(jobRange, salary.Range{Min: expected.Min, Max: expected.Max})
	return clamp01(ratio)
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

func overlap(query, text map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for tok := range query {
		if _, ok := text[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
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
