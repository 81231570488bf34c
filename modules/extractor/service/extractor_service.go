package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/browser"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	"github.com/andreypavlenko/autoapply/modules/extractor/model"
	"github.com/andreypavlenko/autoapply/modules/extractor/ports"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const salaryFilterAttempts = 3

// ExtractorService drives the browser across search keywords and pages,
// deduplicates by fingerprint before opening detail pages, and inserts
// new jobs into the store. Keywords run strictly sequentially: the
// browser driver does not tolerate concurrent use.
type ExtractorService struct {
	session *browser.Session
	store   ports.JobStore
	cfg     config.ExtractConfig
	site    config.SiteConfig
	log     *logger.Logger
	limiter *rate.Limiter
}

// NewExtractorService creates an extractor bound to one site configuration
func NewExtractorService(session *browser.Session, store ports.JobStore, cfg config.ExtractConfig, site config.SiteConfig, log *logger.Logger) *ExtractorService {
	// The limiter is a hard floor beneath the randomized delays
	minDelay := cfg.MinDelay
	if minDelay <= 0 {
		minDelay = time.Second
	}
	return &ExtractorService{
		session: session,
		store:   store,
		cfg:     cfg,
		site:    site,
		log:     log.WithStage("extract"),
		limiter: rate.NewLimiter(rate.Every(minDelay), 1),
	}
}

// Extract runs every keyword in order and aggregates the stats.
// Site-level failures terminate a keyword with a warning, never the run.
func (s *ExtractorService) Extract(ctx context.Context, keywords []string) (*model.ExtractStats, error) {
	stats := &model.ExtractStats{}

	s.session.Acquire()
	defer s.session.Release()
	if err := s.session.Ensure(ctx); err != nil {
		return stats, fmt.Errorf("browser session unavailable: %w", err)
	}
	driver := s.session.Driver()

	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ks := s.extractKeyword(ctx, driver, keyword)
		stats.Add(ks)
	}
	return stats, nil
}

func (s *ExtractorService) extractKeyword(ctx context.Context, driver browser.Driver, keyword string) model.KeywordStats {
	log := s.log.WithKeyword(keyword)
	ks := model.KeywordStats{Keyword: keyword}

	pageURL := s.searchURL(keyword, 1)
	if err := browser.Retry(ctx, browser.DefaultRetryAttempts, func() error {
		return driver.Navigate(ctx, pageURL)
	}); err != nil {
		ks.Warnings = append(ks.Warnings, fmt.Sprintf("keyword %q: search page unreachable: %v", keyword, err))
		log.Warn("search page unreachable", zap.Error(err))
		return ks
	}

	if s.cfg.SalaryFilterOn {
		s.applySalaryFilter(driver, &ks, log)
	}

	for page := 1; page <= s.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			return ks
		}
		ks.PagesVisited++

		if ok := s.extractPage(ctx, driver, keyword, page, &ks, log); !ok {
			return ks
		}
		if ks.Failed > s.cfg.MaxCardFails {
			ks.Warnings = append(ks.Warnings, fmt.Sprintf("keyword %q: card failure budget exhausted", keyword))
			return ks
		}

		if page == s.cfg.MaxPages {
			break
		}
		if !s.nextPage(ctx, driver, keyword, page+1, &ks, log) {
			return ks
		}
	}
	return ks
}

// applySalaryFilter tries the configured locator strategies a bounded
// number of times. Failure is a warning, not a fault.
func (s *ExtractorService) applySalaryFilter(driver browser.Driver, ks *model.KeywordStats, log *logger.Logger) {
	for attempt := 0; attempt < salaryFilterAttempts; attempt++ {
		for _, selector := range s.site.SalaryFilterSelectors {
			els, err := driver.FindAll(selector)
			if err != nil || len(els) == 0 {
				continue
			}
			if _, err := browser.ClickWithStrategies(els[0]); err == nil {
				return
			}
		}
	}
	ks.Warnings = append(ks.Warnings, "salary filter could not be applied")
	log.Warn("salary filter could not be applied")
}

// extractPage walks the job cards of the current page. Returns false
// when the keyword should terminate.
func (s *ExtractorService) extractPage(ctx context.Context, driver browser.Driver, keyword string, page int, ks *model.KeywordStats, log *logger.Logger) bool {
	cards := s.findCards(driver)
	if len(cards) == 0 {
		ks.Warnings = append(ks.Warnings, fmt.Sprintf("keyword %q page %d: no job cards found", keyword, page))
		log.Warn("no job cards found", zap.Int("page", page))
		return false
	}

	for i := range cards {
		if ctx.Err() != nil {
			return false
		}
		// Cards are re-queried after each detail visit: navigating away
		// and back invalidates previously held elements
		cards = s.findCards(driver)
		if i >= len(cards) {
			break
		}
		s.processCard(ctx, driver, cards[i], keyword, page, ks, log)
		s.pace(ctx)
	}
	return true
}

// findCards tries the ordered selector strategies; the first one that
// yields at least one element wins.
func (s *ExtractorService) findCards(driver browser.Driver) []browser.Element {
	for _, selector := range s.site.CardSelectors {
		els, err := driver.FindAll(selector)
		if err == nil && len(els) > 0 {
			return els
		}
	}
	return nil
}

func (s *ExtractorService) processCard(ctx context.Context, driver browser.Driver, card browser.Element, keyword string, page int, ks *model.KeywordStats, log *logger.Logger) {
	ks.CardsSeen++

	title := s.childText(card, s.site.TitleSelector)
	company := s.childText(card, s.site.CompanySelector)
	salaryRaw := s.childText(card, s.site.SalarySelector)
	location := s.childText(card, s.site.LocationSelector)

	if title == "" || company == "" {
		ks.Failed++
		ks.FailedJobs = append(ks.FailedJobs, model.FailedJob{
			Keyword: keyword, Page: page, Title: title, Company: company,
			Reason: "card missing title or company",
		})
		return
	}

	// Fingerprint check from list-page fields: a hit skips the detail
	// page entirely, which is the primary cost optimization
	known, err := s.store.IsKnown(ctx, title, company, salaryRaw, location)
	if err != nil {
		ks.Failed++
		ks.FailedJobs = append(ks.FailedJobs, model.FailedJob{
			Keyword: keyword, Page: page, Title: title, Company: company,
			Reason: fmt.Sprintf("fingerprint lookup failed: %v", err),
		})
		return
	}
	if known {
		ks.DedupSkipped++
		return
	}

	listURL, _ := driver.CurrentURL()
	if _, err := browser.ClickWithStrategies(card); err != nil {
		ks.Failed++
		ks.FailedJobs = append(ks.FailedJobs, model.FailedJob{
			Keyword: keyword, Page: page, Title: title, Company: company,
			Reason: fmt.Sprintf("detail click failed: %v", err),
		})
		log.Warn("detail click failed", zap.String("title", title), zap.Error(err))
		return
	}

	raw := &jobmodel.RawJob{
		Title:     title,
		Company:   company,
		Location:  location,
		SalaryRaw: salaryRaw,
		Site:      s.site.Name,
	}
	s.extractDetail(driver, raw)

	if _, wasNew, err := s.store.InsertIfNew(ctx, raw); err != nil {
		ks.Failed++
		ks.FailedJobs = append(ks.FailedJobs, model.FailedJob{
			Keyword: keyword, Page: page, Title: title, Company: company,
			Reason: fmt.Sprintf("insert failed: %v", err),
		})
	} else if wasNew {
		ks.Extracted++
	} else {
		ks.DedupSkipped++
	}

	// Return to the listing before touching the next card
	if listURL != "" {
		if err := driver.Navigate(ctx, listURL); err != nil {
			log.Warn("failed to return to listing", zap.Error(err))
		}
	}
}

func (s *ExtractorService) extractDetail(driver browser.Driver, raw *jobmodel.RawJob) {
	if u, err := driver.CurrentURL(); err == nil {
		raw.URL = u
		raw.JobID = jobIDFromURL(u)
	}
	if s.site.DescriptionSelector != "" {
		if els, err := driver.FindAll(s.site.DescriptionSelector); err == nil && len(els) > 0 {
			if text, err := els[0].Text(); err == nil {
				raw.Description = text
			}
		}
	}
	if raw.Description == "" {
		// Fall back to the whole page text so processing has something
		if src, err := driver.PageSource(); err == nil {
			raw.Description = src
		}
	}
}

// nextPage advances via the next-page control, falling back to the
// refresh-and-renavigate recovery. Returns false when the keyword ends.
func (s *ExtractorService) nextPage(ctx context.Context, driver browser.Driver, keyword string, target int, ks *model.KeywordStats, log *logger.Logger) bool {
	els, err := driver.FindAll(s.site.NextPageSelector)
	if err == nil && len(els) > 0 {
		if _, err := browser.ClickWithStrategies(els[0]); err == nil {
			if s.onPage(driver, target) {
				return true
			}
		}
	}

	// Recovery: back to page 1, then navigate directly to the target and
	// validate the landed page number
	log.Warn("next-page failed, recovering", zap.Int("target", target))
	if err := driver.Navigate(ctx, s.searchURL(keyword, 1)); err != nil {
		ks.Warnings = append(ks.Warnings, fmt.Sprintf("keyword %q: pagination recovery failed: %v", keyword, err))
		return false
	}
	if err := driver.Navigate(ctx, s.searchURL(keyword, target)); err != nil {
		ks.Warnings = append(ks.Warnings, fmt.Sprintf("keyword %q: pagination recovery failed: %v", keyword, err))
		return false
	}
	if !s.onPage(driver, target) {
		ks.Warnings = append(ks.Warnings, fmt.Sprintf("keyword %q: landed on wrong page, terminating", keyword))
		return false
	}
	return true
}

// onPage validates the landed page number when a selector is configured
func (s *ExtractorService) onPage(driver browser.Driver, want int) bool {
	if s.site.PageNumberSelector == "" {
		return true
	}
	els, err := driver.FindAll(s.site.PageNumberSelector)
	if err != nil || len(els) == 0 {
		return true
	}
	text, err := els[0].Text()
	if err != nil {
		return true
	}
	got, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return true
	}
	return got == want
}

func (s *ExtractorService) childText(el browser.Element, selector string) string {
	if selector == "" {
		return ""
	}
	child, err := el.Find(selector)
	if err != nil {
		return ""
	}
	text, err := child.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// pace blocks for the rate-limiter floor plus a randomized delay
func (s *ExtractorService) pace(ctx context.Context) {
	_ = s.limiter.Wait(ctx)
	spread := s.cfg.MaxDelay - s.cfg.MinDelay
	if spread <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(rand.Int63n(int64(spread)))):
	}
}

func (s *ExtractorService) searchURL(keyword string, page int) string {
	u := strings.ReplaceAll(s.site.SearchURLTemplate, "{keyword}", keyword)
	return strings.ReplaceAll(u, "{page}", strconv.Itoa(page))
}

func jobIDFromURL(u string) string {
	trimmed := strings.TrimRight(u, "/")
	if i := strings.LastIndexAny(trimmed, "/="); i >= 0 && i < len(trimmed)-1 {
		id := trimmed[i+1:]
		if j := strings.IndexAny(id, "?&#"); j >= 0 {
			id = id[:j]
		}
		if id != "" {
			return id
		}
	}
	return u
}
