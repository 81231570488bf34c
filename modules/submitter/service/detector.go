package service

import (
	"strings"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/browser"
	"github.com/andreypavlenko/autoapply/modules/submitter/model"
)

// detect takes the one-shot page snapshot: source, title and apply
// button in a single DOM pass. Later classification works only on the
// snapshot, never on the live page.
func detect(driver browser.Driver, applySelectors []string) *model.Detection {
	start := time.Now()
	d := &model.Detection{}

	if src, err := driver.PageSource(); err == nil {
		d.PageSource = src
	}
	if title, err := driver.Title(); err == nil {
		d.PageTitle = title
	}

	for _, selector := range applySelectors {
		els, err := driver.FindAll(selector)
		if err != nil || len(els) == 0 {
			continue
		}
		d.ButtonFound = true
		if text, err := els[0].Text(); err == nil {
			d.ButtonText = strings.TrimSpace(text)
		}
		if class, err := els[0].Attr("class"); err == nil {
			d.ButtonClass = class
		}
		break
	}

	d.Latency = time.Since(start)
	return d
}

// classify maps a snapshot to a submission status. The order is fixed:
// page-level states outrank button-level states.
func classify(d *model.Detection, cfg config.SubmitConfig) model.SubmissionStatus {
	if containsAny(d.PageSource, cfg.SuspendedPhrases) {
		return model.StatusJobSuspended
	}
	if containsAny(d.PageSource, cfg.ExpiredPhrases) {
		return model.StatusJobExpired
	}
	if containsAny(d.PageSource, cfg.LoginPhrases) {
		return model.StatusLoginRequired
	}
	if d.ButtonFound {
		if containsAny(d.ButtonText, cfg.AppliedIndicators) || classContainsAny(d.ButtonClass, cfg.DisabledIndicators) {
			return model.StatusAlreadyApplied
		}
		if containsAny(d.ButtonText, cfg.ApplyVerbs) {
			return model.StatusPending
		}
	}
	return model.StatusButtonNotFound
}

func containsAny(haystack string, needles []string) bool {
	if haystack == "" {
		return false
	}
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// classContainsAny matches disabled indicators against whole class
// names, so "off" does not fire on "offer-btn"
func classContainsAny(classAttr string, needles []string) bool {
	classes := strings.Fields(strings.ToLower(classAttr))
	for _, n := range needles {
		n = strings.ToLower(n)
		for _, c := range classes {
			if c == n || strings.HasSuffix(c, "-"+n) || strings.HasPrefix(c, n+"-") {
				return true
			}
		}
	}
	return false
}
