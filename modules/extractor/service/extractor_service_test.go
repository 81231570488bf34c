package service

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/browser"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElement implements browser.Element
type fakeElement struct {
	children map[string]*fakeElement
	text     string
	clicks   int
}

func (e *fakeElement) Text() (string, error)            { return e.text, nil }
func (e *fakeElement) Attr(name string) (string, error) { return "", nil }
func (e *fakeElement) Find(selector string) (browser.Element, error) {
	if child, ok := e.children[selector]; ok {
		return child, nil
	}
	return nil, browser.ErrElementNotFound
}
func (e *fakeElement) Visible() (bool, error) { return true, nil }
func (e *fakeElement) ScrollIntoView() error  { return nil }
func (e *fakeElement) Click() error {
	e.clicks++
	return nil
}
func (e *fakeElement) JSClick() error    { return e.Click() }
func (e *fakeElement) MouseClick() error { return e.Click() }
func (e *fakeElement) PressEnter() error { return e.Click() }

// fakeDriver implements browser.Driver
type fakeDriver struct {
	elements  map[string][]browser.Element
	navigated []string
	source    string
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	return nil
}
func (d *fakeDriver) PageSource() (string, error) { return d.source, nil }
func (d *fakeDriver) Title() (string, error)      { return "", nil }
func (d *fakeDriver) CurrentURL() (string, error) {
	if len(d.navigated) == 0 {
		return "https://jobs.example.com/detail/42", nil
	}
	return d.navigated[len(d.navigated)-1], nil
}
func (d *fakeDriver) FindAll(selector string) ([]browser.Element, error) {
	return d.elements[selector], nil
}
func (d *fakeDriver) ExecuteScript(js string) (string, error) { return "", nil }
func (d *fakeDriver) Quit() error                             { return nil }

// MockJobStore implements ports.JobStore
type MockJobStore struct {
	IsKnownFunc     func(ctx context.Context, title, company, salary, location string) (bool, error)
	InsertIfNewFunc func(ctx context.Context, raw *jobmodel.RawJob) (string, bool, error)
}

func (m *MockJobStore) IsKnown(ctx context.Context, title, company, salary, location string) (bool, error) {
	if m.IsKnownFunc != nil {
		return m.IsKnownFunc(ctx, title, company, salary, location)
	}
	return false, nil
}

func (m *MockJobStore) InsertIfNew(ctx context.Context, raw *jobmodel.RawJob) (string, bool, error) {
	if m.InsertIfNewFunc != nil {
		return m.InsertIfNewFunc(ctx, raw)
	}
	return "job-1", true, nil
}

func testSite() config.SiteConfig {
	return config.SiteConfig{
		Name:              "demo",
		SearchURLTemplate: "https://jobs.example.com/search?q={keyword}&page={page}",
		CardSelectors:     []string{".job-card", ".job-item"},
		TitleSelector:     ".title",
		CompanySelector:   ".company",
		SalarySelector:    ".salary",
		LocationSelector:  ".location",
		NextPageSelector:  ".next-page",
		ApplySelectors:    []string{".apply-btn"},
	}
}

func testExtractConfig() config.ExtractConfig {
	return config.ExtractConfig{
		MaxPages:     1,
		MinDelay:     time.Millisecond,
		MaxDelay:     time.Millisecond,
		MaxCardFails: 5,
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func card(title, company, salary, location string) *fakeElement {
	return &fakeElement{
		children: map[string]*fakeElement{
			".title":    {text: title},
			".company":  {text: company},
			".salary":   {text: salary},
			".location": {text: location},
		},
	}
}

func newExtractor(t *testing.T, driver browser.Driver, store *MockJobStore) *ExtractorService {
	t.Helper()
	session := browser.NewSession(driver, nil)
	return NewExtractorService(session, store, testExtractConfig(), testSite(), testLogger(t))
}

func TestExtractorService_Extract(t *testing.T) {
	t.Run("known fingerprint skips the detail page", func(t *testing.T) {
		known := card("Python开发", "星云科技", "18-24K", "上海")
		driver := &fakeDriver{
			elements: map[string][]browser.Element{
				".job-card": {known},
			},
		}
		inserts := 0
		store := &MockJobStore{
			IsKnownFunc: func(ctx context.Context, title, company, salary, location string) (bool, error) {
				return true, nil
			},
			InsertIfNewFunc: func(ctx context.Context, raw *jobmodel.RawJob) (string, bool, error) {
				inserts++
				return "", true, nil
			},
		}

		svc := newExtractor(t, driver, store)
		stats, err := svc.Extract(context.Background(), []string{"python"})

		require.NoError(t, err)
		assert.Equal(t, 1, stats.DedupSkipped)
		assert.Equal(t, 0, stats.Extracted)
		assert.Equal(t, 0, inserts)
		assert.Equal(t, 0, known.clicks)
	})

	t.Run("new job is clicked into and inserted", func(t *testing.T) {
		fresh := card("Java开发", "蓝海信息", "20-30K", "北京")
		driver := &fakeDriver{
			elements: map[string][]browser.Element{
				".job-card": {fresh},
			},
		}
		var inserted []*jobmodel.RawJob
		store := &MockJobStore{
			InsertIfNewFunc: func(ctx context.Context, raw *jobmodel.RawJob) (string, bool, error) {
				inserted = append(inserted, raw)
				return "job-1", true, nil
			},
		}

		svc := newExtractor(t, driver, store)
		stats, err := svc.Extract(context.Background(), []string{"java"})

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Extracted)
		assert.Greater(t, fresh.clicks, 0)
		require.Len(t, inserted, 1)
		assert.Equal(t, "Java开发", inserted[0].Title)
		assert.Equal(t, "蓝海信息", inserted[0].Company)
		assert.Equal(t, "demo", inserted[0].Site)
	})

	t.Run("second card selector strategy is consulted", func(t *testing.T) {
		fresh := card("Go开发", "晨光数据", "25-35K", "深圳")
		driver := &fakeDriver{
			elements: map[string][]browser.Element{
				".job-item": {fresh}, // only the second pattern yields cards
			},
		}
		store := &MockJobStore{}

		svc := newExtractor(t, driver, store)
		stats, err := svc.Extract(context.Background(), []string{"go"})

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Extracted)
	})

	t.Run("empty search results return without error", func(t *testing.T) {
		driver := &fakeDriver{elements: map[string][]browser.Element{}}
		store := &MockJobStore{}

		svc := newExtractor(t, driver, store)
		stats, err := svc.Extract(context.Background(), []string{"nothing"})

		require.NoError(t, err)
		assert.Equal(t, 0, stats.Extracted)
		require.Len(t, stats.Keywords, 1)
		assert.NotEmpty(t, stats.Keywords[0].Warnings)
	})

	t.Run("card without title becomes a failed-job record", func(t *testing.T) {
		broken := &fakeElement{children: map[string]*fakeElement{
			".company": {text: "孤岛网络"},
		}}
		driver := &fakeDriver{
			elements: map[string][]browser.Element{
				".job-card": {broken},
			},
		}
		store := &MockJobStore{}

		svc := newExtractor(t, driver, store)
		stats, err := svc.Extract(context.Background(), []string{"x"})

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
		require.Len(t, stats.Keywords, 1)
		require.Len(t, stats.Keywords[0].FailedJobs, 1)
		assert.Equal(t, "孤岛网络", stats.Keywords[0].FailedJobs[0].Company)
	})

	t.Run("keywords run sequentially in order", func(t *testing.T) {
		driver := &fakeDriver{elements: map[string][]browser.Element{}}
		store := &MockJobStore{}

		svc := newExtractor(t, driver, store)
		stats, err := svc.Extract(context.Background(), []string{"first", "second"})

		require.NoError(t, err)
		require.Len(t, stats.Keywords, 2)
		assert.Equal(t, "first", stats.Keywords[0].Keyword)
		assert.Equal(t, "second", stats.Keywords[1].Keyword)
	})

	t.Run("cancellation stops between keywords", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		driver := &fakeDriver{elements: map[string][]browser.Element{}}
		svc := newExtractor(t, driver, &MockJobStore{})

		_, err := svc.Extract(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
