package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver implements Driver on top of go-rod
type RodDriver struct {
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
}

// NewRodDriver launches (or connects to) a Chromium instance and opens a
// blank page. When ControlURL is set the driver attaches to an already
// running browser, which keeps a human login alive across runs.
func NewRodDriver(cfg config.BrowserConfig) (*RodDriver, error) {
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless).Leakless(true)
		if cfg.UserDataDir != "" {
			l = l.UserDataDir(cfg.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &RodDriver{
		browser:    b,
		page:       page,
		navTimeout: cfg.NavTimeout,
	}, nil
}

// Navigate loads a URL and waits for the page to settle
func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx).Timeout(d.navTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// PageSource returns the current page HTML
func (d *RodDriver) PageSource() (string, error) {
	return d.page.HTML()
}

// Title returns the current page title
func (d *RodDriver) Title() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// CurrentURL returns the current page URL
func (d *RodDriver) CurrentURL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// FindAll returns all elements matching a CSS selector
func (d *RodDriver) FindAll(selector string) ([]Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

// ExecuteScript evaluates a JS expression and returns its string value
func (d *RodDriver) ExecuteScript(js string) (string, error) {
	res, err := d.page.Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Quit closes the page and disconnects from the browser
func (d *RodDriver) Quit() error {
	if d.page != nil {
		_ = d.page.Close()
	}
	if d.browser != nil {
		return d.browser.Close()
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Find(selector string) (Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrElementNotFound
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) Attr(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) JSClick() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

func (e *rodElement) MouseClick() error {
	if err := e.el.Hover(); err != nil {
		return err
	}
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) PressEnter() error {
	if err := e.el.Focus(); err != nil {
		return err
	}
	return e.el.Type(input.Enter)
}
