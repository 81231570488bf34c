package browser

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrElementNotFound is returned when no element matches a selector
	ErrElementNotFound = errors.New("element not found")

	// ErrNotClickable is returned when an element fails the clickability check
	ErrNotClickable = errors.New("element is not clickable")

	// ErrSessionLost is returned when the browser session is no longer reachable
	ErrSessionLost = errors.New("browser session lost")
)

// Element is a single DOM element located by a Driver
type Element interface {
	Text() (string, error)
	Attr(name string) (string, error)
	// Find locates a descendant element; ErrElementNotFound when absent
	Find(selector string) (Element, error)
	Visible() (bool, error)
	ScrollIntoView() error
	Click() error
	JSClick() error
	MouseClick() error
	PressEnter() error
}

// Driver is the browser automation capability consumed by the extractor
// and the submitter. Implementations are not safe for concurrent use; the
// driver is owned by one goroutine at a time via Session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	PageSource() (string, error)
	Title() (string, error)
	CurrentURL() (string, error)
	FindAll(selector string) ([]Element, error)
	ExecuteScript(js string) (string, error)
	Quit() error
}

// Factory re-establishes a driver after session loss
type Factory func(ctx context.Context) (Driver, error)

// Session serializes access to a single browser driver. The extractor and
// the submitter each hold the session for their whole stage.
type Session struct {
	mu      sync.Mutex
	driver  Driver
	factory Factory
}

// NewSession creates a session owning the given driver
func NewSession(driver Driver, factory Factory) *Session {
	return &Session{driver: driver, factory: factory}
}

// Acquire locks the session and returns the driver
func (s *Session) Acquire() Driver {
	s.mu.Lock()
	return s.driver
}

// Release unlocks the session
func (s *Session) Release() {
	s.mu.Unlock()
}

// Driver returns the current driver. The caller must hold the session
// lock; the driver changes after Reset.
func (s *Session) Driver() Driver {
	return s.driver
}

// Ensure establishes the driver if the session has none yet. The caller
// must hold the session lock. Lazy establishment keeps binaries that
// never reach a browser stage from launching one.
func (s *Session) Ensure(ctx context.Context) error {
	if s.driver != nil {
		return nil
	}
	if s.factory == nil {
		return ErrSessionLost
	}
	driver, err := s.factory(ctx)
	if err != nil {
		return err
	}
	s.driver = driver
	return nil
}

// Reset quits the current driver and establishes a fresh one. The caller
// must hold the session lock.
func (s *Session) Reset(ctx context.Context) error {
	if s.driver != nil {
		_ = s.driver.Quit()
	}
	if s.factory == nil {
		return ErrSessionLost
	}
	driver, err := s.factory(ctx)
	if err != nil {
		return err
	}
	s.driver = driver
	return nil
}

// Quit releases the underlying driver
func (s *Session) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver != nil {
		_ = s.driver.Quit()
		s.driver = nil
	}
}
