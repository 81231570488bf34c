package browser

import "fmt"

// clickStrategy is one way of activating an element
type clickStrategy struct {
	name string
	do   func(el Element) error
}

// The strategies are ordered from least to most invasive. Sites that
// intercept native clicks usually still respond to one of the later ones.
var clickStrategies = []clickStrategy{
	{"standard", func(el Element) error { return el.Click() }},
	{"js", func(el Element) error { return el.JSClick() }},
	{"mouse", func(el Element) error { return el.MouseClick() }},
	{"keyboard", func(el Element) error { return el.PressEnter() }},
	{"scroll_then_click", func(el Element) error {
		if err := el.ScrollIntoView(); err != nil {
			return err
		}
		return el.Click()
	}},
}

// ClickWithStrategies tries every click strategy in order until one
// succeeds. The element's visibility is validated before each attempt.
// Returns the name of the strategy that worked.
func ClickWithStrategies(el Element) (string, error) {
	var lastErr error
	for _, strat := range clickStrategies {
		visible, err := el.Visible()
		if err != nil {
			lastErr = err
			continue
		}
		if !visible {
			// Invisible elements only become clickable after scrolling
			if err := el.ScrollIntoView(); err != nil {
				lastErr = ErrNotClickable
				continue
			}
		}
		if err := strat.do(el); err != nil {
			lastErr = err
			continue
		}
		return strat.name, nil
	}
	if lastErr == nil {
		lastErr = ErrNotClickable
	}
	return "", fmt.Errorf("all click strategies failed: %w", lastErr)
}
