package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedElement struct {
	visible      bool
	failClicks   int // clicks that fail before one succeeds
	clicks       int
	enterPressed bool
}

func (e *scriptedElement) Text() (string, error)            { return "", nil }
func (e *scriptedElement) Attr(name string) (string, error) { return "", nil }
func (e *scriptedElement) Find(selector string) (Element, error) {
	return nil, ErrElementNotFound
}
func (e *scriptedElement) Visible() (bool, error) { return e.visible, nil }
func (e *scriptedElement) ScrollIntoView() error  { return nil }
func (e *scriptedElement) Click() error {
	e.clicks++
	if e.clicks <= e.failClicks {
		return errors.New("click intercepted")
	}
	return nil
}
func (e *scriptedElement) JSClick() error    { return e.Click() }
func (e *scriptedElement) MouseClick() error { return e.Click() }
func (e *scriptedElement) PressEnter() error {
	e.enterPressed = true
	return e.Click()
}

func TestClickWithStrategies(t *testing.T) {
	t.Run("first strategy wins when it works", func(t *testing.T) {
		el := &scriptedElement{visible: true}

		strategy, err := ClickWithStrategies(el)

		require.NoError(t, err)
		assert.Equal(t, "standard", strategy)
		assert.Equal(t, 1, el.clicks)
	})

	t.Run("later strategies are tried after failures", func(t *testing.T) {
		el := &scriptedElement{visible: true, failClicks: 3}

		strategy, err := ClickWithStrategies(el)

		require.NoError(t, err)
		assert.Equal(t, "keyboard", strategy)
		assert.True(t, el.enterPressed)
	})

	t.Run("every strategy failing surfaces an error", func(t *testing.T) {
		el := &scriptedElement{visible: true, failClicks: 100}

		_, err := ClickWithStrategies(el)
		assert.Error(t, err)
	})
}
