package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	t.Run("is stable and 12 chars", func(t *testing.T) {
		a := Compute("Python开发", "星云科技", "18-24K", "上海")
		b := Compute("Python开发", "星云科技", "18-24K", "上海")

		assert.Len(t, a, Length)
		assert.Equal(t, a, b)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		a := Compute("Python  Developer", "Acme Corp", "18-24K", "Shanghai")
		b := Compute(" python developer ", "ACME CORP", "18-24k", "shanghai ")

		assert.Equal(t, a, b)
	})

	t.Run("differs when any field differs", func(t *testing.T) {
		base := Compute("Python Developer", "Acme", "18-24K", "Shanghai")

		assert.NotEqual(t, base, Compute("Java Developer", "Acme", "18-24K", "Shanghai"))
		assert.NotEqual(t, base, Compute("Python Developer", "Other", "18-24K", "Shanghai"))
		assert.NotEqual(t, base, Compute("Python Developer", "Acme", "20-30K", "Shanghai"))
		assert.NotEqual(t, base, Compute("Python Developer", "Acme", "18-24K", "Beijing"))
	})

	t.Run("field boundaries are not ambiguous", func(t *testing.T) {
		// "ab"+"c" must not collide with "a"+"bc"
		assert.NotEqual(t, Compute("ab", "c", "", ""), Compute("a", "bc", "", ""))
	})
}
