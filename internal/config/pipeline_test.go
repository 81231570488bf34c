package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfig(t *testing.T) {
	t.Run("defaults validate", func(t *testing.T) {
		require.NoError(t, DefaultPipelineConfig().Validate())
	})

	t.Run("defaults match the documented values", func(t *testing.T) {
		cfg := DefaultPipelineConfig()

		assert.Equal(t, 0.30, cfg.Decide.MinSalaryScore)
		assert.Equal(t, 50, cfg.Decide.MaxSubmissionsPerDay)
		assert.Equal(t, 0.9, cfg.Decide.InitialRejectionRate)
		assert.Equal(t, "hybrid", cfg.Match.SearchStrategy)
		assert.InDelta(t, 0.40, cfg.Match.Weights.Semantic, 1e-9)
		assert.InDelta(t, 0.30, cfg.Match.DocTypeWeights["overview"], 1e-9)
		assert.Equal(t, 10, cfg.Submit.BatchRestEvery)
	})
}

func TestPipelineConfig_Validate(t *testing.T) {
	t.Run("rejects unknown search strategy", func(t *testing.T) {
		cfg := DefaultPipelineConfig()
		cfg.Match.SearchStrategy = "tfidf"

		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects weights that do not sum to one", func(t *testing.T) {
		cfg := DefaultPipelineConfig()
		cfg.Match.Weights.Semantic = 0.9

		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects sites without selectors", func(t *testing.T) {
		cfg := DefaultPipelineConfig()
		cfg.Extract.Sites = []SiteConfig{{Name: "demo"}}

		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects inverted delay ranges", func(t *testing.T) {
		cfg := DefaultPipelineConfig()
		cfg.Submit.MinDelay = cfg.Submit.MaxDelay + 1

		assert.Error(t, cfg.Validate())
	})
}

func TestLoadPipelineConfig(t *testing.T) {
	t.Run("overlays file values onto defaults", func(t *testing.T) {
		path := writeConfig(t, `
decide:
  max_submissions_per_day: 10
submit:
  dry_run: true
`)

		cfg, err := LoadPipelineConfig(path)

		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Decide.MaxSubmissionsPerDay)
		assert.True(t, cfg.Submit.DryRun)
		// Untouched values keep their defaults
		assert.Equal(t, "hybrid", cfg.Match.SearchStrategy)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		path := writeConfig(t, `
decide:
  max_submission_per_day: 10
`)

		_, err := LoadPipelineConfig(path)
		assert.Error(t, err)
	})

	t.Run("empty path yields the defaults", func(t *testing.T) {
		cfg, err := LoadPipelineConfig("")

		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Decide.MaxSubmissionsPerDay)
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
