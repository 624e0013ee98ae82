package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GCP_PROJECT", "test-project")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-project", cfg.ProjectID)
	assert.Equal(t, StrategyVision, cfg.ExtractionStrategy)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 4, cfg.MaxConcurrentPages)
	assert.Equal(t, 600, cfg.PDFDPI)
	assert.Equal(t, 1024, cfg.TileSize)
	assert.Equal(t, 200, cfg.TileOverlap)
	assert.Equal(t, []string{"spa", "eng"}, cfg.OCRLanguages)
	assert.InDelta(t, 0.3, cfg.OCRConfidence, 1e-9)
	assert.True(t, cfg.TilingEnabled)
}

func TestLoadRequiresProject(t *testing.T) {
	t.Setenv("GCP_PROJECT", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCP_PROJECT")
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("GCP_PROJECT", "test-project")
	t.Setenv("EXTRACTION_STRATEGY", "hybrid")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXTRACTION_STRATEGY")
}

func TestLoadRejectsOverlapLargerThanTile(t *testing.T) {
	t.Setenv("GCP_PROJECT", "test-project")
	t.Setenv("TILE_SIZE", "100")
	t.Setenv("TILE_OVERLAP", "150")

	_, err := Load()
	require.Error(t, err)
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("BRANDSCAN_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("BRANDSCAN_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("BRANDSCAN_TEST_KEY_MISSING", "fallback"))
}
