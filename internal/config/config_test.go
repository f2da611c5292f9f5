package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "uploads", cfg.Paths.UploadDir)
	assert.Equal(t, "processed", cfg.Paths.ProcessedDir)
	assert.True(t, cfg.Geocoding.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Cleanup.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Cleanup.Interval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("GEOCODING_ENABLED", "false")
	t.Setenv("FILE_TTL_MINUTES", "30")
	t.Setenv("POSTAL_CODE_MASTER_FILE", "/data/postal.xlsx")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Geocoding.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Cleanup.TTL)
	assert.Equal(t, "/data/postal.xlsx", cfg.Paths.PostalCandidates[0])
}

func TestLoadRejectsNonPositiveCleanup(t *testing.T) {
	t.Setenv("FILE_TTL_MINUTES", "0")
	_, err := Load()
	assert.Error(t, err)
}
