// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxerrors "github.com/hapara-fail/nx53/internal/errors"
)

func TestDefaultThreshold(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint64(50_000), cfg.Threshold())
}

func TestProfileThreshold(t *testing.T) {
	cfg := Default()
	cfg.Profile = ProfileHome
	assert.Equal(t, uint64(10_000), cfg.Threshold())

	cfg.Profile = ProfileDatacenter
	assert.Equal(t, uint64(1_000_000), cfg.Threshold())
}

func TestThresholdOverrideWins(t *testing.T) {
	cfg := Default()
	cfg.Profile = ProfileHome
	override := uint64(999)
	cfg.ThresholdOverride = &override

	assert.Equal(t, uint64(999), cfg.Threshold())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, path, found, err := Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", path)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesLocalFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	contents := `
mode = "manual"
profile = "Enterprise"

[rate_limit]
enabled = true
requests_per_sec = 5
first_offense_duration_secs = 60
second_offense_duration_secs = 300

[filters]
block_any_queries = true
block_large_txt = true
txt_max_size = 1024
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0o644))

	cfg, path, found, err := Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "config.toml", path)
	assert.Equal(t, ModeManual, cfg.Mode)
	assert.Equal(t, uint64(100_000), cfg.Threshold())
	assert.Equal(t, uint64(5), cfg.RateLimit.RequestsPerSec)
}

func TestLoadBadTOMLIsConfigParseError(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0o644))

	_, _, _, err = Load()
	require.Error(t, err)
	assert.Equal(t, nxerrors.KindConfigParse, nxerrors.GetKind(err))
}
