package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/var/lib/volumed", cfg.Volume.Root)
	assert.True(t, cfg.Volume.CreateRoot)
	assert.Equal(t, int64(10485760), cfg.Volume.MaxReadBytes)
	assert.Empty(t, cfg.Volume.AllowedExtensions)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, time.Duration(0), cfg.Stats.CacheTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("VOLUME_ROOT", "/srv/data")
	t.Setenv("MAX_READ_BYTES", "1024")
	t.Setenv("ALLOWED_EXTENSIONS", "txt,md,json")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("STATS_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "/srv/data", cfg.Volume.Root)
	assert.Equal(t, int64(1024), cfg.Volume.MaxReadBytes)
	assert.Equal(t, []string{"txt", "md", "json"}, cfg.Volume.AllowedExtensions)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Stats.CacheTTL)
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("PORT", "9100")

	path := filepath.Join(t.TempDir(), "volumed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9200"
volume:
  root: /srv/overlay
`), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	// File values win over the environment.
	assert.Equal(t, "9200", cfg.Server.Port)
	assert.Equal(t, "/srv/overlay", cfg.Volume.Root)
	// Untouched sections keep their env/default values.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}
