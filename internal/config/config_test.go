package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "max_concurrent: 5\ndebounce_ms: 150\nlog:\n  debug: true\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 5, cfg.MaxConcurrent)
		require.Equal(t, 150*time.Millisecond, cfg.Debounce())
		require.True(t, cfg.Log.Debug)

		// untouched fields keep defaults
		require.Equal(t, 60*time.Second, cfg.ShortTimeout())
		require.Equal(t, 300*time.Second, cfg.LongTimeout())
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_concurrent: -2\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, DefaultMaxConcurrent, cfg.MaxConcurrent)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_concurrent: [oops\n"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
	})
}
