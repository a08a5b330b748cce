package config

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadCallback(t *testing.T) {
	path := writeConfig(t, `
[fusion]
radius_meters = 5000.0
`)

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Stop()

	var radius atomic.Value
	w.OnReload(func(cfg *Config) error {
		radius.Store(cfg.Fusion.RadiusMeters)
		return nil
	})
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte(`
[fusion]
radius_meters = 1000.0
`), DefaultFilePermissions))

	require.Eventually(t, func() bool {
		v, ok := radius.Load().(float64)
		return ok && v == 1000.0
	}, 5*time.Second, 50*time.Millisecond, "callback receives the new fusion radius")
}

func TestWatcherMissingFile(t *testing.T) {
	_, err := NewWatcher("/nonexistent/copx.toml")
	assert.Error(t, err)
}
