package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
	assert.NoError(t, config.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9090
  timeout: 5s
log:
  level: debug
model:
  registry: models.db
  name: water_v2
session:
  ttl: 10m
`), 0o600))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, config.Http.Port)
	assert.Equal(t, 5*time.Second, config.Http.Timeout)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "models.db", config.Model.Registry)
	assert.Equal(t, "water_v2", config.Model.Name)
	assert.Equal(t, 10*time.Minute, config.Session.TTL)
	assert.Equal(t, 1024, config.Session.Capacity)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"malformed": "http: [",
		"port":      "http:\n  port: 70000\n",
		"level":     "log:\n  level: loud\n",
		"body":      "http:\n  max_body_bytes: 0\n",
		"rps":       "http:\n  rate_limit:\n    rps: 0\n",
		"burst":     "http:\n  rate_limit:\n    burst: -1\n",
		"registry":  "model:\n  path: \"\"\n  registry: r.db\n  name: \"\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 16)
	require.NoError(t, Watch(ctx, path, zap.NewNop(), func(c *Config) { reloaded <- c }))
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.Log.Level == "debug" {
				return
			}
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}
}
