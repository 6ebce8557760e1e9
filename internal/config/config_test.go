package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "hostdiag", cfg.Prefix)
	assert.Equal(t, 1800, cfg.Interval)
	assert.False(t, cfg.Verbose)

	assert.Equal(t, "any", cfg.Capture.Interface)
	assert.Equal(t, 100, cfg.Capture.SizeMB)
	assert.Equal(t, 10, cfg.Capture.Count)

	assert.Equal(t, "java", cfg.Sampler.Selector)
	assert.Equal(t, []string{"elasticsearch", "logstash", "cassandra", "kafka"}, cfg.Sampler.Denylist)
	assert.Contains(t, cfg.Sampler.DumpPatterns, "javacore*")
	assert.Contains(t, cfg.Sampler.DumpPatterns, "*.hprof")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostdiag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prefix: webfarm
interval: 60
capture:
  interface: eth0
  size_mb: 25
sampler:
  selector: node
  denylist:
    - elasticsearch
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "webfarm", cfg.Prefix)
	assert.Equal(t, 60, cfg.Interval)
	assert.Equal(t, "eth0", cfg.Capture.Interface)
	assert.Equal(t, 25, cfg.Capture.SizeMB)
	assert.Equal(t, "node", cfg.Sampler.Selector)
	assert.Equal(t, []string{"elasticsearch"}, cfg.Sampler.Denylist)

	// Unset keys keep their defaults.
	assert.Equal(t, 10, cfg.Capture.Count)
	assert.Contains(t, cfg.Sampler.DumpPatterns, "heapdump*")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
