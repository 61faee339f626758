package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello...", truncate("hello world", 8))
	assert.Equal(t, "hello world", truncate("hello\nworld", 20))
	assert.Empty(t, truncate("", 5))
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{100 * time.Millisecond, "0.1s"},
		{2 * time.Second, "2.0s"},
		{30 * time.Second, "30.0s"},
		{65 * time.Second, "1m 5s"},
		{125 * time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fmtDuration(tt.input), "fmtDuration(%v)", tt.input)
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	assert.Equal(t, "custom.yaml", resolveConfigPath("custom.yaml", ".easel"))
}

func TestResolveConfigPathEaselDir(t *testing.T) {
	dir := t.TempDir()
	easelDir := filepath.Join(dir, ".easel")
	require.NoError(t, os.MkdirAll(easelDir, 0o755))

	configPath := filepath.Join(easelDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("listen: localhost:7333\n"), 0o644))

	assert.Equal(t, configPath, resolveConfigPath("", easelDir))
}

func TestResolveConfigPathFallback(t *testing.T) {
	assert.Equal(t, "easel.yaml", resolveConfigPath("", filepath.Join(t.TempDir(), "missing")))
}

func TestRenderMarkdownWithoutRenderer(t *testing.T) {
	old := mdRenderer
	mdRenderer = nil
	defer func() { mdRenderer = old }()

	assert.Equal(t, "# plain", renderMarkdown("# plain"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
