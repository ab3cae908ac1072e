package config

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	t.Setenv("TABSHELF_DATA_DIR", data)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, data, cfg.DataDir)
	assert.Equal(t, filepath.Join(data, "tabshelf.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(data, "layout"), cfg.LayoutDir)
	assert.Equal(t, filepath.Join(data, "tabshelf.log"), cfg.LogPath())
	assert.Equal(t, "nord", cfg.Theme)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.True(t, cfg.Notifications)
	assert.Equal(t, 100*time.Millisecond, cfg.Browser.SettleDelay)
	assert.Equal(t, "http://127.0.0.1:9222", cfg.Browser.DebuggerURL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
data_dir: /tmp/shelf
log_level: debug
theme: dracula
notifications: false
browser:
  debugger_url: http://localhost:9333
  settle_delay: 250ms
`)
	t.Setenv("TABSHELF_THEME", "gruvbox")

	l := NewLoader(dir)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/shelf", cfg.DataDir)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.Equal(t, "gruvbox", cfg.Theme, "env wins over file")
	assert.False(t, cfg.Notifications)
	assert.Equal(t, "http://localhost:9333", cfg.Browser.DebuggerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Browser.SettleDelay)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), l.ConfigFile())
	assert.Equal(t, cfg, l.Current())
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: shouty\n")

	_, err := NewLoader(dir).Load()
	assert.ErrorContains(t, err, "log_level")

	writeConfig(t, dir, "log_level: [unterminated\n")
	_, err = NewLoader(dir).Load()
	assert.ErrorContains(t, err, "error reading config file")
}

func TestWriteDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	l := NewLoader(dir)

	path, err := l.WriteDefault()
	require.NoError(t, err)
	assert.FileExists(t, path)

	// A second call keeps the existing file
	again, err := l.WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, path, again)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "nord", cfg.Theme)
}

func TestWatchReloadsTheme(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "theme: nord\n")

	l := NewLoader(dir)
	_, err := l.Load()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	var mu sync.Mutex
	var seen []string
	l.Watch(log, func(c Config) {
		mu.Lock()
		seen = append(seen, c.Theme)
		mu.Unlock()
	})

	writeConfig(t, dir, "theme: catppuccin\n")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == "catppuccin"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "catppuccin", l.Current().Theme)
}
