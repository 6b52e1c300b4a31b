package runtimeinit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gpttrans/src/config"
)

func TestBootstrapLoadsFileAndRuntime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider":"stub-free-provider","target_lang":"French","hotkey":"ctrl+shift+t"}`), 0o600))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("TARGET_LANG", "")
	t.Setenv("REQUEST_TIMEOUT_SEC", "30")
	t.Setenv("HOTKEY_BACKEND", "hook")

	rt, err := Bootstrap(Options{
		LoadOptions:   config.LoadOptions{Path: path, EnvFile: filepath.Join(dir, "missing.env")},
		Logger:        zap.NewNop().Sugar(),
		SkipClipboard: true,
	})
	require.NoError(t, err)

	cfg := rt.Store.Snapshot()
	assert.Equal(t, config.ProviderStub, cfg.Provider)
	assert.Equal(t, "French", cfg.TargetLang)
	assert.Equal(t, "Ctrl+Shift+T", cfg.Hotkey.String())
	assert.Equal(t, 30*time.Second, rt.Settings.RequestTimeout())
	assert.Equal(t, "hook", rt.Settings.HotkeyBackend)
	assert.NotNil(t, rt.Client)
	assert.Nil(t, rt.Clipboard)
}

func TestBootstrapPersistsNextToLoadedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	rt, err := Bootstrap(Options{
		LoadOptions:   config.LoadOptions{Path: path, EnvFile: filepath.Join(dir, "missing.env")},
		Logger:        zap.NewNop().Sugar(),
		SkipClipboard: true,
	})
	require.NoError(t, err)

	next := rt.Store.Snapshot()
	next.Provider = config.ProviderOllama
	require.NoError(t, rt.Store.Replace(next))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"provider": "ollama-native"`)
}

func TestBootstrapReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GPTTRANS_TEST_DOTENV_LEVEL=debug\n"), 0o600))

	_, err := Bootstrap(Options{
		LoadOptions:   config.LoadOptions{Path: filepath.Join(dir, "config.json"), EnvFile: envFile},
		Logger:        zap.NewNop().Sugar(),
		SkipClipboard: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("GPTTRANS_TEST_DOTENV_LEVEL") })
	assert.Equal(t, "debug", os.Getenv("GPTTRANS_TEST_DOTENV_LEVEL"))
}
