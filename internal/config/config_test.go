package config

import (
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) (stateHome, configHome string) {
	t.Helper()
	stateHome = t.TempDir()
	configHome = t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("LEAF_DATA_DIR", "")
	t.Setenv("LEAF_LOG_LEVEL", "")
	t.Setenv("LEAF_CONFIG_DIR", "")
	t.Setenv("LEAF_LOG_STDERR", "")
	return stateHome, configHome
}

func TestDefaults(t *testing.T) {
	stateHome, configHome := isolate(t)

	require.Equal(t, filepath.Join(stateHome, "leaf"), DefaultDataDir())
	require.Equal(t, filepath.Join(configHome, "leaf"), DefaultConfigDir())

	cfg, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, Config{DataDir: filepath.Join(stateHome, "leaf"), LogLevel: "info"}, cfg)
}

func TestConfigFile(t *testing.T) {
	_, configHome := isolate(t)
	dir := filepath.Join(configHome, "leaf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data := filepath.Join(t.TempDir(), "books")
	content := "data_dir = \"" + data + "\"\nlog_level = \"debug\"\nlog_stderr = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	cfg, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, data, cfg.DataDir)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.LogStderr)
	require.Equal(t, filepath.Join(dir, "config.toml"), cfg.File)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	_, configHome := isolate(t)
	dir := filepath.Join(configHome, "leaf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("log_level = \"debug\"\n"), 0o644))

	envData := t.TempDir()
	t.Setenv("LEAF_DATA_DIR", envData)
	t.Setenv("LEAF_LOG_LEVEL", "warn")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, envData, cfg.DataDir)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestExplicitValuesWin(t *testing.T) {
	isolate(t)
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("log_level = \"error\"\n"), 0o644))

	v := New()
	v.Set(KeyConfigDir, configDir)
	v.Set(KeyDataDir, "/tmp/leaf-data/")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "/tmp/leaf-data", cfg.DataDir)
	require.Equal(t, "error", cfg.LogLevel)
}

func TestTildeExpansion(t *testing.T) {
	isolate(t)
	home, err := homedir.Dir()
	require.NoError(t, err)

	v := New()
	v.Set(KeyDataDir, "~/leaf-books")
	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "leaf-books"), cfg.DataDir)
}

func TestMalformedConfigFile(t *testing.T) {
	_, configHome := isolate(t)
	dir := filepath.Join(configHome, "leaf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("log_level = [\n"), 0o644))

	_, err := Load(New())
	require.Error(t, err)
}
