// Package config resolves where leaf keeps its files and how it logs, from
// flags, LEAF_* environment variables and an optional config.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable leaf reads.
	EnvPrefix = "LEAF"
	// AppName names the directories under the XDG base directories.
	AppName = "leaf"

	KeyDataDir   = "data_dir"
	KeyLogLevel  = "log_level"
	KeyLogStderr = "log_stderr"
	KeyConfigDir = "config_dir"

	configName = "config"
)

// Config is the resolved runtime configuration.
type Config struct {
	DataDir   string
	LogLevel  string
	LogStderr bool
	// File is the config file that was read, empty when none was found.
	File string
}

// New returns a viper instance with leaf's defaults and environment binding.
// Callers bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetDefault(KeyConfigDir, DefaultConfigDir())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogStderr, false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config.toml from the configured config directory, if present,
// and returns the merged configuration.
func Load(v *viper.Viper) (Config, error) {
	configDir, err := homedir.Expand(v.GetString(KeyConfigDir))
	if err != nil {
		return Config{}, fmt.Errorf("expand config dir: %w", err)
	}

	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	dataDir, err := homedir.Expand(strings.TrimSpace(v.GetString(KeyDataDir)))
	if err != nil {
		return Config{}, fmt.Errorf("expand data dir: %w", err)
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	return Config{
		DataDir:   filepath.Clean(dataDir),
		LogLevel:  v.GetString(KeyLogLevel),
		LogStderr: v.GetBool(KeyLogStderr),
		File:      v.ConfigFileUsed(),
	}, nil
}

// DefaultDataDir returns XDG_STATE_HOME/leaf or ~/.local/state/leaf.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(home(), ".local", "state", AppName)
}

// DefaultConfigDir returns XDG_CONFIG_HOME/leaf or ~/.config/leaf.
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(home(), ".config", AppName)
}

func home() string {
	dir, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return dir
}
