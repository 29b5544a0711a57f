package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty configPath means "search the
// default locations and fall back to defaults if nothing is found".
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "MINICLOUD",
	}
}

// Load reads configuration from file and environment.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	// Start with defaults so partial config files work.
	defaults := DefaultConfig()
	v.SetDefault("server.listen", defaults.Server.Listen)
	v.SetDefault("server.max_conns", defaults.Server.MaxConns)
	v.SetDefault("storage.root", defaults.Storage.Root)
	v.SetDefault("storage.chunk_size", defaults.Storage.ChunkSize)
	v.SetDefault("storage.max_line", defaults.Storage.MaxLine)
	v.SetDefault("audit.enabled", defaults.Audit.Enabled)
	v.SetDefault("audit.path", defaults.Audit.Path)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.color", defaults.Log.Color)

	// Environment overrides, e.g. MINICLOUD_LOG_LEVEL=debug.
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		v.SetConfigName("minicloud")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/minicloud")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
