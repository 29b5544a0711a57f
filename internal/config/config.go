package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration.
type Config struct {
	// Server listening behavior
	Server ServerConfig `mapstructure:"server" json:"server"`

	// Storage root and transfer tuning
	Storage StorageConfig `mapstructure:"storage" json:"storage"`

	// Operation journal
	Audit AuditConfig `mapstructure:"audit" json:"audit,omitempty"`

	// Logging
	Log LogConfig `mapstructure:"log" json:"log"`
}

// ServerConfig for the TCP listener.
type ServerConfig struct {
	Listen string `mapstructure:"listen" json:"listen"` // host:port to bind

	// MaxConns caps concurrent connections. Zero means unlimited; the
	// server then degrades by spawning one goroutine per accepted peer.
	MaxConns int `mapstructure:"max_conns" json:"max_conns"`
}

// StorageConfig for the storage root and transfer engine.
type StorageConfig struct {
	Root      string `mapstructure:"root" json:"root"`             // Flat storage directory
	ChunkSize int    `mapstructure:"chunk_size" json:"chunk_size"` // Transfer chunk in bytes
	MaxLine   int    `mapstructure:"max_line" json:"max_line"`     // Max control line length
}

// AuditConfig for the SQLite operation journal.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" json:"path"` // Database file path
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" json:"format"` // text, json
	File   string `mapstructure:"file" json:"file"`     // Log file path (empty = stdout)
	Color  bool   `mapstructure:"color" json:"color"`   // Enable colored output
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:   ":8080",
			MaxConns: 0,
		},
		Storage: StorageConfig{
			Root:      "storage",
			ChunkSize: 64 * 1024,
			MaxLine:   4096,
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    "minicloud-audit.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
			Color:  true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen is required")
	}

	if c.Server.MaxConns < 0 {
		return errors.New("server.max_conns must not be negative")
	}

	if c.Storage.Root == "" {
		return errors.New("storage.root is required")
	}

	if c.Storage.ChunkSize <= 0 {
		return errors.New("storage.chunk_size must be positive")
	}

	if c.Storage.MaxLine <= 0 {
		return errors.New("storage.max_line must be positive")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit.path is required when audit is enabled")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Storage.Root}

	if c.Audit.Enabled {
		dirs = append(dirs, filepath.Dir(c.Audit.Path))
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
