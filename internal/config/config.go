// ABOUTME: Therapose configuration management.
// ABOUTME: Handles data location, log mode, API address, and the storage factory.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/therapose/internal/logger"
	"github.com/harperreed/therapose/internal/storage"
)

// DefaultHTTPAddr is where `therapose serve` listens unless configured.
const DefaultHTTPAddr = "127.0.0.1:8080"

// Config stores therapose configuration.
type Config struct {
	// DataDir is the root directory for data storage; therapose.db lives here.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/therapose.
	DataDir string `json:"data_dir,omitempty"`

	// LogMode selects the logger: "dev" (default) or "prod".
	LogMode string `json:"log_mode,omitempty"`

	// HTTPAddr is the listen address of the JSON API.
	HTTPAddr string `json:"http_addr,omitempty"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLogMode returns the configured log mode, defaulting to "dev".
func (c *Config) GetLogMode() string {
	if c.LogMode == "" {
		return "dev"
	}
	return c.LogMode
}

// GetHTTPAddr returns the configured API address.
func (c *Config) GetHTTPAddr() string {
	if c.HTTPAddr == "" {
		return DefaultHTTPAddr
	}
	return c.HTTPAddr
}

// DBPath returns the database file inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "therapose.db")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite database in the configured data directory.
func (c *Config) OpenStorage(log *logger.Logger) (*storage.DB, error) {
	return storage.Open(c.DBPath(), storage.WithLogger(log))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "therapose", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
