/*
Package config manages TOML config for splitsearch services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/splitsearch/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Dict   DictConfig   `toml:"dict"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit    int `toml:"max_limit"`
	MinSegments int `toml:"min_segments"`
	MaxSegments int `toml:"max_segments"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	Delimiter     string `toml:"delimiter"`
	PrefsFile     string `toml:"prefs_file"`
	AutosavePrefs bool   `toml:"autosave_prefs"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/splitsearch
// 2. Current executable dir
// 3. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "splitsearch")
	if err := utils.EnsureDir(primaryPath); err == nil {
		return primaryPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:    64,
			MinSegments: 1,
			MaxSegments: 16,
		},
		Dict: DictConfig{
			Delimiter:     ".",
			PrefsFile:     "splitsearch-prefs.json",
			AutosavePrefs: false,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Unset fields keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// Delim returns the configured delimiter as a single byte, falling back to
// '.' when the config value is empty or longer than one character.
func (c *Config) Delim() byte {
	if len(c.Dict.Delimiter) == 1 {
		return c.Dict.Delimiter[0]
	}
	return '.'
}
